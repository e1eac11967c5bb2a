package config

import (
	"errors"
	"fmt"
	"os"

	"portfolio-rate-limiter/internal/limiter"

	"gopkg.in/yaml.v3"
)

// Propósitos das rotas protegidas; também são o prefixo das chaves do rate limit
const (
	PurposeLogin      = "login"
	PurposeContact    = "contact"
	PurposeNewsletter = "newsletter"
	PurposeResource   = "resource"
)

// RoutePolicies associa cada propósito a uma política da tabela
type RoutePolicies map[string]limiter.PolicyName

type routesFile struct {
	Routes map[string]string `yaml:"routes"`
}

func DefaultRoutePolicies() RoutePolicies {
	return RoutePolicies{
		PurposeLogin:      limiter.Strict,
		PurposeContact:    limiter.Standard,
		PurposeNewsletter: limiter.Newsletter,
		PurposeResource:   limiter.Relaxed,
	}
}

// Carrega as associações de rotas a partir de um arquivo YAML. Sem arquivo, usa os defaults;
// entradas do arquivo sobrescrevem os defaults.
func LoadRoutePolicies(filePath string) (RoutePolicies, error) {
	policies := DefaultRoutePolicies()

	data, err := os.ReadFile(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return policies, nil
		}
		return nil, fmt.Errorf("error reading routes config file: %w", err)
	}

	var file routesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("error decoding routes config: %w", err)
	}

	for purpose, name := range file.Routes {
		policyName := limiter.PolicyName(name)
		if _, ok := limiter.LookupPolicy(policyName); !ok {
			return nil, fmt.Errorf("route %q: %w: %q", purpose, limiter.ErrUnknownPolicy, name)
		}
		policies[purpose] = policyName
	}

	return policies, nil
}

// GetPolicy resolve a política de um propósito
func (rp RoutePolicies) GetPolicy(purpose string) (limiter.Policy, error) {
	name, exists := rp[purpose]
	if !exists {
		return limiter.Policy{}, fmt.Errorf("no policy bound to route %q", purpose)
	}

	policy, ok := limiter.LookupPolicy(name)
	if !ok {
		return limiter.Policy{}, fmt.Errorf("route %q: %w: %q", purpose, limiter.ErrUnknownPolicy, name)
	}
	return policy, nil
}
