package limiter

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidPolicy = errors.New("invalid rate limit policy")
	ErrUnknownPolicy = errors.New("unknown rate limit policy")
)

// Policy descreve uma cota: no máximo MaxRequests requisições admitidas por Interval
type Policy struct {
	Interval    time.Duration
	MaxRequests int
}

func (p Policy) Validate() error {
	if p.Interval <= 0 {
		return fmt.Errorf("%w: interval must be positive, got %s", ErrInvalidPolicy, p.Interval)
	}
	if p.MaxRequests < 1 {
		return fmt.Errorf("%w: max requests must be at least 1, got %d", ErrInvalidPolicy, p.MaxRequests)
	}
	return nil
}

type PolicyName string

const (
	// Endpoints de autenticação
	Strict PolicyName = "strict"
	// API geral
	Standard PolicyName = "standard"
	// Leituras de baixo risco
	Relaxed PolicyName = "relaxed"
	// Inscrição na newsletter
	Newsletter PolicyName = "newsletter"
)

var policyTable = map[PolicyName]Policy{
	Strict:     {Interval: time.Minute, MaxRequests: 5},
	Standard:   {Interval: time.Minute, MaxRequests: 30},
	Relaxed:    {Interval: time.Minute, MaxRequests: 100},
	Newsletter: {Interval: time.Hour, MaxRequests: 3},
}

// LookupPolicy busca uma política pelo nome na tabela fixa
func LookupPolicy(name PolicyName) (Policy, bool) {
	p, ok := policyTable[name]
	return p, ok
}

// MustPolicy é como LookupPolicy mas entra em pânico para nomes desconhecidos.
// Use apenas com as constantes deste pacote.
func MustPolicy(name PolicyName) Policy {
	p, ok := LookupPolicy(name)
	if !ok {
		panic(fmt.Sprintf("%v: %q", ErrUnknownPolicy, name))
	}
	return p
}

// Policies retorna uma cópia da tabela de políticas
func Policies() map[PolicyName]Policy {
	out := make(map[PolicyName]Policy, len(policyTable))
	for name, p := range policyTable {
		out[name] = p
	}
	return out
}
