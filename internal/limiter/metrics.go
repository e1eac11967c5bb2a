package limiter

import "strings"

// Metrics recebe os eventos do limiter. purpose é o prefixo da chave antes do primeiro ':'.
type Metrics interface {
	RecordDecision(purpose string, allowed bool)
	RecordStoreError(purpose string)
	RecordSweep(removed, active int)
}

type NoopMetrics struct{}

func (NoopMetrics) RecordDecision(string, bool) {}
func (NoopMetrics) RecordStoreError(string)     {}
func (NoopMetrics) RecordSweep(int, int)        {}

// Purpose extrai o propósito de uma chave no formato "<purpose>:<client-address>"
func Purpose(key string) string {
	if i := strings.IndexByte(key, ':'); i >= 0 {
		return key[:i]
	}
	return key
}
