package limiter

import (
	"context"
	"time"
)

// Entry guarda a janela em andamento de uma chave
type Entry struct {
	Count   int
	ResetAt time.Time
}

// Expired indica se a janela terminou. No instante exato de ResetAt a janela ainda vale.
func (e Entry) Expired(now time.Time) bool {
	return e.ResetAt.Before(now)
}

// Define a interface para o armazenamento do rate limiter
type Store interface {
	// Take aplica uma requisição à janela da chave de forma atômica e retorna o estado
	// resultante e se a requisição foi admitida
	Take(ctx context.Context, key string, policy Policy, now time.Time) (entry Entry, admitted bool, err error)
	// Close libera os recursos do armazenamento
	Close() error
}

// Advance é o passo de janela fixa compartilhado por todos os backends.
// Uma janela ausente ou expirada é substituída por uma nova com Count 1; uma janela cheia
// nega sem incrementar; caso contrário o contador é incrementado.
func Advance(entry Entry, found bool, policy Policy, now time.Time) (Entry, bool) {
	if !found || entry.Expired(now) {
		return Entry{Count: 1, ResetAt: now.Add(policy.Interval)}, true
	}

	if entry.Count >= policy.MaxRequests {
		return entry, false
	}

	entry.Count++
	return entry, true
}
