package middleware

import (
	"net/http"
	"strings"
)

// Identidade usada quando nenhum header de proxy está presente
const UnknownClient = "unknown"

// ClientAddress extrai o endereço do cliente dos headers de proxy.
// Ordem: CF-Connecting-IP, X-Real-IP, primeiro item de X-Forwarded-For.
//
// Os headers vêm do cliente a menos que a borda (CDN ou proxy reverso) os sobrescreva;
// este código não autentica sua origem.
func ClientAddress(h http.Header) string {
	if ip := strings.TrimSpace(h.Get("CF-Connecting-IP")); ip != "" {
		return ip
	}

	if ip := strings.TrimSpace(h.Get("X-Real-IP")); ip != "" {
		return ip
	}

	// X-Forwarded-For pode conter múltiplos IPs, pega o primeiro
	if xff := h.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	return UnknownClient
}

// Key monta a chave do rate limit no formato "<purpose>:<client-address>"
func Key(purpose string, h http.Header) string {
	return purpose + ":" + ClientAddress(h)
}
