package response

import (
	"golang.org/x/text/language"
)

// O primeiro idioma é o padrão do matcher
var supportedLanguages = []language.Tag{
	language.English,
	language.BrazilianPortuguese,
	language.Spanish,
}

var rateLimitMessages = []string{
	"you have reached the maximum number of requests or actions allowed within a certain time frame",
	"você atingiu o número máximo de requisições ou ações permitidas em um determinado período",
	"has alcanzado el número máximo de solicitudes o acciones permitidas en un período de tiempo",
}

var matcher = language.NewMatcher(supportedLanguages)

// RateLimitMessage escolhe a mensagem do 429 a partir do header Accept-Language
func RateLimitMessage(acceptLanguage string) string {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return rateLimitMessages[0]
	}

	_, index, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return rateLimitMessages[0]
	}
	return rateLimitMessages[index]
}
