// Package phone проверяет и нормализует телефоны, которые присылают пользователи.
package phone

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/nyaruka/phonenumbers"
)

const (
	defaultRegion = "RU"
	minLength     = 10
)

var pattern = regexp.MustCompile(`^[\d\s\+\-\(\)]{10,20}$`)

// Valid проверяет телефон, введенный текстом: цифры, пробелы, + - ( ), от 10 до 20 символов.
func Valid(text string) bool {
	text = strings.TrimSpace(text)
	return pattern.MatchString(text) && utf8.RuneCountInString(text) >= minLength
}

// ValidContact проверяет номер из карточки контакта. Формат задает Telegram, поэтому проверяется только длина.
func ValidContact(number string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(number)) >= minLength
}

// NormalizeE164 приводит номер к E.164. Если разобрать номер не удалось, возвращает обрезанный ввод.
func NormalizeE164(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return trimmed
	}

	number, err := phonenumbers.Parse(trimmed, defaultRegion)
	if err != nil {
		return trimmed
	}

	if !phonenumbers.IsValidNumber(number) {
		return trimmed
	}

	return phonenumbers.Format(number, phonenumbers.E164)
}
