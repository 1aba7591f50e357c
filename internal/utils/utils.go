package utils

import (
	"strings"
)

// EscapeMarkdown экранирует спецсимволы разметки Markdown (legacy) в пользовательском тексте.
func EscapeMarkdown(text string) string {
	// Создаем карту замен для специальных символов
	replacements := map[rune]string{
		'_': "\\_",
		'*': "\\*",
		'`': "\\`",
		'[': "\\[",
	}

	// Буфер для построения результата
	var result strings.Builder
	for _, char := range text {
		if replacement, exists := replacements[char]; exists {
			result.WriteString(replacement)
		} else {
			result.WriteRune(char)
		}
	}

	return result.String()
}

// ChunkStrings раскладывает элементы по строкам фиксированной ширины.
func ChunkStrings(items []string, size int) [][]string {
	if size <= 0 {
		size = 1
	}
	rows := make([][]string, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		rows = append(rows, items[start:end])
	}
	return rows
}
