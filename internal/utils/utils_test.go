package utils

import (
	"reflect"
	"testing"
)

func TestEscapeMarkdown(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"ivan_petrov", `ivan\_petrov`},
		{"*bold* `code` [link]", "\\*bold\\* \\`code\\` \\[link]"},
		{"Иван (ООО «Ромашка»)", "Иван (ООО «Ромашка»)"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := EscapeMarkdown(tt.in); got != tt.want {
			t.Errorf("EscapeMarkdown(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestChunkStrings(t *testing.T) {
	got := ChunkStrings([]string{"a", "b", "c", "d", "e"}, 2)
	want := [][]string{{"a", "b"}, {"c", "d"}, {"e"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ChunkStrings = %v, want %v", got, want)
	}

	if got := ChunkStrings(nil, 2); len(got) != 0 {
		t.Fatalf("ChunkStrings(nil) = %v", got)
	}
}
