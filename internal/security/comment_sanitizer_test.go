package security

import "testing"

// TestCommentSanitizer_Sanitize はHTMLタグの除去と空白のトリムを検証する。
func TestCommentSanitizer_Sanitize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain text", "great movie", "great movie"},
		{"script tag", `<script>alert("xss")</script>loved it`, "loved it"},
		{"nested markup", "<b><i>bold</i></b> text", "bold text"},
		{"event attribute", `<img src=x onerror=alert(1)>caption`, "caption"},
		{"whitespace trim", "  padded  ", "padded"},
		{"markup only", "<div></div>", ""},
		{"empty", "", ""},
	}

	s := NewCommentSanitizer()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.Sanitize(tt.input); got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// TestCommentSanitizer_Idempotent は同一入力に対して常に同一出力を返すことを検証する。
func TestCommentSanitizer_Idempotent(t *testing.T) {
	s := NewCommentSanitizer()

	input := `<p>hello</p> world`
	first := s.Sanitize(input)
	second := s.Sanitize(first)

	if first != second {
		t.Errorf("sanitize is not idempotent: %q -> %q", first, second)
	}
}
