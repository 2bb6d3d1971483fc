package security

import "testing"

func TestTextSanitizer_Sanitize(t *testing.T) {
	s := NewTextSanitizer()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain text unchanged",
			input: "hello world",
			want:  "hello world",
		},
		{
			name:  "strips html tags keeps text",
			input: "<b>bold</b> and <i>italic</i>",
			want:  "bold and italic",
		},
		{
			name:  "removes script element including content",
			input: "<script>alert(1)</script>safe text",
			want:  "safe text",
		},
		{
			name:  "trims surrounding whitespace",
			input: "  \t spaced out \n ",
			want:  "spaced out",
		},
		{
			name:  "unescapes entities back to plain text",
			input: "fish &amp; chips",
			want:  "fish & chips",
		},
		{
			name:  "img onerror attribute removed",
			input: `before<img src=x onerror="alert(1)">after`,
			want:  "beforeafter",
		},
		{
			name:  "empty input",
			input: "",
			want:  "",
		},
		{
			name:  "tag only input becomes empty",
			input: "<div></div>",
			want:  "",
		},
		{
			name:  "japanese text unchanged",
			input: "今日はいい天気です",
			want:  "今日はいい天気です",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.Sanitize(tt.input); got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestTextSanitizer_Idempotent(t *testing.T) {
	s := NewTextSanitizer()

	input := "<p>once is  enough</p>"
	first := s.Sanitize(input)
	second := s.Sanitize(first)

	if first != second {
		t.Errorf("Sanitize is not idempotent: first = %q, second = %q", first, second)
	}
}
