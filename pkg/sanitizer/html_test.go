package sanitizer_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/templatemailer/pkg/sanitizer"
)

func TestPlainText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "paragraphs",
			input: "<p>Hello Alice,</p><p>Welcome aboard.</p>",
			want:  "Hello Alice,\nWelcome aboard.",
		},
		{
			name:  "drops head and style",
			input: "<html><head><title>Welcome</title><style>p{color:red}</style></head><body><p>Hi</p></body></html>",
			want:  "Hi",
		},
		{
			name:  "links keep their target",
			input: `<p>Please <a href="https://example.com/verify" class="btn">verify</a> your email</p>`,
			want:  "Please verify (https://example.com/verify) your email",
		},
		{
			name:  "bare links are not duplicated",
			input: `<a href="https://example.com">https://example.com</a>`,
			want:  "https://example.com",
		},
		{
			name:  "list items",
			input: "<ul><li>one</li><li>two</li></ul>",
			want:  "- one\n- two",
		},
		{
			name:  "entities are decoded",
			input: "<p>Tom &amp; Jerry &lt;3</p>",
			want:  "Tom & Jerry <3",
		},
		{
			name:  "line breaks and whitespace",
			input: "<div>  first   line<br>second\n\n\n\nline </div>",
			want:  "first line\nsecond\n\nline",
		},
		{
			name:  "scripts removed",
			input: `<p>Safe</p><script>alert("xss")</script>`,
			want:  "Safe",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, sanitizer.PlainText(tt.input))
		})
	}
}
