package internal

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitFrontmatter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		wantMeta map[string]any
		wantBody string
		wantErr  bool
	}{
		{
			name:     "no frontmatter",
			input:    "Hello {{.name}}",
			wantBody: "Hello {{.name}}",
		},
		{
			name:     "with frontmatter",
			input:    "---\ngreeting: Hi\ncount: 2\n---\nBody",
			wantMeta: map[string]any{"greeting": "Hi", "count": 2},
			wantBody: "Body",
		},
		{
			name:     "crlf line endings",
			input:    "---\r\ngreeting: Hi\r\n---\r\nBody",
			wantMeta: map[string]any{"greeting": "Hi"},
			wantBody: "Body",
		},
		{
			name:     "empty frontmatter",
			input:    "---\n---\nBody",
			wantBody: "Body",
		},
		{
			name:     "dashes inside values",
			input:    "---\ntitle: a---b\n---\nBody --- more",
			wantMeta: map[string]any{"title": "a---b"},
			wantBody: "Body --- more",
		},
		{
			name:     "horizontal rule is body",
			input:    "--- not frontmatter",
			wantBody: "--- not frontmatter",
		},
		{
			name:    "unclosed",
			input:   "---\ngreeting: Hi\nBody",
			wantErr: true,
		},
		{
			name:    "invalid yaml",
			input:   "---\n: [\n---\nBody",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			meta, body, err := splitFrontmatter([]byte(tt.input))
			if tt.wantErr {
				require.ErrorIs(t, err, errInvalidFrontmatter)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.wantBody, body)
			if tt.wantMeta == nil {
				require.Empty(t, meta)
			} else {
				require.Equal(t, tt.wantMeta, meta)
			}
		})
	}
}

func TestConfig_Packages(t *testing.T) {
	t.Parallel()

	cfg := Config{TemplatePackages: map[string]string{
		"10":   "Ten",
		"9":    "Nine",
		"b":    "B",
		"a":    "A",
		"100":  "Hundred",
		"skip": "",
	}}
	require.Equal(t, []string{"Nine", "Ten", "Hundred", "A", "B"}, cfg.Packages())

	mixed := Config{TemplatePackages: map[string]string{
		"2":  "Two",
		"10": "Ten",
		"1a": "OneA",
		"-3": "MinusThree",
		"b":  "B",
	}}
	want := []string{"MinusThree", "Two", "Ten", "OneA", "B"}
	for range 50 {
		require.Equal(t, want, mixed.Packages())
	}
}
