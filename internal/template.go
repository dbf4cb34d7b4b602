package internal

import (
	"bytes"
	"errors"

	"gopkg.in/yaml.v3"
)

var frontmatterDelimiter = []byte("---")

var errInvalidFrontmatter = errors.New("invalid frontmatter")

// splitFrontmatter separates an optional YAML frontmatter block from the
// template body. Frontmatter values become template-local default variables.
//
//	---
//	greeting: Hello
//	---
//	{{ .greeting }}, {{ .name }}!
func splitFrontmatter(content []byte) (map[string]any, string, error) {
	if !bytes.HasPrefix(content, frontmatterDelimiter) {
		return nil, string(content), nil
	}

	rest := bytes.TrimLeft(content[len(frontmatterDelimiter):], " \t")
	if len(rest) == 0 || (rest[0] != '\n' && rest[0] != '\r') {
		// "---" followed by text is body content, e.g. a horizontal rule.
		return nil, string(content), nil
	}
	rest = bytes.TrimLeft(rest, "\r\n")

	end := closingDelimiter(rest)
	if end < 0 {
		return nil, "", errInvalidFrontmatter
	}

	head := rest[:end]
	body := rest[end+len(frontmatterDelimiter):]
	switch {
	case bytes.HasPrefix(body, []byte("\r\n")):
		body = body[2:]
	case bytes.HasPrefix(body, []byte("\n")):
		body = body[1:]
	}

	if len(bytes.TrimSpace(head)) == 0 {
		return nil, string(body), nil
	}

	var meta map[string]any
	if err := yaml.Unmarshal(head, &meta); err != nil {
		return nil, "", errors.Join(errInvalidFrontmatter, err)
	}
	return meta, string(body), nil
}

// closingDelimiter returns the offset of the first line consisting of "---".
func closingDelimiter(b []byte) int {
	offset := 0
	for len(b) > 0 {
		line := b
		next := len(b)
		if i := bytes.IndexByte(b, '\n'); i >= 0 {
			line = b[:i]
			next = i + 1
		}
		if bytes.Equal(bytes.TrimRight(line, " \t\r"), frontmatterDelimiter) {
			return offset
		}
		offset += next
		b = b[next:]
	}
	return -1
}
