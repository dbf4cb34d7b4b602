// Package inliner moves CSS rules from <style> blocks into inline style
// attributes, the form most email clients require.
//
// Rules that cannot be inlined (media queries, pseudo-classes) stay in a
// <style> block; a block whose rules were all inlined is removed.
package inliner

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aymerick/douceur/inliner"
)

// ErrInlineFailed is returned when the document or its stylesheet cannot be parsed.
var ErrInlineFailed = errors.New("inliner: failed to inline css")

// Inliner inlines CSS into HTML documents. The zero value is ready to use.
type Inliner struct{}

// New returns an Inliner.
func New() *Inliner {
	return &Inliner{}
}

// Inline returns html with its stylesheet rules applied as style attributes.
// Documents without a <style> element are returned unchanged.
func (*Inliner) Inline(html string) (string, error) {
	if !strings.Contains(strings.ToLower(html), "<style") {
		return html, nil
	}

	out, err := inliner.Inline(html)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInlineFailed, err)
	}
	return out, nil
}
