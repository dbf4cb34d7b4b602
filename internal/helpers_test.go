package internal_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/templatemailer/internal"
	"github.com/dmitrymomot/templatemailer/pkg/mailer"
	"github.com/dmitrymomot/templatemailer/pkg/resource"
	"github.com/dmitrymomot/templatemailer/pkg/settings"
)

const baseSettings = `
Acme:
  Site:
    baseUri: https://acme.example
    name: Acme
TemplateMailer:
  senderAddresses:
    default:
      address: noreply@acme.example
      name: Acme
    support:
      address: support@acme.example
      name: Acme Support
    nameless:
      address: nameless@acme.example
    addressless:
      name: Nobody
  templatePackages:
    20: Acme.Base
    10: Acme.Site
  defaultTemplateVariables:
    baseUri: Acme.Site.baseUri
    siteName: Acme.Site.name
    missing: Acme.Site.doesNotExist
`

func file(s string) *fstest.MapFile {
	return &fstest.MapFile{Data: []byte(s)}
}

func testPackages() resource.MapLoader {
	return resource.MapLoader{
		"Acme.Site": fstest.MapFS{
			"Private/EmailTemplates/Reset.html": file(`<p>Reset at {{.baseUri}}/reset</p>`),
			"Private/EmailTemplates/Reset.txt":  file(`Reset at {{.baseUri}}/reset`),
		},
		"Acme.Base": fstest.MapFS{
			"Private/EmailTemplates/Welcome.html": file(`<html><head><style>p { color: red; }</style></head><body><p>Hello {{.name}} from {{.siteName}}</p></body></html>`),
			"Private/EmailTemplates/Welcome.txt":  file(`Hello {{.name}} from {{.siteName}}`),
			"Private/EmailTemplates/Reset.html":   file(`<p>base reset</p>`),
			"Private/EmailTemplates/HtmlOnly.html": file(`<html><body><h1>Hi {{.name}}</h1>` +
				`<p>Visit <a href="{{.baseUri}}">our site</a></p></body></html>`),
		},
	}
}

// countingLoader counts Open calls per package.
type countingLoader struct {
	next  resource.Loader
	calls atomic.Int32
}

func (l *countingLoader) Open(ctx context.Context, pkg string) (fs.FS, error) {
	l.calls.Add(1)
	return l.next.Open(ctx, pkg)
}

// recordingTransport records sent messages and answers with a fixed result.
type recordingTransport struct {
	receipt func(*mailer.Message) mailer.Receipt
	err     error
	sent    []*mailer.Message
	mu      sync.Mutex
}

func (t *recordingTransport) Send(_ context.Context, msg *mailer.Message) (mailer.Receipt, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sent = append(t.sent, msg)
	switch {
	case t.receipt != nil:
		return t.receipt(msg), t.err
	case t.err != nil:
		return mailer.Receipt{}, t.err
	}
	return mailer.DeliveredAll(msg, "provider-1"), nil
}

func (t *recordingTransport) last(tb testing.TB) *mailer.Message {
	tb.Helper()
	t.mu.Lock()
	defer t.mu.Unlock()
	require.NotEmpty(tb, t.sent)
	return t.sent[len(t.sent)-1]
}

func loadSettings(t *testing.T, extra ...string) *settings.Settings {
	t.Helper()
	docs := [][]byte{[]byte(baseSettings)}
	for _, e := range extra {
		docs = append(docs, []byte(e))
	}
	s, err := settings.Parse(docs...)
	require.NoError(t, err)
	return s
}

// logBuffer captures JSON log records.
type logBuffer struct {
	buf bytes.Buffer
	mu  sync.Mutex
}

func (b *logBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *logBuffer) logger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(b, nil))
}

func (b *logBuffer) entries(t *testing.T) []map[string]any {
	t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []map[string]any
	sc := bufio.NewScanner(bytes.NewReader(b.buf.Bytes()))
	for sc.Scan() {
		var m map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &m))
		out = append(out, m)
	}
	return out
}

func newService(t *testing.T, tr mailer.Transport, src internal.ConfigurationSource, opts ...internal.Option) *internal.Service {
	t.Helper()
	opts = append([]internal.Option{internal.WithLoader(testPackages())}, opts...)
	svc, err := internal.New(tr, src, opts...)
	require.NoError(t, err)
	return svc
}

func writeTree(t *testing.T, root string, tree fstest.MapFS) {
	t.Helper()
	for name, f := range tree {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, f.Data, 0o600))
	}
}
