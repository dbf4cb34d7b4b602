package main

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/templatemailer/pkg/logger"
)

const testSettings = `
TemplateMailer:
  senderAddresses:
    default: { address: noreply@example.com, name: Example }
    billing: { address: billing@example.com, name: Billing }
  templatePackages:
    10: Acme.Site
    20: Acme.Base
  defaultTemplateVariables:
    siteName: Acme
  log:
    level: error
`

func writeFixture(t *testing.T) (settingsPath, packagesDir string) {
	t.Helper()

	dir := t.TempDir()
	files := map[string]string{
		"settings.yaml": testSettings,
		"packages/Acme.Site/Resources/Private/EmailTemplates/Welcome.html": `<style>p { color: red; }</style><p>Hi {{.name}} from {{.siteName}}</p>`,
		"packages/Acme.Site/Resources/Private/EmailTemplates/Welcome.txt":  `Hi {{.name}} from {{.siteName}}`,
		"packages/Acme.Base/Resources/Private/EmailTemplates/Reset.html":   `<p>Reset</p>`,
		"attachment.txt": "attached",
	}
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return filepath.Join(dir, "settings.yaml"), filepath.Join(dir, "packages")
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	settingsPath, packagesDir := writeFixture(t)
	base := []string{
		"--settings", settingsPath,
		"--env-file", filepath.Join(t.TempDir(), "missing.env"),
		"--packages", packagesDir,
	}

	var out bytes.Buffer
	cmd := newRootCommand(&out, io.Discard)
	cmd.SetArgs(append(args, base...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRenderCommand(t *testing.T) {
	t.Parallel()

	t.Run("html with defaults", func(t *testing.T) {
		t.Parallel()

		out, err := execute(t, "render", "Welcome", "--var", "name=Alice")
		require.NoError(t, err)
		assert.Contains(t, out, "Hi Alice from Acme")
		assert.Contains(t, out, "color: red")
		assert.NotContains(t, out, "<style>")
	})

	t.Run("txt without defaults", func(t *testing.T) {
		t.Parallel()

		out, err := execute(t, "render", "Welcome", "--format", "txt", "--var", "name=Bob", "--no-defaults")
		require.NoError(t, err)
		assert.Contains(t, out, "Hi Bob from")
		assert.NotContains(t, out, "Acme")
	})

	t.Run("no emogrify", func(t *testing.T) {
		t.Parallel()

		out, err := execute(t, "render", "Welcome", "--no-emogrify")
		require.NoError(t, err)
		assert.Contains(t, out, "<style>")
	})

	t.Run("explicit package", func(t *testing.T) {
		t.Parallel()

		_, err := execute(t, "render", "Welcome", "--package", "Acme.Base")
		require.Error(t, err)
	})

	t.Run("invalid variable", func(t *testing.T) {
		t.Parallel()

		_, err := execute(t, "render", "Welcome", "--var", "novalue")
		require.Error(t, err)
	})
}

func TestLocateCommand(t *testing.T) {
	t.Parallel()

	out, err := execute(t, "locate", "Reset")
	require.NoError(t, err)
	assert.Equal(t, "Acme.Base\n", out)

	_, err = execute(t, "locate", "Missing")
	require.Error(t, err)
}

func TestSendCommand(t *testing.T) {
	t.Parallel()

	t.Run("configured sender", func(t *testing.T) {
		t.Parallel()

		out, err := execute(t, "send", "Welcome",
			"--subject", "Welcome aboard",
			"--to", "alice@example.com",
			"--bcc", "audit@example.com",
			"--from", "billing",
			"--var", "name=Alice",
		)
		require.NoError(t, err)
		assert.Contains(t, out, "Subject: Welcome aboard")
		assert.Contains(t, out, "billing@example.com")
		assert.Contains(t, out, "audit@example.com")
	})

	t.Run("explicit sender with attachment", func(t *testing.T) {
		t.Parallel()

		settingsPath, packagesDir := writeFixture(t)
		attachment := filepath.Join(filepath.Dir(settingsPath), "attachment.txt")

		var out bytes.Buffer
		cmd := newRootCommand(&out, io.Discard)
		cmd.SetArgs([]string{
			"send", "Welcome",
			"--subject", "Files",
			"--to", "alice@example.com",
			"--from-address", "ops@example.com",
			"--from-name", "Ops",
			"--attach", attachment,
			"--settings", settingsPath,
			"--env-file", filepath.Join(t.TempDir(), "missing.env"),
			"--packages", packagesDir,
		})
		require.NoError(t, cmd.ExecuteContext(context.Background()))
		assert.Contains(t, out.String(), "ops@example.com")
		assert.Contains(t, out.String(), "attachment.txt")
	})

	t.Run("no recipients", func(t *testing.T) {
		t.Parallel()

		_, err := execute(t, "send", "Welcome", "--subject", "Nobody")
		require.Error(t, err)
	})

	t.Run("unknown sender", func(t *testing.T) {
		t.Parallel()

		_, err := execute(t, "send", "Welcome", "--subject", "Hi", "--to", "alice@example.com", "--from", "ghost")
		require.Error(t, err)
	})
}

func TestParseVars(t *testing.T) {
	t.Parallel()

	vars, err := parseVars([]string{"name=Alice", "link=https://example.com/?a=b", "empty="})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"name":  "Alice",
		"link":  "https://example.com/?a=b",
		"empty": "",
	}, vars)

	_, err = parseVars([]string{"=value"})
	require.Error(t, err)
}

func TestRouter(t *testing.T) {
	t.Parallel()

	settingsPath, packagesDir := writeFixture(t)
	rt := &runtime{
		out:    io.Discard,
		errOut: io.Discard,
		flags: globalFlags{
			settingsFiles: []string{settingsPath},
			root:          "TemplateMailer",
			packagesDir:   packagesDir,
		},
	}
	require.NoError(t, rt.setup(context.Background()))
	t.Cleanup(func() { _ = rt.close() })

	handler, err := rt.router(context.Background())
	require.NoError(t, err)

	tests := []struct {
		path   string
		status int
		body   string
	}{
		{path: "/health/live", status: http.StatusOK},
		{path: "/health/ready", status: http.StatusOK},
		{path: "/preview/Welcome.html?name=Alice", status: http.StatusOK, body: "Hi Alice from Acme"},
		{path: "/preview/Missing.html", status: http.StatusNotFound},
		{path: "/metrics", status: http.StatusOK, body: "templatemailer_"},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
		assert.Equal(t, tt.status, rec.Code, tt.path)
		if tt.body != "" {
			assert.Contains(t, rec.Body.String(), tt.body, tt.path)
		}
	}
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- serve(ctx, ln, http.NotFoundHandler(), time.Second, logger.NewNope())
	}()

	resp, err := http.Get("http://" + ln.Addr().String() + "/")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
