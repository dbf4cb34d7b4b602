package health_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/templatemailer/pkg/health"
	"github.com/dmitrymomot/templatemailer/pkg/resource"
)

func TestLivenessHandler(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	health.LivenessHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "OK", rec.Body.String())
}

func TestReadinessHandler(t *testing.T) {
	t.Parallel()

	loader := resource.MapLoader{
		"App":   fstest.MapFS{"Private/EmailTemplates/Welcome.html": &fstest.MapFile{}},
		"Empty": fstest.MapFS{"Public/logo.png": &fstest.MapFile{}},
	}

	t.Run("healthy", func(t *testing.T) {
		t.Parallel()

		h := health.ReadinessHandler(health.Checks{
			"templates": health.TemplatePackages(loader, []string{"App"}),
		})
		rec := httptest.NewRecorder()
		h(rec, httptest.NewRequest(http.MethodGet, "/health/ready?format=json", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		var resp health.Response
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		require.Equal(t, health.StatusHealthy, resp.Status)
		require.Equal(t, health.StatusHealthy, resp.Checks["templates"].Status)
	})

	t.Run("unhealthy", func(t *testing.T) {
		t.Parallel()

		h := health.ReadinessHandler(health.Checks{
			"templates": health.TemplatePackages(loader, []string{"App", "Empty", "Missing"}),
			"smtp":      func(context.Context) error { return nil },
		})
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
		req.Header.Set("Accept", "application/json")
		h(rec, req)

		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
		var resp health.Response
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		require.Equal(t, health.StatusUnhealthy, resp.Status)
		require.Contains(t, resp.Checks["templates"].Error, "Empty: no email templates")
		require.Contains(t, resp.Checks["templates"].Error, resource.ErrPackageNotFound.Error())
		require.Equal(t, health.StatusHealthy, resp.Checks["smtp"].Status)
	})
}

func TestRun(t *testing.T) {
	t.Parallel()

	resp, err := health.Run(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, health.StatusHealthy, resp.Status)

	boom := errors.New("boom")
	resp, err = health.Run(context.Background(), health.Checks{
		"redis": func(context.Context) error { return boom },
	})
	require.ErrorIs(t, err, health.ErrCheckFailed)
	require.ErrorContains(t, err, "redis: boom")
	require.Equal(t, health.StatusUnhealthy, resp.Status)

	_, err = health.Run(context.Background(), health.Checks{"templates": health.TemplatePackages(resource.MapLoader{}, nil)})
	require.ErrorIs(t, err, health.ErrCheckFailed)
}

func TestRedis_NilClient(t *testing.T) {
	t.Parallel()

	require.Error(t, health.Redis(nil)(context.Background()))
}
