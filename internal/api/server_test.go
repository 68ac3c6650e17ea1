package api

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ridwan414/shobdotori/internal/conf"
)

func TestConfigFromSettings(t *testing.T) {
	t.Parallel()

	settings := &conf.Settings{
		WebServer: conf.WebServerSettings{
			Port:           "8080",
			AllowedOrigins: []string{"https://record.example.org"},
			ReadTimeout:    5 * time.Second,
		},
		Upload:  conf.UploadSettings{MaxFileSize: "50MB"},
		Metrics: conf.MetricsSettings{Enabled: true},
	}

	cfg := ConfigFromSettings(settings)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, ":8080", cfg.Address())
	assert.Equal(t, []string{"https://record.example.org"}, cfg.AllowedOrigins)
	assert.Equal(t, 5*time.Second, cfg.ReadTimeout)
	assert.Equal(t, DefaultWriteTimeout, cfg.WriteTimeout)
	assert.Equal(t, "52224K", cfg.BodyLimit)
	assert.True(t, cfg.MetricsEnabled)
	assert.Equal(t, "/metrics", cfg.MetricsPath)
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Port = ""
	require.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.RateLimit = conf.RateLimitSettings{Enabled: true}
	require.Error(t, cfg.Validate())
}

func TestIsAPIPath(t *testing.T) {
	t.Parallel()

	assert.True(t, isAPIPath("/api/dialects", "/metrics"))
	assert.True(t, isAPIPath("/api", "/metrics"))
	assert.True(t, isAPIPath("/health", "/metrics"))
	assert.True(t, isAPIPath("/metrics", "/metrics"))
	assert.False(t, isAPIPath("/apiary", "/metrics"))
	assert.False(t, isAPIPath("/record/dhaka", "/metrics"))
}

func TestSPAMiddleware(t *testing.T) {
	t.Parallel()

	assert.Nil(t, newSPAMiddleware("", ""))
	assert.Nil(t, newSPAMiddleware(t.TempDir(), ""), "directory without index.html")

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, indexHTMLPath), []byte("<html>recorder</html>"), 0o600))
	spa := newSPAMiddleware(dir, "/metrics")
	require.NotNil(t, spa)

	e := echo.New()
	e.Use(spa)
	e.GET("/api/dialects", func(c echo.Context) error {
		return c.String(http.StatusOK, "api")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/record/dhaka", http.NoBody))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "recorder")

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/dialects", http.NoBody))
	assert.Equal(t, "api", rec.Body.String())
}
