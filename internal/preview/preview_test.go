package preview

import (
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/blogpress/internal/config"
)

func TestResolveContentDir_ErrorsWhenMissing(t *testing.T) {
	cfg := &config.Config{}
	cfg.Content.Root = filepath.Join(t.TempDir(), "does-not-exist")
	_, err := resolveContentDir(cfg)
	require.Error(t, err)
}

func TestResolveContentDir_ErrorsOnFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "content")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	cfg := &config.Config{}
	cfg.Content.Root = file
	_, err := resolveContentDir(cfg)
	require.Error(t, err)
}

func TestResolveContentDir_ReturnsAbsoluteDir(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{}
	cfg.Content.Root = dir

	abs, err := resolveContentDir(cfg)
	require.NoError(t, err)
	require.True(t, filepath.IsAbs(abs))
}

func TestBuildStatusTransitions(t *testing.T) {
	status := &buildStatus{}

	err, good := status.get()
	require.NoError(t, err)
	require.False(t, good)

	status.setError(errors.New("boom"))
	err, good = status.get()
	require.Error(t, err)
	require.False(t, good)

	status.setSuccess()
	err, good = status.get()
	require.NoError(t, err)
	require.True(t, good)

	// A later failure keeps the good-build marker.
	status.setError(errors.New("later"))
	err, good = status.get()
	require.Error(t, err)
	require.True(t, good)
}

func TestStatusHandlerBeforeFirstGoodBuild(t *testing.T) {
	status := &buildStatus{}
	status.setError(errors.New("content root not found"))

	h := statusHandler(t.TempDir(), status)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	require.Equal(t, 503, rec.Code)
	require.Contains(t, rec.Body.String(), "content root not found")
}

func TestStatusHandlerServesSite(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>home</html>"), 0o644))

	status := &buildStatus{}
	status.setSuccess()

	h := statusHandler(dir, status)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	require.Equal(t, 200, rec.Code)
	require.Contains(t, rec.Body.String(), "home")
}

func TestStatusHandlerServesStaleSiteAfterFailure(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>stale but fine</html>"), 0o644))

	status := &buildStatus{}
	status.setSuccess()
	status.setError(errors.New("broken edit"))

	h := statusHandler(dir, status)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	require.Equal(t, 200, rec.Code)
	require.Contains(t, rec.Body.String(), "stale but fine")
}
