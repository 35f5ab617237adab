package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"sdnview/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// emptyController answers every read with an empty inventory
func emptyController(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	for _, path := range []string{"/v1.0/topology/switches", "/cfg/routers", "/v1.0/topology/links", "/v1.0/topology/hosts", "/hostmap"} {
		mux.HandleFunc("GET "+path, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("[]"))
		})
	}
	mux.HandleFunc("GET /pairs", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"pairs":[]}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(t *testing.T, url string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Controller.URL = url
	cfg.Identity.Database = filepath.Join(t.TempDir(), "sdnview.db")
	return cfg
}

func TestNewWiresObserve(t *testing.T) {
	srv := emptyController(t)
	a, err := New(context.Background(), testConfig(t, srv.URL))
	require.NoError(t, err)
	defer a.Close()

	snap, err := a.Service.Observe(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snap.Unavailable)
	assert.Empty(t, snap.Hosts)

	runs, err := a.Service.Runs(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestNewMemoryStore(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:1")
	cfg.Identity.Database = ""

	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	assert.NoError(t, a.Close())
}

func TestNewRejectsBadLAN(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:1")
	cfg.Reconcile.LANs = []string{"not-a-cidr"}

	_, err := New(context.Background(), cfg)
	assert.Error(t, err)
}

func TestLoadDesired(t *testing.T) {
	srv := emptyController(t)
	cfg := testConfig(t, srv.URL)

	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close()

	// no file configured
	require.NoError(t, a.LoadDesired())
	_, ok := a.Service.Desired()
	assert.False(t, ok)

	path := filepath.Join(t.TempDir(), "desired.yaml")
	require.NoError(t, os.WriteFile(path, []byte("hosts:\n  - {name: h1, ip: 10.0.1.1}\n"), 0o644))
	a.Config.Reconcile.DesiredFile = path

	require.NoError(t, a.LoadDesired())
	desired, ok := a.Service.Desired()
	require.True(t, ok)
	assert.Equal(t, "h1", desired.Hosts[0].Name)

	require.NoError(t, os.WriteFile(path, []byte("hosts:\n  - {name: h1}\n"), 0o644))
	assert.Error(t, a.LoadDesired())

	// the previous state survives a bad reload
	desired, _ = a.Service.Desired()
	assert.Equal(t, "10.0.1.1", desired.Hosts[0].IP)
}
