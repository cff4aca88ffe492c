package netx

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOnline_ReachableServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound) // any response counts as online
	}))
	defer srv.Close()

	p := NewProbe(srv.URL)
	assert.True(t, p.Online())
}

func TestOnline_UnreachableServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	p := NewProbe(srv.URL)
	assert.False(t, p.Online())
}

func TestOnline_CachesResult(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
	}))
	defer srv.Close()

	p := NewProbe(srv.URL)
	assert.True(t, p.Online())
	assert.True(t, p.Online())
	assert.Equal(t, 1, hits)
}

func TestOnline_RefreshesAfterTTL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	p := NewProbe(srv.URL)
	assert.True(t, p.Online())

	srv.Close()
	p.checked = time.Now().Add(-probeCacheTTL - time.Second)
	assert.False(t, p.Online())
}
