// Package netx provides a lightweight connectivity probe. The error
// classifier consults it to tell "the network is down" apart from "the
// server misbehaved".
package netx

import (
	"context"
	"net/http"
	"sync"
	"time"
)

const (
	probeTimeout = 2 * time.Second

	// A fresh probe result is reused for this long so a burst of failing
	// requests does not turn into a burst of probes.
	probeCacheTTL = 5 * time.Second
)

// Probe reports whether the backend is reachable. Results are cached
// briefly; safe for concurrent use.
type Probe struct {
	url  string
	http *http.Client

	mu      sync.Mutex
	online  bool
	checked time.Time
}

// NewProbe probes the given URL, normally the API base. A HEAD request that
// gets any HTTP response at all counts as online; only transport failures
// count as offline.
func NewProbe(url string) *Probe {
	return &Probe{
		url:    url,
		http:   &http.Client{Timeout: probeTimeout},
		online: true,
	}
}

// Online reports the cached connectivity state, refreshing it when stale.
func (p *Probe) Online() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if time.Since(p.checked) < probeCacheTTL {
		return p.online
	}

	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.url, nil)
	if err != nil {
		return p.online
	}

	resp, err := p.http.Do(req)
	if err == nil {
		resp.Body.Close()
	}

	p.online = err == nil
	p.checked = time.Now()
	return p.online
}
