package http

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// DefaultMaxConnsPerHost bounds concurrent verifications per facilitator host.
const DefaultMaxConnsPerHost = 32

// hostPool is the connection pool for one facilitator host. The semaphore
// admits callers in FIFO order and caps in-flight requests at the transport's
// connection limit, so a request never waits inside the transport itself.
type hostPool struct {
	transport *http.Transport
	client    *http.Client
	slots     *semaphore.Weighted
}

// acquire waits for a free slot until ctx is done.
func (h *hostPool) acquire(ctx context.Context) error {
	return h.slots.Acquire(ctx, 1)
}

func (h *hostPool) release() {
	h.slots.Release(1)
}

// pool maps facilitator hosts to their connection pools. The mutex guards
// only the map and is never held across network I/O.
type pool struct {
	mu     sync.Mutex
	hosts  map[string]*hostPool
	size   int
	closed bool

	newTransport func(size int) *http.Transport
}

func newPool(size int) *pool {
	if size <= 0 {
		size = DefaultMaxConnsPerHost
	}
	return &pool{
		hosts:        make(map[string]*hostPool),
		size:         size,
		newTransport: defaultTransport,
	}
}

func defaultTransport(size int) *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxConnsPerHost:       size,
		MaxIdleConns:          size,
		MaxIdleConnsPerHost:   size,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: time.Second,
	}
}

// get returns the pool for host, creating it on first use. It reports false
// once the pool has been closed.
func (p *pool) get(host string) (*hostPool, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, false
	}
	if hp, ok := p.hosts[host]; ok {
		return hp, true
	}

	transport := p.newTransport(p.size)
	hp := &hostPool{
		transport: transport,
		// Deadlines come from the request context; the client sets none of its own.
		client: &http.Client{
			Transport: transport,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		slots: semaphore.NewWeighted(int64(p.size)),
	}
	p.hosts[host] = hp
	return hp, true
}

// close drops idle connections of every host and refuses new checkouts.
// In-flight requests finish on their own connections.
func (p *pool) close() {
	p.mu.Lock()
	hosts := p.hosts
	p.hosts = make(map[string]*hostPool)
	p.closed = true
	p.mu.Unlock()

	for _, hp := range hosts {
		hp.transport.CloseIdleConnections()
	}
}
