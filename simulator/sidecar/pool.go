package sidecar

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/Cogwheel-Validator/spectra-xcm/simulator/xcm"
)

// Pool keeps one transport per chain id, opened on first use and closed when
// the last client bound to the chain disconnects
type Pool struct {
	mu         sync.Mutex
	endpoints  map[string][]string // chain id -> gateway urls, primary first
	transports map[string]*pooled
	httpClient *http.Client
	config     FailoverConfig
}

type pooled struct {
	transport *transport
	refs      int
}

// NewPool creates a pool over the configured gateway endpoints
func NewPool(endpoints map[string][]string, config FailoverConfig) *Pool {
	return &Pool{
		endpoints:  endpoints,
		transports: make(map[string]*pooled),
		httpClient: &http.Client{Timeout: config.Timeout},
		config:     config,
	}
}

// NewClient returns an unbound client
func (p *Pool) NewClient() xcm.ChainClient {
	return newClient(p)
}

func (p *Pool) acquire(chain string) (*transport, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if entry, ok := p.transports[chain]; ok {
		entry.refs++
		return entry.transport, nil
	}
	urls, ok := p.endpoints[chain]
	if !ok || len(urls) == 0 {
		return nil, fmt.Errorf("no gateway endpoints configured for %s", chain)
	}
	t, err := newTransport(chain, urls, p.httpClient, p.config)
	if err != nil {
		return nil, err
	}
	p.transports[chain] = &pooled{transport: t, refs: 1}
	return t, nil
}

func (p *Pool) release(chain string) {
	p.mu.Lock()
	entry, ok := p.transports[chain]
	if !ok {
		p.mu.Unlock()
		return
	}
	entry.refs--
	if entry.refs > 0 {
		p.mu.Unlock()
		return
	}
	delete(p.transports, chain)
	p.mu.Unlock()

	entry.transport.close()
	log.Debug().Str("chain", chain).Msg("Gateway transport closed")
}

// Open reports how many chains currently hold a transport
func (p *Pool) Open() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.transports)
}

// Close shuts every transport regardless of references
func (p *Pool) Close() {
	p.mu.Lock()
	entries := p.transports
	p.transports = make(map[string]*pooled)
	p.mu.Unlock()

	for _, entry := range entries {
		entry.transport.close()
	}
}
