package proxy

import (
	"fmt"
	"math/rand"
	"sync"

	"go.uber.org/zap"
)

// Pool tracks which sessions use which proxy. Each proxy serves at most
// limit sessions. Assignments established at startup stay fixed; Replace is
// the only mutation and takes effect on the next cycle of the session.
type Pool struct {
	mu       sync.Mutex
	limit    int
	proxies  []string
	assigned map[string]string
	logger   *zap.Logger
}

func NewPool(proxies []string, limit int, logger *zap.Logger) *Pool {
	if limit < 1 {
		limit = 1
	}
	return &Pool{
		limit:    limit,
		proxies:  proxies,
		assigned: make(map[string]string),
		logger:   logger,
	}
}

// Bind records an assignment restored from the accounts store so capacity
// counting sees it. The proxy does not have to be in the pool file.
func (p *Pool) Bind(session, proxyURL string) {
	if proxyURL == "" {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.assigned[session] = proxyURL
}

// Assign returns the session's proxy, picking the first one with spare
// capacity on first use.
func (p *Pool) Assign(session string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if current, ok := p.assigned[session]; ok {
		return current, nil
	}

	counts := p.countsLocked()
	for _, proxyURL := range p.proxies {
		if counts[proxyURL] < p.limit {
			p.assigned[session] = proxyURL
			p.logger.Info("Assigned proxy",
				zap.String("account", session),
				zap.String("proxy", proxyURL))
			return proxyURL, nil
		}
	}
	return "", fmt.Errorf("proxy pool exhausted: %d proxies, %d sessions per proxy", len(p.proxies), p.limit)
}

// Replace moves the session onto a different proxy with spare capacity,
// trying candidates in random order. The caller persists the new assignment.
func (p *Pool) Replace(session string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	current := p.assigned[session]
	counts := p.countsLocked()
	counts[current]--

	candidates := make([]string, 0, len(p.proxies))
	for _, proxyURL := range p.proxies {
		if proxyURL != current && counts[proxyURL] < p.limit {
			candidates = append(candidates, proxyURL)
		}
	}
	if len(candidates) == 0 {
		return "", fmt.Errorf("no replacement proxy available")
	}

	next := candidates[rand.Intn(len(candidates))]
	p.assigned[session] = next
	p.logger.Info("Replaced proxy",
		zap.String("account", session),
		zap.String("old", current),
		zap.String("new", next))
	return next, nil
}

// Size returns how many proxies the pool holds.
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.proxies)
}

// Release frees the session's slot.
func (p *Pool) Release(session string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.assigned, session)
}

// Current returns the session's proxy, if any.
func (p *Pool) Current(session string) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	proxyURL, ok := p.assigned[session]
	return proxyURL, ok
}

func (p *Pool) countsLocked() map[string]int {
	counts := make(map[string]int, len(p.proxies))
	for _, proxyURL := range p.assigned {
		counts[proxyURL]++
	}
	return counts
}
