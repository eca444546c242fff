package runner

import (
	"sort"
	"sync"
	"time"

	"sleepchann/game"
)

// SessionStats is one account's live counters as shown by the report bot.
type SessionStats struct {
	Name      string
	Phase     Phase
	Proxy     string
	Cycles    int
	Actions   map[string]int
	LastCycle time.Time
	NextCycle time.Time
	LastError string

	Gems         int64
	Gold         int64
	GreenStones  int64
	PurpleStones int64
	GachaTokens  int64
	Points       int64
}

// Collector aggregates stats across runners. All methods are safe for
// concurrent use; a nil Collector discards everything.
type Collector struct {
	mu       sync.RWMutex
	sessions map[string]*SessionStats
}

func NewCollector() *Collector {
	return &Collector{sessions: make(map[string]*SessionStats)}
}

func (c *Collector) entryLocked(name string) *SessionStats {
	st, ok := c.sessions[name]
	if !ok {
		st = &SessionStats{Name: name, Actions: make(map[string]int)}
		c.sessions[name] = st
	}
	return st
}

func (c *Collector) SetPhase(name string, p Phase) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entryLocked(name).Phase = p
}

func (c *Collector) SetProxy(name, proxyURL string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entryLocked(name).Proxy = proxyURL
}

// ActionDone counts one executed action by kind.
func (c *Collector) ActionDone(name, kind string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entryLocked(name).Actions[kind]++
}

// CycleDone records a finished cycle with the balances it ended on.
func (c *Collector) CycleDone(name string, st *game.State, next time.Time) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.entryLocked(name)
	e.Cycles++
	e.LastCycle = time.Now()
	e.NextCycle = next
	e.LastError = ""
	if st != nil {
		e.Gems = st.Gems
		e.Gold = st.Gold
		e.GreenStones = st.GreenStones
		e.PurpleStones = st.PurpleStones
		e.GachaTokens = st.GachaTokens
		e.Points = st.Points
	}
}

func (c *Collector) Fail(name string, err error) {
	if c == nil || err == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entryLocked(name).LastError = err.Error()
}

// Snapshot copies every session's stats, sorted by name.
func (c *Collector) Snapshot() []SessionStats {
	if c == nil {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]SessionStats, 0, len(c.sessions))
	for _, st := range c.sessions {
		copied := *st
		copied.Actions = make(map[string]int, len(st.Actions))
		for k, v := range st.Actions {
			copied.Actions[k] = v
		}
		out = append(out, copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
