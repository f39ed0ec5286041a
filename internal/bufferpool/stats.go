package bufferpool

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// Stats is a point-in-time snapshot of pool occupancy, used by
// cmd/indexdump and by tests asserting pin conservation.
type Stats struct {
	SessionID   string
	Capacity    int
	Resident    int
	Pinned      int
	Dirty       int
	Hits        int64
	Misses      int64
	Evictions   int64
	BytesCached int64
}

// Stats returns a snapshot of the pool's current state.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := Stats{
		SessionID: p.sessionID.String(),
		Capacity:  len(p.frames),
		Hits:      p.hits,
		Misses:    p.misses,
		Evictions: p.evictions,
	}
	for i := range p.frames {
		f := &p.frames[i]
		if !f.PageID.IsValid() {
			continue
		}
		s.Resident++
		if f.PinCount > 0 {
			s.Pinned++
		}
		if f.Dirty {
			s.Dirty++
		}
		s.BytesCached += int64(len(f.Data))
	}
	return s
}

// String renders the snapshot in human-readable units for diagnostic
// output.
func (s Stats) String() string {
	hitRate := 0.0
	if total := s.Hits + s.Misses; total > 0 {
		hitRate = float64(s.Hits) / float64(total) * 100
	}
	return fmt.Sprintf(
		"pool[%s] resident=%d/%d pinned=%d dirty=%d cached=%s hit_rate=%.1f%% evictions=%d",
		s.SessionID[:8], s.Resident, s.Capacity, s.Pinned, s.Dirty,
		humanize.Bytes(uint64(s.BytesCached)), hitRate, s.Evictions,
	)
}

// SessionID returns the pool's uuid, included in diagnostic log lines so
// multiple pools in one process (as in tests) can be told apart.
func (p *Pool) SessionID() string { return p.sessionID.String() }
