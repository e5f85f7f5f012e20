// Package tracker converts the stream of noisy, bursty beacon samples into a
// stable "who is near" view: a bounded table of neighbors with EMA-smoothed
// signal strength and staleness-based expiry.
package tracker

import (
	"sort"
	"sync"
	"time"

	"soulstar.klederson.com/internal/beacon"
	"soulstar.klederson.com/internal/config"
	"soulstar.klederson.com/internal/led"
)

// Neighbor is one currently-tracked peer. Entries are owned exclusively by
// the Table; snapshots hand out copies.
type Neighbor struct {
	PeerID   uint32
	Color    led.RGB
	Smoothed float64 // EMA of received signal strength (dBm)
	LastSeen time.Time
}

// Table is a thread-safe, bounded-capacity map from peer id to Neighbor.
// Size never exceeds the capacity: when a new peer arrives while full, the
// entry with the oldest LastSeen is evicted to make room. The lock is held
// only across individual ingest/sweep/snapshot operations, never across
// anything that blocks.
type Table struct {
	mu        sync.Mutex
	capacity  int
	alpha     float64
	neighbors map[uint32]*Neighbor
}

// New creates an empty table with the default capacity and smoothing factor.
func New() *Table {
	return NewWith(config.MaxNeighbors, config.SmoothingAlpha)
}

// NewWith creates an empty table with explicit tuning, for tests.
func NewWith(capacity int, alpha float64) *Table {
	return &Table{
		capacity:  capacity,
		alpha:     alpha,
		neighbors: make(map[uint32]*Neighbor, capacity),
	}
}

// Ingest folds one received sample into the table at the given time.
// Existing peers are EMA-smoothed and touched; new peers are inserted,
// evicting the oldest entry first if the table is full. Returns true if the
// peer was not present before (an arrival).
func (t *Table) Ingest(s beacon.Sample, now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if n, ok := t.neighbors[s.PeerID]; ok {
		n.Smoothed = t.alpha*float64(s.RSSI) + (1-t.alpha)*n.Smoothed
		n.Color = s.Color
		n.LastSeen = now
		return false
	}

	if len(t.neighbors) >= t.capacity {
		t.evictOldestLocked()
	}

	t.neighbors[s.PeerID] = &Neighbor{
		PeerID:   s.PeerID,
		Color:    s.Color,
		Smoothed: float64(s.RSSI),
		LastSeen: now,
	}
	return true
}

// evictOldestLocked removes the entry with the smallest LastSeen; ties go to
// the smallest peer id so eviction is deterministic.
func (t *Table) evictOldestLocked() {
	var victim *Neighbor
	for _, n := range t.neighbors {
		switch {
		case victim == nil:
			victim = n
		case n.LastSeen.Before(victim.LastSeen):
			victim = n
		case n.LastSeen.Equal(victim.LastSeen) && n.PeerID < victim.PeerID:
			victim = n
		}
	}
	if victim != nil {
		delete(t.neighbors, victim.PeerID)
	}
}

// Sweep removes every entry not seen within the staleness timeout. Returns
// the number of removed entries.
func (t *Table) Sweep(now time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sweepLocked(now)
}

func (t *Table) sweepLocked(now time.Time) int {
	removed := 0
	for id, n := range t.neighbors {
		if now.Sub(n.LastSeen) > config.StalenessTimeout {
			delete(t.neighbors, id)
			removed++
		}
	}
	return removed
}

// Snapshot returns a copy of all entries ordered by peer id.
func (t *Table) Snapshot() []Neighbor {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

func (t *Table) snapshotLocked() []Neighbor {
	out := make([]Neighbor, 0, len(t.neighbors))
	for _, n := range t.neighbors {
		out = append(out, *n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PeerID < out[j].PeerID })
	return out
}

// SweepAndSnapshot expires stale entries and takes the snapshot under a
// single lock acquisition, so no ingest can interleave between the two.
// The render tick calls this once per frame.
func (t *Table) SweepAndSnapshot(now time.Time) []Neighbor {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sweepLocked(now)
	return t.snapshotLocked()
}

// Count returns the number of tracked neighbors.
func (t *Table) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.neighbors)
}
