package tracker

import (
	"math"
	"testing"
	"time"

	"soulstar.klederson.com/internal/beacon"
	"soulstar.klederson.com/internal/config"
	"soulstar.klederson.com/internal/led"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func sample(id uint32, rssi int16) beacon.Sample {
	return beacon.Sample{PeerID: id, Color: led.RGB{R: uint8(id)}, RSSI: rssi}
}

func TestSizeNeverExceedsCapacity(t *testing.T) {
	tbl := NewWith(4, 0.3)
	for i := uint32(1); i <= 100; i++ {
		tbl.Ingest(sample(i, -50), t0.Add(time.Duration(i)*time.Millisecond))
		if got := tbl.Count(); got > 4 {
			t.Fatalf("after %d ingests Count() = %d, exceeds capacity 4", i, got)
		}
	}
}

func TestNoDuplicateEntries(t *testing.T) {
	tbl := NewWith(8, 0.3)
	for i := 0; i < 50; i++ {
		tbl.Ingest(sample(42, int16(-40-i)), t0.Add(time.Duration(i)*time.Second))
	}
	if got := tbl.Count(); got != 1 {
		t.Errorf("Count() = %d, want 1 entry for repeated peer", got)
	}
	snap := tbl.Snapshot()
	if len(snap) != 1 || snap[0].PeerID != 42 {
		t.Errorf("Snapshot() = %+v, want single entry for peer 42", snap)
	}
}

func TestIngestReportsArrival(t *testing.T) {
	tbl := NewWith(4, 0.3)
	if !tbl.Ingest(sample(1, -50), t0) {
		t.Error("first ingest of a peer should report an arrival")
	}
	if tbl.Ingest(sample(1, -50), t0.Add(time.Second)) {
		t.Error("repeat ingest of a peer should not report an arrival")
	}
}

func TestEvictionRemovesOldest(t *testing.T) {
	// Table with capacity 2 holding {A: last_seen=5, B: last_seen=10};
	// ingesting C at 12 must evict A.
	tbl := NewWith(2, 0.3)
	tbl.Ingest(sample(0xA, -50), t0.Add(5*time.Second))
	tbl.Ingest(sample(0xB, -50), t0.Add(10*time.Second))
	tbl.Ingest(sample(0xC, -50), t0.Add(12*time.Second))

	snap := tbl.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("Count() = %d, want 2", len(snap))
	}
	if snap[0].PeerID != 0xB || snap[1].PeerID != 0xC {
		t.Errorf("after eviction got peers %#x, %#x, want B and C", snap[0].PeerID, snap[1].PeerID)
	}
}

func TestEvictionTieBreaksOnSmallestPeerID(t *testing.T) {
	tbl := NewWith(2, 0.3)
	seen := t0.Add(5 * time.Second)
	tbl.Ingest(sample(9, -50), seen)
	tbl.Ingest(sample(3, -50), seen) // same last_seen as peer 9
	tbl.Ingest(sample(7, -50), t0.Add(6*time.Second))

	snap := tbl.Snapshot()
	ids := []uint32{snap[0].PeerID, snap[1].PeerID}
	if ids[0] != 7 || ids[1] != 9 {
		t.Errorf("got peers %v, want [7 9]: tie must evict the smallest peer id", ids)
	}
}

func TestSweepStalenessBoundary(t *testing.T) {
	tests := []struct {
		name    string
		at      time.Time
		present bool
	}{
		{"immediately", t0, true},
		{"just inside", t0.Add(config.StalenessTimeout), true},
		{"just past", t0.Add(config.StalenessTimeout + time.Nanosecond), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl := New()
			tbl.Ingest(sample(1, -50), t0)
			tbl.Sweep(tt.at)
			if got := tbl.Count() == 1; got != tt.present {
				t.Errorf("present after sweep = %v, want %v", got, tt.present)
			}
		})
	}
}

func TestSmoothingConvergesAndStaysBounded(t *testing.T) {
	tbl := NewWith(4, config.SmoothingAlpha)
	tbl.Ingest(sample(1, -80), t0)

	for i := 1; i <= 40; i++ {
		tbl.Ingest(sample(1, -50), t0.Add(time.Duration(i)*time.Second))
		s := tbl.Snapshot()[0].Smoothed
		if s < -80 || s > -50 {
			t.Fatalf("after %d samples Smoothed = %v, outside [-80, -50]", i, s)
		}
	}
	if s := tbl.Snapshot()[0].Smoothed; math.Abs(s-(-50)) > 0.01 {
		t.Errorf("Smoothed = %v, want convergence to -50", s)
	}
}

func TestSmoothingWeighsRecentSample(t *testing.T) {
	tbl := NewWith(4, 0.3)
	tbl.Ingest(sample(1, -60), t0)
	tbl.Ingest(sample(1, -40), t0.Add(time.Second))

	want := 0.3*(-40) + 0.7*(-60)
	if got := tbl.Snapshot()[0].Smoothed; math.Abs(got-want) > 1e-9 {
		t.Errorf("Smoothed = %v, want %v", got, want)
	}
}

func TestSnapshotOrderedByPeerID(t *testing.T) {
	tbl := New()
	for _, id := range []uint32{9, 2, 7, 1, 5} {
		tbl.Ingest(sample(id, -50), t0)
	}
	snap := tbl.Snapshot()
	for i := 1; i < len(snap); i++ {
		if snap[i-1].PeerID >= snap[i].PeerID {
			t.Fatalf("snapshot not ordered by peer id: %v before %v", snap[i-1].PeerID, snap[i].PeerID)
		}
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	tbl := New()
	tbl.Ingest(sample(1, -50), t0)
	snap := tbl.Snapshot()
	snap[0].Smoothed = -1

	if got := tbl.Snapshot()[0].Smoothed; got != -50 {
		t.Errorf("mutating a snapshot changed the table: Smoothed = %v", got)
	}
}

func TestIngestThenExpireScenario(t *testing.T) {
	// One sample from peer 2 at t=1000, snapshot holds exactly that entry;
	// a sweep just past the staleness timeout empties the table.
	tbl := New()
	now := t0.Add(1000 * time.Second)
	tbl.Ingest(beacon.Sample{PeerID: 2, Color: led.RGB{G: 255}, RSSI: -40}, now)

	snap := tbl.SweepAndSnapshot(now)
	if len(snap) != 1 || snap[0].PeerID != 2 || snap[0].Smoothed != -40 {
		t.Fatalf("SweepAndSnapshot() = %+v, want one entry for peer 2 at -40", snap)
	}

	snap = tbl.SweepAndSnapshot(now.Add(config.StalenessTimeout + time.Second))
	if len(snap) != 0 {
		t.Errorf("after expiry SweepAndSnapshot() = %+v, want empty", snap)
	}
}
