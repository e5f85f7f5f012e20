// Package render maps a neighbor snapshot into a full LED frame. Frame is a
// pure function of (own identity, snapshot, sparkling peers, tick counter):
// identical inputs always produce identical frames, which is what makes the
// engine testable without hardware. Pushing the result to the strip is the
// caller's job.
package render

import (
	"crypto/sha256"
	"encoding/binary"
	"math/rand"

	"soulstar.klederson.com/internal/config"
	"soulstar.klederson.com/internal/identity"
	"soulstar.klederson.com/internal/led"
	"soulstar.klederson.com/internal/tracker"
)

// Frame computes the logical frame for one render tick. Gamma correction and
// the global brightness are applied later, when the frame is finalized for
// the sink.
//
// Each present peer paints an arc of pixels: position derived from a hash of
// its peer id (stable across ticks), width and intensity from its closeness.
// Arcs are additively blended with channel saturation and the whole frame
// rotates slowly with the tick counter. An empty snapshot falls back to the
// idle breathing pattern in the badge's own color, so "alive, none detected"
// never looks like a dead badge.
func Frame(ident identity.Identity, neighbors []tracker.Neighbor, sparkling []uint32, tick uint64) led.Frame {
	if len(neighbors) == 0 {
		return idleFrame(ident, tick)
	}

	frame := make(led.Frame, config.LEDCount)
	for _, n := range neighbors {
		paintArc(frame, n)
	}

	rotate(frame, int((tick/config.RotationTicks)%config.LEDCount))

	for _, id := range sparkling {
		if n, ok := findNeighbor(neighbors, id); ok {
			overlaySparkle(frame, n, tick)
		}
	}
	return frame
}

// Closeness converts a smoothed signal strength into [0,1]: 0 at
// config.StrengthFar and below, 1 at config.StrengthNear and above,
// monotonic in between.
func Closeness(smoothed float64) float64 {
	c := (smoothed - config.StrengthFar) / (config.StrengthNear - config.StrengthFar)
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

// PeerPixel derives a stable pixel position for a peer from a hash of its
// id, so a peer keeps its place on the strip between ticks.
func PeerPixel(peerID uint32) int {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], peerID)
	h := sha256.Sum256(b[:])
	return int(binary.BigEndian.Uint32(h[:4]) % config.LEDCount)
}

// paintArc blends one neighbor's contribution into the frame.
func paintArc(frame led.Frame, n tracker.Neighbor) {
	c := Closeness(n.Smoothed)
	center := PeerPixel(n.PeerID)
	half := int(c * float64(config.LEDCount/6)) // up to a third of the strip wide

	for d := -half; d <= half; d++ {
		// Linear taper from full weight at the center to the arc edge.
		w := c * (1 - float64(abs(d))/float64(half+1))
		idx := wrap(center + d)
		frame[idx] = led.Add(frame[idx], led.Scale(n.Color, uint8(w*255)))
	}
}

// overlaySparkle marks a freshly arrived peer with random per-pixel
// brightness of its color. Seeded from the tick and peer id so the effect
// stays reproducible.
func overlaySparkle(frame led.Frame, n tracker.Neighbor, tick uint64) {
	rng := rand.New(rand.NewSource(int64(tick)<<32 | int64(n.PeerID)))
	for i := range frame {
		frame[i] = led.Add(frame[i], led.Scale(n.Color, uint8(rng.Intn(256))))
	}
}

// idleFrame is the breathing pattern: every pixel in the badge's own color,
// brightness walking a triangle wave between the idle floor and ceiling.
func idleFrame(ident identity.Identity, tick uint64) led.Frame {
	const span = config.IdleCeiling - config.IdleFloor
	phase := (tick * config.IdleStep) % (2 * span)
	level := phase
	if phase >= span {
		level = 2*span - phase
	}
	b := uint8(config.IdleFloor + level)

	frame := make(led.Frame, config.LEDCount)
	px := led.Scale(ident.Color, b)
	for i := range frame {
		frame[i] = px
	}
	return frame
}

func rotate(frame led.Frame, by int) {
	if by == 0 || len(frame) == 0 {
		return
	}
	by %= len(frame)
	tmp := make(led.Frame, len(frame))
	copy(tmp, frame)
	for i, px := range tmp {
		frame[(i+by)%len(frame)] = px
	}
}

func findNeighbor(neighbors []tracker.Neighbor, id uint32) (tracker.Neighbor, bool) {
	for _, n := range neighbors {
		if n.PeerID == id {
			return n, true
		}
	}
	return tracker.Neighbor{}, false
}

func wrap(i int) int {
	i %= config.LEDCount
	if i < 0 {
		i += config.LEDCount
	}
	return i
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
