// Package app wires the radio duty cycler, the proximity tracker and the
// render engine into the three periodic activities of the badge: advertise,
// ingest and render. None of them ever blocks another; the render tick
// always works from the last valid snapshot, and ingestion never waits on
// rendering.
package app

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"soulstar.klederson.com/internal/config"
	"soulstar.klederson.com/internal/identity"
	"soulstar.klederson.com/internal/led"
	"soulstar.klederson.com/internal/radio"
	"soulstar.klederson.com/internal/render"
	"soulstar.klederson.com/internal/tracker"
)

// StatusSink is an optional extension of led.Sink for outputs that can also
// display badge status alongside the frame (the terminal visualizer does).
type StatusSink interface {
	Status(neighbors int, brightness uint8, paused bool)
}

// Badge is the orchestrator. Construct with New, then Run until the context
// is cancelled or a fatal startup error occurs.
type Badge struct {
	ident  identity.Identity
	table  *tracker.Table
	cycler *radio.Cycler
	sink   led.Sink
	cmds   chan any
	log    *logrus.Entry

	brightness uint8
}

// New builds the badge around an already-validated cycler and a sink.
func New(ident identity.Identity, cycler *radio.Cycler, sink led.Sink, brightness uint8, log *logrus.Logger) *Badge {
	return &Badge{
		ident:      ident,
		table:      tracker.New(),
		cycler:     cycler,
		sink:       sink,
		cmds:       make(chan any, 8),
		log:        log.WithField("component", "app"),
		brightness: brightness,
	}
}

// Commands is the display control channel.
func (b *Badge) Commands() chan<- any {
	return b.cmds
}

// Run starts the radio duties and the ingest loop, then runs the render loop
// in the calling goroutine until the context is cancelled. Only fatal
// startup errors are returned; everything transient is handled where it
// happens.
func (b *Badge) Run(ctx context.Context) error {
	b.log.WithField("identity", b.ident.String()).Info("badge starting")

	if err := b.cycler.Start(ctx); err != nil {
		return err
	}
	go b.ingestLoop(ctx)
	b.renderLoop(ctx)
	return nil
}

// ingestLoop drains decoded samples into the tracker.
func (b *Badge) ingestLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case s := <-b.cycler.Samples():
			if b.table.Ingest(s, time.Now()) {
				b.log.WithFields(logrus.Fields{
					"peer": s.PeerID,
					"rssi": s.RSSI,
				}).Info("new soul in range")
			}
		}
	}
}

// renderLoop is the fixed-tick display driver: every frame period it runs
// sweep -> snapshot -> render -> push, in that order, and services display
// commands in between ticks.
func (b *Badge) renderLoop(ctx context.Context) {
	ticker := time.NewTicker(config.FramePeriod)
	defer ticker.Stop()

	var (
		tick        uint64
		running     = true
		torch       bool
		present     = map[uint32]struct{}{}
		sparkleOver = map[uint32]uint64{}
	)

	for {
		select {
		case <-ctx.Done():
			return

		case cmd := <-b.cmds:
			switch c := cmd.(type) {
			case Pause:
				running = false
			case Resume:
				running, torch = true, false
			case Off:
				running = false
				b.show(make(led.Frame, config.LEDCount))
			case Torch:
				torch = c.On
				running = !c.On
				if torch {
					b.show(torchFrame(b.brightness))
				}
			case SetBrightness:
				b.brightness = c.Level
				if torch {
					b.show(torchFrame(b.brightness))
				}
			}
			b.status(b.table.Count(), !running)

		case <-ticker.C:
			if !running {
				continue
			}
			now := time.Now()
			neighbors := b.table.SweepAndSnapshot(now)

			// Arrivals sparkle for a short burst; departures just fade out.
			seen := make(map[uint32]struct{}, len(neighbors))
			for _, n := range neighbors {
				seen[n.PeerID] = struct{}{}
				if _, ok := present[n.PeerID]; !ok {
					sparkleOver[n.PeerID] = tick + config.ArrivalSparkleTicks
				}
			}
			present = seen

			bursting := sparkling(sparkleOver, seen, tick)
			frame := led.Finalize(render.Frame(b.ident, neighbors, bursting, tick), b.brightness)
			if len(neighbors) == 0 {
				frame = led.FloorChannels(frame, b.ident.Color, config.IdleGlowFloor)
			}
			b.show(frame)
			b.status(len(neighbors), false)
			tick++
		}
	}
}

// sparkling collects the peers whose arrival burst is still live, pruning
// finished and departed ones as it goes.
func sparkling(over map[uint32]uint64, seen map[uint32]struct{}, tick uint64) []uint32 {
	var out []uint32
	for id, until := range over {
		if _, here := seen[id]; !here || tick >= until {
			delete(over, id)
			continue
		}
		out = append(out, id)
	}
	return out
}

// status forwards badge state to sinks that can display it.
func (b *Badge) status(neighbors int, paused bool) {
	if ss, ok := b.sink.(StatusSink); ok {
		ss.Status(neighbors, b.brightness, paused)
	}
}

// show pushes one frame. Sink errors are transient: logged and retried
// naturally on the next tick.
func (b *Badge) show(f led.Frame) {
	if err := b.sink.Show(f); err != nil {
		b.log.WithError(err).Warn("frame push failed")
	}
}

func torchFrame(brightness uint8) led.Frame {
	f := make(led.Frame, config.LEDCount)
	white := led.Scale(led.RGB{R: 255, G: 255, B: 255}, brightness)
	for i := range f {
		f[i] = white
	}
	return f
}
