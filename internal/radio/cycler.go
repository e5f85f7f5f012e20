package radio

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"soulstar.klederson.com/internal/beacon"
	"soulstar.klederson.com/internal/config"
	"soulstar.klederson.com/internal/identity"
)

// Cycler time-multiplexes the single radio between advertising the local
// beacon and scanning for peers. It owns the Driver outright; decoded
// samples flow out of Samples() and are never blocked on: a full queue
// drops the sample, which on a lossy wireless medium is indistinguishable
// from a missed packet.
type Cycler struct {
	cfg     Config
	drv     Driver
	ident   identity.Identity
	payload []byte
	samples chan beacon.Sample
	log     *logrus.Entry
}

// New validates the duty-cycle configuration and builds a cycler. A
// configuration that violates the scan window/interval invariant is a fatal
// error reported here, before any radio activity begins.
func New(drv Driver, cfg Config, ident identity.Identity, log *logrus.Logger) (*Cycler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("radio duty-cycle config: %w", err)
	}
	return &Cycler{
		cfg:     cfg,
		drv:     drv,
		ident:   ident,
		payload: beacon.Encode(ident.ID, ident.Color),
		samples: make(chan beacon.Sample, config.SampleQueueDepth),
		log:     log.WithField("component", "radio"),
	}, nil
}

// Samples is the stream of decoded beacons from nearby badges.
func (c *Cycler) Samples() <-chan beacon.Sample {
	return c.samples
}

// Start brings up the radio and launches the advertise and scan duties.
// It returns an error only for the fatal cases: hardware init failure.
// Both duties run until the context is cancelled.
func (c *Cycler) Start(ctx context.Context) error {
	if err := c.drv.Init(); err != nil {
		return fmt.Errorf("radio init: %w", err)
	}
	go c.advertiseLoop(ctx)
	go c.scanLoop(ctx)
	return nil
}

// advertiseLoop keeps the beacon on air. A failed attempt is transient: it
// is logged and retried on the next scheduled cycle, never escalated.
func (c *Cycler) advertiseLoop(ctx context.Context) {
	ticker := time.NewTicker(c.cfg.AdvertisingInterval)
	defer ticker.Stop()

	active := false
	for {
		if !active {
			if err := c.drv.Advertise(c.payload, c.cfg.AdvertisingInterval); err != nil {
				c.log.WithError(err).Warn("advertise attempt failed, retrying next cycle")
			} else {
				active = true
				c.log.WithField("id", fmt.Sprintf("%08X", c.ident.ID)).Info("beacon on air")
			}
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// scanLoop keeps the receiver listening. Scan exits only on StopScan or a
// transient radio error; the latter is retried after one scan interval.
func (c *Cycler) scanLoop(ctx context.Context) {
	stop := context.AfterFunc(ctx, func() { _ = c.drv.StopScan() })
	defer stop()

	for {
		err := c.drv.Scan(c.cfg.ScanWindow, c.cfg.ScanInterval, c.onScan)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			c.log.WithError(err).Warn("scan interrupted, retrying next cycle")
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(c.cfg.ScanInterval):
		}
	}
}

// onScan decodes one raw advertisement. Malformed and foreign payloads are
// dropped where they land; they never propagate past this point.
func (c *Cycler) onScan(raw []byte, rssi int16) {
	p, err := beacon.Decode(raw)
	if err != nil {
		c.log.WithError(err).Debug("dropping payload")
		return
	}
	if p.PeerID == c.ident.ID {
		return // our own beacon reflected back
	}
	s := beacon.Sample{
		PeerID:     p.PeerID,
		Color:      p.Color,
		RSSI:       rssi,
		ReceivedAt: time.Now(),
	}
	select {
	case c.samples <- s:
	default:
		c.log.Debug("sample queue full, dropping sample")
	}
}
