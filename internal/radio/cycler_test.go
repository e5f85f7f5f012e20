package radio

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"soulstar.klederson.com/internal/beacon"
	"soulstar.klederson.com/internal/identity"
	"soulstar.klederson.com/internal/led"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func testConfig() Config {
	return Config{
		AdvertisingInterval: 5 * time.Millisecond,
		ScanWindow:          time.Millisecond,
		ScanInterval:        2 * time.Millisecond,
	}
}

var testIdent = identity.Identity{ID: 1, DisplayName: "self", Color: led.RGB{R: 255}}

type emission struct {
	raw  []byte
	rssi int16
}

// scriptedDriver plays back a fixed set of scan results, then blocks until
// StopScan.
type scriptedDriver struct {
	emissions []emission
	initErr   error
	advErr    error

	mu         sync.Mutex
	advertised [][]byte
	advCalls   atomic.Int32
	stop       chan struct{}
	stopOnce   sync.Once
}

func newScriptedDriver(emissions ...emission) *scriptedDriver {
	return &scriptedDriver{emissions: emissions, stop: make(chan struct{})}
}

func (d *scriptedDriver) Init() error { return d.initErr }

func (d *scriptedDriver) Advertise(payload []byte, interval time.Duration) error {
	d.advCalls.Add(1)
	if d.advErr != nil {
		return d.advErr
	}
	d.mu.Lock()
	d.advertised = append(d.advertised, append([]byte(nil), payload...))
	d.mu.Unlock()
	return nil
}

func (d *scriptedDriver) Scan(window, interval time.Duration, cb ScanCallback) error {
	for _, e := range d.emissions {
		cb(e.raw, e.rssi)
	}
	<-d.stop
	return nil
}

func (d *scriptedDriver) StopScan() error {
	d.stopOnce.Do(func() { close(d.stop) })
	return nil
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{200 * time.Millisecond, 30 * time.Millisecond, 50 * time.Millisecond}, false},
		{"window equals interval", Config{200 * time.Millisecond, 50 * time.Millisecond, 50 * time.Millisecond}, true},
		{"window above interval", Config{200 * time.Millisecond, 60 * time.Millisecond, 50 * time.Millisecond}, true},
		{"zero window", Config{200 * time.Millisecond, 0, 50 * time.Millisecond}, true},
		{"zero advertising interval", Config{0, 30 * time.Millisecond, 50 * time.Millisecond}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewRejectsFatalConfigBeforeRadioActivity(t *testing.T) {
	drv := newScriptedDriver()
	cfg := testConfig()
	cfg.ScanWindow = cfg.ScanInterval // fatal

	if _, err := New(drv, cfg, testIdent, testLogger()); err == nil {
		t.Fatal("New() accepted a scan window >= scan interval")
	}
	if drv.advCalls.Load() != 0 {
		t.Error("driver saw radio activity despite fatal configuration")
	}
}

func TestStartSurfacesInitFailure(t *testing.T) {
	drv := newScriptedDriver()
	drv.initErr = io.ErrUnexpectedEOF

	c, err := New(drv, testConfig(), testIdent, testLogger())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := c.Start(context.Background()); err == nil {
		t.Fatal("Start() did not surface radio init failure")
	}
}

func TestPipelineFiltersAndEmitsSamples(t *testing.T) {
	peer := beacon.Encode(42, led.RGB{G: 255})
	own := beacon.Encode(testIdent.ID, testIdent.Color)
	foreign := []byte{0x4C, 0x00, 0x02, 0x15, 0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF}

	drv := newScriptedDriver(
		emission{foreign, -60}, // dropped: bad magic
		emission{own, -20},     // dropped: our own beacon
		emission{peer, -55},    // the one real sample
		emission{nil, -50},     // dropped: too short
	)

	c, err := New(drv, testConfig(), testIdent, testLogger())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := c.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	select {
	case s := <-c.Samples():
		if s.PeerID != 42 {
			t.Errorf("sample PeerID = %d, want 42", s.PeerID)
		}
		if s.RSSI != -55 {
			t.Errorf("sample RSSI = %d, want -55", s.RSSI)
		}
		if (s.Color != led.RGB{G: 255}) {
			t.Errorf("sample Color = %+v, want green", s.Color)
		}
		if s.ReceivedAt.IsZero() {
			t.Error("sample missing ReceivedAt stamp")
		}
	case <-time.After(time.Second):
		t.Fatal("no sample emitted within a second")
	}

	select {
	case s := <-c.Samples():
		t.Fatalf("unexpected extra sample: %+v", s)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestAdvertiseRetriesTransientFailure(t *testing.T) {
	drv := newScriptedDriver()
	drv.advErr = io.ErrClosedPipe

	c, err := New(drv, testConfig(), testIdent, testLogger())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := c.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	deadline := time.After(time.Second)
	for drv.advCalls.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("advertise retried %d times, want at least 3", drv.advCalls.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestAdvertisePayloadIsTheEncodedIdentity(t *testing.T) {
	drv := newScriptedDriver()

	c, err := New(drv, testConfig(), testIdent, testLogger())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := c.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	deadline := time.After(time.Second)
	for {
		drv.mu.Lock()
		n := len(drv.advertised)
		var got []byte
		if n > 0 {
			got = drv.advertised[0]
		}
		drv.mu.Unlock()
		if n > 0 {
			p, err := beacon.Decode(got)
			if err != nil {
				t.Fatalf("advertised payload does not decode: %v", err)
			}
			if p.PeerID != testIdent.ID || p.Color != testIdent.Color {
				t.Fatalf("advertised %+v, want own identity", p)
			}
			return
		}
		select {
		case <-deadline:
			t.Fatal("nothing advertised within a second")
		case <-time.After(5 * time.Millisecond):
		}
	}
}
