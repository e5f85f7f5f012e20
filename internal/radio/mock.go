package radio

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"soulstar.klederson.com/internal/beacon"
	"soulstar.klederson.com/internal/led"
)

var mockPeerTemplates = []struct {
	Name  string
	Color led.RGB
}{
	{"amber soul", led.RGB{R: 255, G: 140, B: 0}},
	{"violet soul", led.RGB{R: 160, G: 32, B: 240}},
	{"teal soul", led.RGB{R: 0, G: 200, B: 180}},
	{"crimson soul", led.RGB{R: 220, G: 20, B: 60}},
	{"lime soul", led.RGB{R: 140, G: 255, B: 40}},
	{"ice soul", led.RGB{R: 120, G: 200, B: 255}},
}

type mockPeer struct {
	id        uint32
	color     led.RGB
	baseRSSI  float64
	phase     float64
	amplitude float64
	active    bool
}

// MockDriver simulates a handful of nearby badges without any Bluetooth
// hardware. Peers drift in signal strength sinusoidally with added noise and
// occasionally disappear and come back, and a foreign (non-soulstar) device
// chirps in now and then to exercise the decode-rejection path.
type MockDriver struct {
	mu      sync.Mutex
	peers   []mockPeer
	stop    chan struct{}
	stopped bool
}

// NewMockDriver creates a mock radio with 3-5 fake badges in range.
func NewMockDriver() *MockDriver {
	count := 3 + rand.Intn(3)
	perm := rand.Perm(len(mockPeerTemplates))
	peers := make([]mockPeer, count)
	for i := 0; i < count; i++ {
		tmpl := mockPeerTemplates[perm[i]]
		peers[i] = mockPeer{
			id:        rand.Uint32() | 1, // never zero
			color:     tmpl.Color,
			baseRSSI:  -45 - rand.Float64()*40, // -45 to -85 dBm
			phase:     rand.Float64() * 2 * math.Pi,
			amplitude: 3 + rand.Float64()*8,
			active:    true,
		}
	}
	return &MockDriver{peers: peers, stop: make(chan struct{})}
}

func (d *MockDriver) Init() error { return nil }

// Advertise is a no-op: the fake peers do not listen.
func (d *MockDriver) Advertise(payload []byte, interval time.Duration) error {
	return nil
}

// Scan emits one fluctuating reading per active peer every scan interval.
func (d *MockDriver) Scan(window, interval time.Duration, cb ScanCallback) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	t := 0.0
	for {
		select {
		case <-d.stop:
			return nil
		case <-ticker.C:
			t += interval.Seconds()
			d.emit(t, cb)
		}
	}
}

func (d *MockDriver) emit(t float64, cb ScanCallback) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i := range d.peers {
		p := &d.peers[i]
		if rand.Float64() < 0.002 {
			p.active = !p.active
		}
		if !p.active {
			continue
		}
		rssi := p.baseRSSI + p.amplitude*math.Sin(t*0.5+p.phase) + (rand.Float64()-0.5)*4
		cb(beacon.Encode(p.id, p.color), int16(rssi))
	}

	// A stranger's advertisement, not speaking our protocol.
	if rand.Float64() < 0.1 {
		cb([]byte{0x4C, 0x00, 0x02, 0x15, 0xAA}, int16(-70-rand.Float64()*20))
	}
}

// StopScan unblocks Scan. Safe to call more than once.
func (d *MockDriver) StopScan() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.stopped {
		d.stopped = true
		close(d.stop)
	}
	return nil
}
