package radio

import (
	"fmt"
	"time"
)

// ScanCallback receives one raw advertisement payload and its signal
// strength reading, as they arrive.
type ScanCallback func(raw []byte, rssi int16)

// Driver is the narrow interface over the physical radio. The duty cycler is
// the only component that talks to it, so the advertise and scan duties can
// never be configured into a state that violates the stack's timing
// invariant from outside.
type Driver interface {
	// Init brings up the radio hardware. Failure is fatal.
	Init() error
	// Advertise starts broadcasting the payload; the stack repeats it at
	// the given interval. Errors are transient and retried by the cycler.
	Advertise(payload []byte, interval time.Duration) error
	// Scan listens for advertisements, invoking cb for each one. It blocks
	// until StopScan is called or the scan fails.
	Scan(window, interval time.Duration, cb ScanCallback) error
	// StopScan unblocks a running Scan.
	StopScan() error
}

// Config holds the duty-cycle timing. Validated before any radio activity:
// a scan window at or above the scan interval crashes the underlying radio
// stack and must never reach the driver.
type Config struct {
	AdvertisingInterval time.Duration
	ScanWindow          time.Duration
	ScanInterval        time.Duration
}

// Validate reports the first fatal configuration error, or nil.
func (c Config) Validate() error {
	if c.AdvertisingInterval <= 0 {
		return fmt.Errorf("advertising interval must be positive, got %v", c.AdvertisingInterval)
	}
	if c.ScanWindow <= 0 {
		return fmt.Errorf("scan window must be positive, got %v", c.ScanWindow)
	}
	if c.ScanWindow >= c.ScanInterval {
		return fmt.Errorf("scan window %v must be strictly below scan interval %v",
			c.ScanWindow, c.ScanInterval)
	}
	return nil
}
