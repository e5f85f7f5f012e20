package config

import "time"

const (
	// Beacon protocol
	CompanyID       = 0xBEEF // manufacturer ID used to filter out foreign beacons
	ProtocolVersion = 0x01

	// RSSI to closeness estimation
	StrengthNear = -40.0 // smoothed RSSI (dBm) mapped to closeness 1.0
	StrengthFar  = -90.0 // smoothed RSSI (dBm) mapped to closeness 0.0

	// Neighbor tracking
	MaxNeighbors     = 16               // bounded table capacity
	StalenessTimeout = 15 * time.Second // drop peers not heard from for this long
	SmoothingAlpha   = 0.3              // EMA smoothing factor (30% new, 70% old)

	// Radio duty cycle
	AdvertisingInterval = 200 * time.Millisecond
	ScanWindow          = 30 * time.Millisecond
	ScanInterval        = 50 * time.Millisecond // must stay strictly above ScanWindow
	SampleQueueDepth    = 32                    // decoded samples buffered between scan and ingest

	// Rendering
	LEDCount            = 24                     // pixels in the strip
	FramePeriod         = 100 * time.Millisecond // render tick
	RotationTicks       = 4                      // render ticks per one-pixel frame rotation
	ArrivalSparkleTicks = 10                     // sparkle overlay duration for a new arrival

	// Idle breathing (no neighbors)
	IdleFloor     = 12 // minimum idle brightness of the logical frame
	IdleCeiling   = 96 // peak idle brightness
	IdleStep      = 6  // brightness change per render tick
	IdleGlowFloor = 2  // finalized idle channels never drop below this; the badge is never fully dark

	// App
	AppName    = "SOULSTAR"
	AppVersion = "1.0"
)
