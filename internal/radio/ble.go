package radio

import (
	"encoding/binary"
	"fmt"
	"time"

	"tinygo.org/x/bluetooth"
)

// BLEDriver drives a real Bluetooth adapter. The beacon rides in the
// manufacturer data of a non-connectable advertisement: the first two bytes
// of the codec payload are the company ID, the rest is the element data, and
// scanning reassembles the same byte sequence before handing it up. The
// driver never interprets the payload beyond that split.
type BLEDriver struct {
	adapter *bluetooth.Adapter
}

// NewBLEDriver uses the platform default adapter.
func NewBLEDriver() *BLEDriver {
	return &BLEDriver{adapter: bluetooth.DefaultAdapter}
}

// Init enables the adapter. On Linux this needs elevated permissions, so the
// error spells out the usual fixes.
func (d *BLEDriver) Init() error {
	if err := d.adapter.Enable(); err != nil {
		return fmt.Errorf("failed to enable BLE adapter: %w (try running with sudo or setcap cap_net_admin+ep)", err)
	}
	return nil
}

// Advertise starts broadcasting the payload at the given interval. The BLE
// stack itself repeats the advertisement; this only needs to succeed once.
func (d *BLEDriver) Advertise(payload []byte, interval time.Duration) error {
	if len(payload) < 2 {
		return fmt.Errorf("advertisement payload too short: %d bytes", len(payload))
	}
	adv := d.adapter.DefaultAdvertisement()
	err := adv.Configure(bluetooth.AdvertisementOptions{
		Interval: bluetooth.NewDuration(interval),
		ManufacturerData: []bluetooth.ManufacturerDataElement{{
			CompanyID: binary.BigEndian.Uint16(payload[:2]),
			Data:      append([]byte(nil), payload[2:]...),
		}},
	})
	if err != nil {
		return fmt.Errorf("configure advertisement: %w", err)
	}
	if err := adv.Start(); err != nil {
		return fmt.Errorf("start advertisement: %w", err)
	}
	return nil
}

// Scan listens for advertisements until StopScan. The host stack owns the
// low-level scan timing; window and interval are enforced upstream by the
// cycler's configuration check before this is ever reached.
func (d *BLEDriver) Scan(window, interval time.Duration, cb ScanCallback) error {
	return d.adapter.Scan(func(_ *bluetooth.Adapter, result bluetooth.ScanResult) {
		for _, m := range result.ManufacturerData() {
			raw := make([]byte, 2+len(m.Data))
			binary.BigEndian.PutUint16(raw[:2], m.CompanyID)
			copy(raw[2:], m.Data)
			cb(raw, result.RSSI)
		}
	})
}

// StopScan unblocks a running Scan.
func (d *BLEDriver) StopScan() error {
	return d.adapter.StopScan()
}
