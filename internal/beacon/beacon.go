// Package beacon implements the wire codec for the soulstar advertisement
// payload.
//
// Layout (fixed length, 10 bytes):
//
//	Magic (2, big-endian 0xBEEF) | Version (1) | PeerID (4, big-endian) | R G B (3)
//
// Any other length, magic or version is rejected as a non-fatal decode
// failure so beacons from unrelated BLE devices never corrupt state.
package beacon

import (
	"encoding/binary"
	"time"

	"soulstar.klederson.com/internal/config"
	"soulstar.klederson.com/internal/led"
)

const (
	magicSize   = 2
	versionSize = 1
	peerIDSize  = 4
	colorSize   = 3

	// PayloadLength is the exact on-air size of an encoded beacon.
	PayloadLength = magicSize + versionSize + peerIDSize + colorSize
)

// Payload is the decoded content of one beacon.
type Payload struct {
	PeerID uint32
	Color  led.RGB
}

// Sample is one received beacon paired with its signal strength reading.
// ReceivedAt is stamped by the radio pipeline, not carried on the wire.
type Sample struct {
	PeerID     uint32
	Color      led.RGB
	RSSI       int16
	ReceivedAt time.Time
}

// Encode serializes the local identity fields into an advertisement payload.
// Output is deterministic and always PayloadLength bytes.
func Encode(peerID uint32, color led.RGB) []byte {
	buf := make([]byte, PayloadLength)
	binary.BigEndian.PutUint16(buf[0:2], config.CompanyID)
	buf[2] = config.ProtocolVersion
	binary.BigEndian.PutUint32(buf[3:7], peerID)
	buf[7] = color.R
	buf[8] = color.G
	buf[9] = color.B
	return buf
}

// Decode parses a raw advertisement payload. Failures are non-fatal: the
// caller drops the sample and carries on.
func Decode(raw []byte) (Payload, error) {
	if len(raw) < PayloadLength {
		return Payload{}, ErrTooShort
	}
	if binary.BigEndian.Uint16(raw[0:2]) != config.CompanyID {
		return Payload{}, ErrBadMagic
	}
	if len(raw) != PayloadLength || raw[2] != config.ProtocolVersion {
		return Payload{}, ErrMalformed
	}
	return Payload{
		PeerID: binary.BigEndian.Uint32(raw[3:7]),
		Color:  led.RGB{R: raw[7], G: raw[8], B: raw[9]},
	}, nil
}
