package domain

import (
	"fmt"
	"net"
	"strings"
)

// MaxAdvertisementData is the largest advertisement payload kept: advertising
// data plus scan response data.
const MaxAdvertisementData = 62

// AddressType distinguishes public and random device addresses.
// Values outside the defined set are carried through unchanged.
type AddressType uint32

const (
	AddressPublic AddressType = 0
	AddressRandom AddressType = 1
)

// String returns "public", "random" or the numeric value.
func (t AddressType) String() string {
	switch t {
	case AddressPublic:
		return "public"
	case AddressRandom:
		return "random"
	default:
		return fmt.Sprintf("%d", uint32(t))
	}
}

// MAC is a 6-byte hardware address in transmission order.
type MAC [6]byte

// Pack returns the address as an integer with the first byte most significant.
func (m MAC) Pack() uint64 {
	var v uint64
	for _, b := range m {
		v = v<<8 | uint64(b)
	}
	return v
}

// String formats the address as upper-case colon-separated hex.
func (m MAC) String() string {
	return fmt.Sprintf("%02X:%02X:%02X:%02X:%02X:%02X", m[0], m[1], m[2], m[3], m[4], m[5])
}

// UnpackMAC reverses MAC.Pack. Bits above the low 48 are ignored.
func UnpackMAC(v uint64) MAC {
	var m MAC
	for i := len(m) - 1; i >= 0; i-- {
		m[i] = byte(v)
		v >>= 8
	}
	return m
}

// ParseMAC parses a 6-byte address in any notation net.ParseMAC accepts.
func ParseMAC(s string) (MAC, error) {
	hw, err := net.ParseMAC(strings.TrimSpace(s))
	if err != nil {
		return MAC{}, fmt.Errorf("%w: %q", ErrInvalidMAC, s)
	}
	if len(hw) != 6 {
		return MAC{}, fmt.Errorf("%w: %q is not 6 bytes", ErrInvalidMAC, s)
	}
	var m MAC
	copy(m[:], hw)
	return m, nil
}

// Advertisement is one observed BLE advertisement.
type Advertisement struct {
	Address     MAC
	AddressType AddressType
	RSSI        int8
	Data        []byte
}

// Clone returns a copy whose Data does not alias the original, truncated to
// MaxAdvertisementData bytes.
func (a Advertisement) Clone() Advertisement {
	n := len(a.Data)
	if n > MaxAdvertisementData {
		n = MaxAdvertisementData
	}
	data := make([]byte, n)
	copy(data, a.Data)
	a.Data = data
	return a
}
