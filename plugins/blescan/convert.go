package blescan

import (
	"github.com/go-ble/ble"

	"github.com/bft-labs/bleproxy/pkg/bleproxy"
)

// AD structure types.
const (
	adIncomplete16   = 0x02
	adIncomplete128  = 0x06
	adCompleteName   = 0x09
	adTxPower        = 0x0A
	adSolicited16    = 0x14
	adSolicited128   = 0x15
	adServiceData16  = 0x16
	adServiceData32  = 0x20
	adServiceData128 = 0x21
	adManufacturer   = 0xFF

	maxADLength = 31

	// txPowerAbsent is what go-ble reports when no TX power level was sent.
	txPowerAbsent = 127
)

// rawAdvertisement is implemented by the linux HCI advertisement, which
// keeps the original AD payload.
type rawAdvertisement interface {
	Data() []byte
}

// addressTyped is implemented by advertisements that report the address type.
type addressTyped interface {
	AddressType() uint8
}

// Convert turns a go-ble advertisement into a proxy advertisement. It
// reports false when the address is not a 6-byte MAC.
func Convert(a ble.Advertisement) (bleproxy.Advertisement, bool) {
	mac, err := bleproxy.ParseMAC(a.Addr().String())
	if err != nil {
		return bleproxy.Advertisement{}, false
	}

	adv := bleproxy.Advertisement{
		Address:     mac,
		AddressType: bleproxy.AddressPublic,
		RSSI:        clampRSSI(a.RSSI()),
	}
	if t, ok := a.(addressTyped); ok && t.AddressType() == 1 {
		adv.AddressType = bleproxy.AddressRandom
	}
	if raw, ok := a.(rawAdvertisement); ok && len(raw.Data()) > 0 {
		adv.Data = append([]byte(nil), raw.Data()...)
	} else {
		adv.Data = EncodeAD(a)
	}
	return adv, true
}

func clampRSSI(v int) int8 {
	switch {
	case v < -128:
		return -128
	case v > 127:
		return 127
	}
	return int8(v)
}

// EncodeAD rebuilds advertising data structures from the parsed fields of a.
// Structures that would not fit in the 31-byte legacy payload are dropped.
func EncodeAD(a ble.Advertisement) []byte {
	var out []byte
	add := func(typ byte, data []byte) {
		if len(out)+2+len(data) > maxADLength {
			return
		}
		out = append(out, byte(len(data)+1), typ)
		out = append(out, data...)
	}

	if name := a.LocalName(); name != "" {
		add(adCompleteName, []byte(name))
	}
	if tx := a.TxPowerLevel(); tx != txPowerAbsent {
		add(adTxPower, []byte{byte(int8(tx))})
	}
	addUUIDs(add, a.Services(), adIncomplete16, adIncomplete128)
	addUUIDs(add, a.SolicitedService(), adSolicited16, adSolicited128)
	for _, sd := range a.ServiceData() {
		typ := byte(adServiceData16)
		switch sd.UUID.Len() {
		case 4:
			typ = adServiceData32
		case 16:
			typ = adServiceData128
		}
		add(typ, append(append([]byte(nil), sd.UUID...), sd.Data...))
	}
	if md := a.ManufacturerData(); len(md) > 0 {
		add(adManufacturer, md)
	}
	return out
}

// addUUIDs groups uuids by width. ble.UUID stores bytes in wire order.
func addUUIDs(add func(byte, []byte), uuids []ble.UUID, typ16, typ128 byte) {
	var short, long []byte
	for _, u := range uuids {
		switch u.Len() {
		case 2:
			short = append(short, u...)
		case 16:
			long = append(long, u...)
		}
	}
	if len(short) > 0 {
		add(typ16, short)
	}
	if len(long) > 0 {
		add(typ128, long)
	}
}
