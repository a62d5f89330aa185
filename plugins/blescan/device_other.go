//go:build !linux

package blescan

import "errors"

// ErrUnsupported is returned on platforms without HCI sockets.
var ErrUnsupported = errors.New("blescan: HCI scanning requires linux")

func openDevice(int) (Device, error) {
	return nil, ErrUnsupported
}
