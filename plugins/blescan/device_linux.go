//go:build linux

package blescan

import (
	"github.com/go-ble/ble"
	"github.com/go-ble/ble/linux"
)

func openDevice(id int) (Device, error) {
	dev, err := linux.NewDevice(ble.OptDeviceID(id))
	if err != nil {
		return nil, err
	}
	return dev, nil
}
