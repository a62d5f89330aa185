// Package domain contains the core entities of the Bluetooth proxy.
//
// It has no dependencies on transport, logging or configuration and holds
// only data and invariants.
//
// # Entities
//
//   - [Advertisement]: one observed BLE advertisement (address, RSSI, data)
//   - [AdvertisementBatch]: a bounded, insertion-ordered group of advertisements
//   - [DeviceDescriptor]: the identity reported to clients
//   - [DescriptorStore]: an atomically replaceable descriptor snapshot
//   - [CapturedFrame]: one frame recorded by the capture tap
package domain
