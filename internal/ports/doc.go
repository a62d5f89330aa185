// Package ports defines the interfaces (ports) that connect the application
// layer to infrastructure adapters.
//
// # Port Interfaces
//
//   - [FrameSender]: Writes one framed message to a client connection
//   - [DescriptorSource]: Supplies the current device descriptor
//   - [AdvertisementSink]: Accepts advertisements from a radio producer
//   - [FrameTap]: Observes every frame read or written by a session
//   - [Logger]: Structured logging abstraction
//
// # Usage
//
// The application layer (internal/app) depends only on these interfaces.
// Infrastructure adapters (internal/adapters, plugins) implement them with
// concrete implementations (CBOR capture files, HCI scanners, zerolog, etc.).
package ports
