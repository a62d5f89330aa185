package api

import (
	"errors"
	"fmt"
	"io"

	"github.com/bft-labs/bleproxy/pkg/wire"
)

// MessageType identifies a message on the wire.
type MessageType uint16

// Message types served by the proxy.
const (
	TypeHelloRequest                          MessageType = 1
	TypeHelloResponse                         MessageType = 2
	TypeConnectRequest                        MessageType = 3
	TypeConnectResponse                       MessageType = 4
	TypeDisconnectRequest                     MessageType = 5
	TypeDisconnectResponse                    MessageType = 6
	TypePingRequest                           MessageType = 7
	TypePingResponse                          MessageType = 8
	TypeDeviceInfoRequest                     MessageType = 9
	TypeDeviceInfoResponse                    MessageType = 10
	TypeListEntitiesRequest                   MessageType = 11
	TypeListEntitiesDoneResponse              MessageType = 19
	TypeSubscribeStatesRequest                MessageType = 20
	TypeSubscribeHomeAssistantServicesRequest MessageType = 34
	TypeSubscribeHomeAssistantStatesRequest   MessageType = 38
	TypeSubscribeBluetoothLEAdvertisements    MessageType = 66
	TypeBluetoothLERawAdvertisementsResponse  MessageType = 93
)

var typeNames = map[MessageType]string{
	TypeHelloRequest:                          "HelloRequest",
	TypeHelloResponse:                         "HelloResponse",
	TypeConnectRequest:                        "ConnectRequest",
	TypeConnectResponse:                       "ConnectResponse",
	TypeDisconnectRequest:                     "DisconnectRequest",
	TypeDisconnectResponse:                    "DisconnectResponse",
	TypePingRequest:                           "PingRequest",
	TypePingResponse:                          "PingResponse",
	TypeDeviceInfoRequest:                     "DeviceInfoRequest",
	TypeDeviceInfoResponse:                    "DeviceInfoResponse",
	TypeListEntitiesRequest:                   "ListEntitiesRequest",
	TypeListEntitiesDoneResponse:              "ListEntitiesDoneResponse",
	TypeSubscribeStatesRequest:                "SubscribeStatesRequest",
	TypeSubscribeHomeAssistantServicesRequest: "SubscribeHomeAssistantServicesRequest",
	TypeSubscribeHomeAssistantStatesRequest:   "SubscribeHomeAssistantStatesRequest",
	TypeSubscribeBluetoothLEAdvertisements:    "SubscribeBluetoothLEAdvertisementsRequest",
	TypeBluetoothLERawAdvertisementsResponse:  "BluetoothLERawAdvertisementsResponse",
}

// String returns the message name, or "Unknown(<id>)".
func (t MessageType) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Unknown(%d)", uint16(t))
}

// Known reports whether t is part of the catalog.
func (t MessageType) Known() bool {
	_, ok := typeNames[t]
	return ok
}

// API version reported in HelloResponse.
const (
	APIVersionMajor = 1
	APIVersionMinor = 12
)

// Bluetooth proxy feature flags carried in DeviceInfoResponse field 15.
const (
	FeaturePassiveScan       uint32 = 1 << 0
	FeatureActiveScan        uint32 = 1 << 1
	FeatureRemoteCaching     uint32 = 1 << 2
	FeaturePairing           uint32 = 1 << 3
	FeatureCacheClearing     uint32 = 1 << 4
	FeatureRawAdvertisements uint32 = 1 << 5

	// ProxyFeatures is the set advertised by this proxy.
	ProxyFeatures = FeaturePassiveScan | FeatureRawAdvertisements
)

// Field limits applied on decode.
const (
	MaxStringLen         = 128
	MaxAdvertisementData = 62
	MaxAdvertisements    = 16
)

// MaxMessageSize bounds an encoded message body.
const MaxMessageSize = 4096

// ErrUnknownMessageType is returned by Decode for identifiers outside the catalog.
var ErrUnknownMessageType = errors.New("api: unknown message type")

// Message is a record that encodes and decodes its own fields.
type Message interface {
	MessageType() MessageType
	MarshalWire(e *wire.Encoder)
	UnmarshalWire(d *wire.Decoder) error
}

// New returns a zero record for t.
func New(t MessageType) (Message, error) {
	switch t {
	case TypeHelloRequest:
		return &HelloRequest{}, nil
	case TypeHelloResponse:
		return &HelloResponse{}, nil
	case TypeConnectRequest:
		return &ConnectRequest{}, nil
	case TypeConnectResponse:
		return &ConnectResponse{}, nil
	case TypeDisconnectRequest:
		return &DisconnectRequest{}, nil
	case TypeDisconnectResponse:
		return &DisconnectResponse{}, nil
	case TypePingRequest:
		return &PingRequest{}, nil
	case TypePingResponse:
		return &PingResponse{}, nil
	case TypeDeviceInfoRequest:
		return &DeviceInfoRequest{}, nil
	case TypeDeviceInfoResponse:
		return &DeviceInfoResponse{}, nil
	case TypeListEntitiesRequest:
		return &ListEntitiesRequest{}, nil
	case TypeListEntitiesDoneResponse:
		return &ListEntitiesDoneResponse{}, nil
	case TypeSubscribeStatesRequest:
		return &SubscribeStatesRequest{}, nil
	case TypeSubscribeHomeAssistantServicesRequest:
		return &SubscribeHomeAssistantServicesRequest{}, nil
	case TypeSubscribeHomeAssistantStatesRequest:
		return &SubscribeHomeAssistantStatesRequest{}, nil
	case TypeSubscribeBluetoothLEAdvertisements:
		return &SubscribeBluetoothLEAdvertisementsRequest{}, nil
	case TypeBluetoothLERawAdvertisementsResponse:
		return &BluetoothLERawAdvertisementsResponse{}, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownMessageType, uint16(t))
	}
}

// Decode parses payload as a message of type t.
func Decode(t MessageType, payload []byte) (Message, error) {
	m, err := New(t)
	if err != nil {
		return nil, err
	}
	if err := m.UnmarshalWire(wire.NewDecoder(payload)); err != nil {
		return nil, fmt.Errorf("api: decode %s: %w", t, err)
	}
	return m, nil
}

// Marshal encodes m into a new buffer bounded by MaxMessageSize.
func Marshal(m Message) ([]byte, error) {
	e := wire.NewEncoderSize(MaxMessageSize)
	if err := MarshalTo(e, m); err != nil {
		return nil, err
	}
	return e.Bytes(), nil
}

// MarshalTo resets e and encodes m into it.
func MarshalTo(e *wire.Encoder, m Message) error {
	e.Reset()
	m.MarshalWire(e)
	if err := e.Err(); err != nil {
		return fmt.Errorf("api: encode %s: %w", m.MessageType(), err)
	}
	return nil
}

// fieldFunc decodes one known field and reports whether it was handled.
type fieldFunc func(d *wire.Decoder, num wire.Number) (bool, error)

// decodeFields walks the field stream, skipping fields fn does not handle.
func decodeFields(d *wire.Decoder, fn fieldFunc) error {
	for {
		num, typ, err := d.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		handled := false
		if fn != nil {
			if handled, err = fn(d, num); err != nil {
				return err
			}
		}
		if !handled {
			if err := d.Skip(typ); err != nil {
				return err
			}
		}
	}
}
