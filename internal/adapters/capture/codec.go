// Package capture records session frames to a CBOR file and reads them back.
package capture

import (
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error

	encMode, err = cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
	}.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create capture CBOR encoder mode: %v", err))
	}

	decMode, err = cbor.DecOptions{
		DupMapKey:   cbor.DupMapKeyQuiet,
		IndefLength: cbor.IndefLengthAllowed,
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create capture CBOR decoder mode: %v", err))
	}
}

func newEncoder(w io.Writer) *cbor.Encoder { return encMode.NewEncoder(w) }
func newDecoder(r io.Reader) *cbor.Decoder { return decMode.NewDecoder(r) }
