package ipc

import (
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

var (
	encMode = mustEncMode()
	decMode = mustDecMode()
)

func mustEncMode() cbor.EncMode {
	em, err := cbor.EncOptions{
		Time: cbor.TimeRFC3339Nano,
	}.EncMode()
	if err != nil {
		panic(err)
	}
	return em
}

// Integers decode as int64 and nested maps as map[string]any so row values
// come back in the same kinds the engine produced.
func mustDecMode() cbor.DecMode {
	dm, err := cbor.DecOptions{
		IntDec:         cbor.IntDecConvertSigned,
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic(err)
	}
	return dm
}

// Marshal encodes v as CBOR.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes CBOR data into v.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

// rawParams encodes params for a Request. Nil params encode as nothing.
func rawParams(params any) (cbor.RawMessage, error) {
	if params == nil {
		return nil, nil
	}
	return Marshal(params)
}

// decodeRaw decodes a raw message into v; an empty message leaves v untouched.
func decodeRaw(raw cbor.RawMessage, v any) error {
	if len(raw) == 0 || v == nil {
		return nil
	}
	return Unmarshal(raw, v)
}
