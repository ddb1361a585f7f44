package codec

import (
	"bytes"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/roach88/lineage/internal/model"
)

const structTag = "json"

// Marshal encodes v as MessagePack.
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.GetEncoder()
	enc.Reset(&buf)
	enc.SetSortMapKeys(true)
	enc.SetCustomStructTag(structTag)
	err := enc.Encode(v)
	msgpack.PutEncoder(enc)
	if err != nil {
		return nil, fmt.Errorf("encode %T: %w", v, err)
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes MessagePack data into the value pointed to by v.
func Unmarshal(data []byte, v any) error {
	r := bytes.NewReader(data)
	dec := msgpack.GetDecoder()
	dec.Reset(r)
	dec.SetCustomStructTag(structTag)
	err := dec.Decode(v)
	msgpack.PutDecoder(dec)
	if err != nil {
		return fmt.Errorf("decode %T: %w", v, err)
	}
	return nil
}

// EncodeRecord serializes a record.
func EncodeRecord(r model.Record) ([]byte, error) {
	if r == nil {
		return nil, fmt.Errorf("encode record: nil record")
	}
	data, err := Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", r.Kind(), err)
	}
	return data, nil
}

// DecodeRecord deserializes a record of the given kind.
func DecodeRecord(kind model.Kind, data []byte) (model.Record, error) {
	r := model.New(kind)
	if r == nil {
		return nil, fmt.Errorf("decode record: invalid kind %d", int(kind))
	}
	if err := Unmarshal(data, r); err != nil {
		return nil, fmt.Errorf("decode %s: %w", kind, err)
	}
	return r, nil
}
