package treedb

import (
	"bytes"
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/vmihailenco/msgpack/v5"
)

// encodeLeaf encodes a leaf payload. Map keys are sorted so that equal
// payloads produce equal bytes.
func encodeLeaf(payload any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.GetEncoder()
	enc.Reset(&buf)
	enc.SetSortMapKeys(true)
	err := enc.Encode(payload)
	msgpack.PutEncoder(enc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %T using MsgPack: %w", payload, err)
	}
	return buf.Bytes(), nil
}

// decodeLeaf decodes a leaf payload. Integers come back as int64 or uint64
// and floats as float64 regardless of their encoded width.
func decodeLeaf(data []byte) (any, error) {
	var r bytes.Reader
	r.Reset(data)
	dec := msgpack.GetDecoder()
	dec.Reset(&r)
	dec.UseLooseInterfaceDecoding(true)
	v, err := dec.DecodeInterfaceLoose()
	msgpack.PutDecoder(dec)
	if err != nil {
		return nil, dataErrf(data, err, "failed to decode msgpack leaf")
	}
	return v, nil
}

// Checksum returns a hash of the batch contents that doesn't depend on the
// order the entries were added in.
func (b *Batch) Checksum() uint64 {
	h := xxhash.New()
	enc := msgpack.GetEncoder()
	enc.Reset(h)
	enc.SetSortMapKeys(true)
	defer msgpack.PutEncoder(enc)

	for _, e := range b.Entries() {
		ensure(enc.EncodeString(e.Path.String()))
		ensure(enc.EncodeInt(int64(e.Value.Op())))
		if err := enc.Encode(e.Value.Payload()); err != nil {
			// unencodable payloads still contribute their type
			ensure(enc.EncodeString(fmt.Sprintf("%T", e.Value.Payload())))
		}
	}
	return h.Sum64()
}

type DataError struct {
	Data []byte
	Err  error
	Msg  string
}

func dataErrf(data []byte, err error, format string, args ...any) error {
	return &DataError{data, err, fmt.Sprintf(format, args...)}
}

func (e *DataError) Unwrap() error {
	return e.Err
}

func (e *DataError) Error() string {
	const prefixLen = 64
	const suffixLen = 32
	n := len(e.Data)
	if n <= prefixLen+suffixLen {
		if e.Err != nil {
			return fmt.Sprintf("%s: %v: (%d) %x", e.Msg, e.Err, n, e.Data)
		} else {
			return fmt.Sprintf("%s: (%d) %x", e.Msg, n, e.Data)
		}
	} else {
		p, s := e.Data[:prefixLen], e.Data[n-suffixLen:]
		if e.Err != nil {
			return fmt.Sprintf("%s: %v: (%d) %x...%x", e.Msg, e.Err, n, p, s)
		} else {
			return fmt.Sprintf("%s: (%d) %x...%x", e.Msg, n, p, s)
		}
	}
}
