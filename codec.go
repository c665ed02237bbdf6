package terrastore

import (
	"bytes"
	"encoding/json"
)

// Document is a value in its serialized form, as stored by the server.
type Document []byte

// Codec converts between typed values and documents.
// Implementations must be safe for concurrent use.
type Codec interface {
	Marshal(v any) (Document, error)
	Unmarshal(doc Document, v any) error
}

// JSONCodec is the default Codec, backed by encoding/json.
type JSONCodec struct{}

var _ Codec = JSONCodec{}

func (JSONCodec) Marshal(v any) (Document, error) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func (JSONCodec) Unmarshal(doc Document, v any) error {
	return json.Unmarshal(doc, v)
}

func encodeValue(codec Codec, v any) (Document, error) {
	doc, err := codec.Marshal(v)
	if err != nil {
		return nil, &TransportError{Op: "encode", Err: err}
	}
	return doc, nil
}

func decodeValue(codec Codec, doc Document, out any) error {
	if out == nil {
		return nil
	}
	if err := codec.Unmarshal(doc, out); err != nil {
		return &TransportError{Op: "decode", Err: err}
	}
	return nil
}
