package rest

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/pior/terrastore"
)

var jsonNull = []byte("null")

func isEmptyBody(body []byte) bool {
	trimmed := bytes.TrimSpace(body)
	return len(trimmed) == 0 || bytes.Equal(trimmed, jsonNull)
}

// decodeEntries reads a JSON object of key to document, keeping the members in document order.
func decodeEntries(body []byte) ([]terrastore.Entry, error) {
	entries := []terrastore.Entry{}
	if isEmptyBody(body) {
		return entries, nil
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	tok, err := dec.Token()
	if err != nil {
		return nil, decodeError(err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, decodeError(fmt.Errorf("expected a JSON object, got %v", tok))
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, decodeError(err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, decodeError(fmt.Errorf("expected a key, got %v", tok))
		}

		var doc json.RawMessage
		if err := dec.Decode(&doc); err != nil {
			return nil, decodeError(fmt.Errorf("value of %q: %w", key, err))
		}
		entries = append(entries, terrastore.Entry{Key: key, Document: terrastore.Document(doc)})
	}

	if _, err := dec.Token(); err != nil {
		return nil, decodeError(err)
	}
	return entries, nil
}

func decodeBuckets(body []byte) ([]string, error) {
	names := []string{}
	if isEmptyBody(body) {
		return names, nil
	}
	if err := json.Unmarshal(body, &names); err != nil {
		return nil, decodeError(err)
	}
	return names, nil
}

func decodeClusterStats(body []byte) (terrastore.ClusterStats, error) {
	var stats terrastore.ClusterStats
	if isEmptyBody(body) {
		return stats, nil
	}
	if err := json.Unmarshal(body, &stats); err != nil {
		return terrastore.ClusterStats{}, decodeError(err)
	}
	return stats, nil
}

func encodeParameters(params map[string]any) ([]byte, error) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(params); err != nil {
		return nil, &terrastore.TransportError{Op: "encode", Err: err}
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func decodeError(err error) error {
	return &terrastore.TransportError{Op: "decode", Err: err}
}
