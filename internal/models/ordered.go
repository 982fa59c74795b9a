package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// keyedValues is a string-keyed mapping that remembers the order in which
// keys were first inserted. JSON decoding keeps the document's key order.
type keyedValues[V any] struct {
	keys   []string
	values map[string]V
}

func (k *keyedValues[V]) set(key string, value V) {
	if k.values == nil {
		k.values = make(map[string]V)
	}
	if _, ok := k.values[key]; !ok {
		k.keys = append(k.keys, key)
	}
	k.values[key] = value
}

func (k *keyedValues[V]) get(key string) (V, bool) {
	v, ok := k.values[key]
	return v, ok
}

func (k *keyedValues[V]) orderedKeys() []string {
	out := make([]string, len(k.keys))
	copy(out, k.keys)
	return out
}

func (k *keyedValues[V]) decode(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		// top-level null decodes to an empty mapping
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("expected JSON object, got %v", tok)
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("expected object key, got %v", keyTok)
		}

		var value V
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("decode value of %q: %w", key, err)
		}
		k.set(key, value)
	}

	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

func (k *keyedValues[V]) encode() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range k.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyJSON, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		valueJSON, err := json.Marshal(k.values[key])
		if err != nil {
			return nil, fmt.Errorf("encode value of %q: %w", key, err)
		}
		buf.Write(keyJSON)
		buf.WriteByte(':')
		buf.Write(valueJSON)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
