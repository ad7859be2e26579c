package rpc

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// jsonCodec lets connect handlers exchange plain Go structs as JSON. It takes
// the "json" name so application/json requests land on it.
type jsonCodec struct{}

func (jsonCodec) Name() string {
	return "json"
}

func (jsonCodec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

func (jsonCodec) Unmarshal(data []byte, msg any) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(msg); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}
