// Package phx encodes and decodes the phoenix-style message envelope used on
// the live websocket: a JSON array of [joinRef, ref, topic, event, payload].
package phx

import (
	"encoding/json"
	"fmt"
)

type Msg struct {
	JoinRef string // or nil
	MsgRef  string
	Topic   string
	Event   string
	Payload map[string]any
}

func Parse(msg []byte) (*Msg, error) {
	var raw []any
	err := json.Unmarshal(msg, &raw)
	if err != nil {
		return nil, err
	}

	// messages are always arrays of 5 elements
	if len(raw) != 5 {
		return nil, fmt.Errorf("phx message must contain 5 elements, got %d: %v", len(raw), raw)
	}

	var strings [4]string
	for i, x := range raw[:4] {
		if x == nil {
			continue
		}
		str, ok := x.(string)
		if !ok {
			return nil, fmt.Errorf("invalid format for element %d, got: %T", i, x)
		}
		strings[i] = str
	}

	// cast payload to map
	payload, ok := raw[4].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("invalid payload format, should be map[string]any, got %T: %v", raw[4], raw[4])
	}

	return &Msg{
		// JoinRef is the empty string if it is nil in raw.
		JoinRef: strings[0],
		MsgRef:  strings[1],
		Topic:   strings[2],
		Event:   strings[3],
		Payload: payload,
	}, nil
}

// String returns the payload value for key if it is a string.
func (m *Msg) String(key string) (string, bool) {
	s, ok := m.Payload[key].(string)
	return s, ok
}
