package phx

import "encoding/json"

type Response struct {
	Rendered json.RawMessage   `json:"rendered,omitempty"`
	Reason   string            `json:"reason,omitempty"`
	Errors   map[string]string `json:"errors,omitempty"`
}

type Payload struct {
	Response Response `json:"response"`
	Status   string   `json:"status"`
}

type Reply struct {
	JoinRef *string // nullable
	MsgRef  *string // nullable
	Topic   string
	Event   string
	Payload Payload
}

// A Push is a server-initiated message. It has no MsgRef.
type Push struct {
	JoinRef *string // nullable
	Topic   string
	Event   string
	Payload json.RawMessage
}

// NewPatch returns a push carrying a JSON patch set.
func NewPatch(joinRef *string, topic string, patch []byte) *Push {
	return &Push{
		JoinRef: joinRef,
		Topic:   topic,
		Event:   "patch",
		Payload: patch,
	}
}

func NewEmptyReply(msg Msg) *Reply {
	return &Reply{
		JoinRef: &msg.JoinRef,
		MsgRef:  &msg.MsgRef,
		Topic:   msg.Topic,
		Event:   "phx_reply",
		Payload: Payload{
			Status: "ok",
		},
	}
}

func NewRendered(msg Msg, rendered []byte) *Reply {
	return &Reply{
		JoinRef: &msg.JoinRef,
		MsgRef:  &msg.MsgRef,
		Topic:   msg.Topic,
		Event:   "phx_reply",
		Payload: Payload{
			Status: "ok",
			Response: Response{
				Rendered: rendered,
			},
		},
	}
}

// NewErrorReply returns a reply with status "error". fields may be nil.
func NewErrorReply(msg Msg, reason string, fields map[string]string) *Reply {
	return &Reply{
		JoinRef: &msg.JoinRef,
		MsgRef:  &msg.MsgRef,
		Topic:   msg.Topic,
		Event:   "phx_reply",
		Payload: Payload{
			Status: "error",
			Response: Response{
				Reason: reason,
				Errors: fields,
			},
		},
	}
}

func NewHeartbeat(msgRef string) *Reply {
	return &Reply{
		MsgRef: &msgRef,
		Topic:  "phoenix",
		Event:  "phx_reply",
		Payload: Payload{
			Status: "ok",
		},
	}
}

func (m *Reply) JSON() ([]byte, error) {
	return json.Marshal(m)
}

func (m *Reply) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{m.JoinRef, m.MsgRef, m.Topic, m.Event, m.Payload})
}

func (p *Push) JSON() ([]byte, error) {
	return json.Marshal(p)
}

func (p *Push) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{p.JoinRef, nil, p.Topic, p.Event, p.Payload})
}
