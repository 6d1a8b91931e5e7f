package ws

import (
	"github.com/como-monitor/como/internal/protocol"
	"github.com/como-monitor/como/internal/source"
)

type MessageType string

const (
	MsgSource MessageType = "source"
	MsgDeinit MessageType = "deinit"
)

// messageTypeFor maps a wire message type to its WebSocket event name.
func messageTypeFor(t protocol.MessageType) (MessageType, bool) {
	switch t {
	case protocol.MsgSource:
		return MsgSource, true
	case protocol.MsgDeinitSource:
		return MsgDeinit, true
	default:
		return "", false
	}
}

type WSMessage struct {
	Type    MessageType   `json:"type"`
	Payload SourcePayload `json:"payload"`
}

// SourcePayload is the JSON form of a source snapshot. Value and timestamp
// use the same text rendering as the TCP payload.
type SourcePayload struct {
	Name        string      `json:"name"`
	TypeName    string      `json:"typeName"`
	Kind        source.Kind `json:"kind"`
	Value       string      `json:"value"`
	Description string      `json:"description,omitempty"`
	Timestamp   string      `json:"timestamp"`
}

func NewSourcePayload(s source.Snapshot) SourcePayload {
	return SourcePayload{
		Name:        s.Name,
		TypeName:    s.TypeName,
		Kind:        s.Kind(),
		Value:       source.FormatValue(s.Value),
		Description: s.Description,
		Timestamp:   source.FormatTimestamp(s.Timestamp),
	}
}
