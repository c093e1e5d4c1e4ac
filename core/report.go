package core

import (
	"errors"
	"unicode/utf8"

	"tickerfree/protocol"
)

var ErrUnknownMessage = errors.New("unknown message id")

// Reporter streams ticker events and debug text as protocol frames.
// Install it with SetEventSink(r.HandleEvent) and SetDebugWriter(r.Println).
type Reporter struct {
	encoder *protocol.Encoder

	// Dropped counts messages that could not be encoded
	Dropped uint32
}

// NewReporter creates a Reporter writing frames to output
func NewReporter(output protocol.OutputBuffer) *Reporter {
	return &Reporter{encoder: protocol.NewEncoder(output)}
}

// HandleEvent encodes a ticker_event message
// Format: ticker_event oid=%c kind=%c clock=%u counter=%u state=%c
func (r *Reporter) HandleEvent(evt Event) {
	err := r.encoder.SendMessage(protocol.MsgTickerEvent, func(output protocol.OutputBuffer) {
		EncodeEvent(output, evt)
	})
	if err != nil {
		r.Dropped++
	}
}

// Println encodes a debug_text message, truncated to fit one frame
// Format: debug_text text=%s
func (r *Reporter) Println(msg string) {
	// Message ID and a two byte length prefix share the payload
	const maxText = protocol.MessagePayloadMax - 3
	if len(msg) > maxText {
		cut := maxText
		for cut > 0 && !utf8.RuneStart(msg[cut]) {
			cut--
		}
		msg = msg[:cut]
	}
	err := r.encoder.SendMessage(protocol.MsgDebugText, func(output protocol.OutputBuffer) {
		protocol.EncodeVLQString(output, msg)
	})
	if err != nil {
		r.Dropped++
	}
}

// Reset restarts frame sequence numbering, e.g. after a USB reconnect
func (r *Reporter) Reset() {
	r.encoder.Reset()
}

// EncodeEvent writes the ticker_event fields (without message ID)
func EncodeEvent(output protocol.OutputBuffer, evt Event) {
	protocol.EncodeVLQUint(output, uint32(evt.OID))
	protocol.EncodeVLQUint(output, uint32(evt.Kind))
	protocol.EncodeVLQUint(output, evt.Clock)
	protocol.EncodeVLQUint(output, evt.Counter)
	protocol.EncodeVLQUint(output, uint32(evt.State))
}

// DecodeEvent reads the ticker_event fields (without message ID)
func DecodeEvent(data *[]byte) (Event, error) {
	var fields [5]uint32
	for i := range fields {
		v, err := protocol.DecodeVLQUint(data)
		if err != nil {
			return Event{}, err
		}
		fields[i] = v
	}
	return Event{
		OID:     uint8(fields[0]),
		Kind:    EventKind(fields[1]),
		Clock:   fields[2],
		Counter: fields[3],
		State:   Status(fields[4]),
	}, nil
}

// Message is a decoded report payload: either an event or debug text
type Message struct {
	ID    uint16
	Event Event
	Text  string
}

// DecodeMessage parses one frame payload produced by a Reporter
func DecodeMessage(payload []byte) (Message, error) {
	id, err := protocol.DecodeVLQUint(&payload)
	if err != nil {
		return Message{}, err
	}

	msg := Message{ID: uint16(id)}
	switch id {
	case protocol.MsgTickerEvent:
		msg.Event, err = DecodeEvent(&payload)
	case protocol.MsgDebugText:
		msg.Text, err = protocol.DecodeVLQString(&payload)
	default:
		err = ErrUnknownMessage
	}
	if err != nil {
		return Message{}, err
	}
	return msg, nil
}
