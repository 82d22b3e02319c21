package amqp

import (
	"encoding/json"
	"time"
)

// RecordChangeMessage announces that the record set changed somewhere. It
// deliberately carries no record payload: listeners re-download the full
// remote set, so "something changed" is the only guarantee.
type RecordChangeMessage struct {
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
}

// NewRecordChangeMessage creates a change notification tagged with the
// originating component.
func NewRecordChangeMessage(source string) *RecordChangeMessage {
	return &RecordChangeMessage{
		Source:    source,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes.
func (m *RecordChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RecordChangeMessageFromJSON creates a message from JSON bytes.
func RecordChangeMessageFromJSON(data []byte) (*RecordChangeMessage, error) {
	var msg RecordChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
