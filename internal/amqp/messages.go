package amqp

import (
	"encoding/json"
	"time"
)

// RefreshMessage asks the worker to rebuild the dataset snapshot from
// the CSVs under Source. The worker reloads everything; the message
// carries no row data.
type RefreshMessage struct {
	Source      string    `json:"source"`
	RequestedBy string    `json:"requested_by,omitempty"`
	RequestedAt time.Time `json:"requested_at"`
}

func NewRefreshMessage(source, requestedBy string) *RefreshMessage {
	return &RefreshMessage{
		Source:      source,
		RequestedBy: requestedBy,
		RequestedAt: time.Now().UTC(),
	}
}

func (m *RefreshMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func RefreshMessageFromJSON(data []byte) (*RefreshMessage, error) {
	var msg RefreshMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
