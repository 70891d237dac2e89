package audit

import "time"

// Action names a record lifecycle transition.
type Action string

const (
	ActionInformationCreated Action = "information_created"
	ActionInformationUpdated Action = "information_updated"
	ActionInformationDeleted Action = "information_deleted"
)

// Event is emitted from the service layer after a successful mutation. Keep it
// transport-agnostic so sinks can fan out.
type Event struct {
	Action    Action    `json:"action"`
	RecordID  string    `json:"record_id"`
	Group     string    `json:"group,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
