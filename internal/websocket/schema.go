package websocket

// Inbound actions a taker's client may send over the session socket.
const (
	ActionAutosave = "autosave"
	ActionSubmit   = "submit"
	ActionPing     = "ping"
)

// Outbound event types.
const (
	EventSaved     = "saved"
	EventSubmitted = "submitted"
	EventPong      = "pong"
	EventError     = "error"
)

// ClientMessage is one inbound frame.
type ClientMessage struct {
	Action     string `json:"action"`
	QuestionID string `json:"question_id,omitempty"`
	Answer     string `json:"answer,omitempty"`
}

// ServerEvent is one outbound frame.
type ServerEvent struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
	Message string      `json:"message,omitempty"`
}
