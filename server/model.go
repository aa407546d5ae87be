package server

type ResponseModel struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// CheckpointModel is returned by POST /checkpoint.
type CheckpointModel struct {
	ID       string   `json:"id"`
	Sequence uint64   `json:"sequence"`
	Taken    string   `json:"taken"`
	Queries  []string `json:"queries"`
}

// PublishModel is returned by POST /topics/{topic}.
type PublishModel struct {
	Topic       string `json:"topic"`
	Subscribers int    `json:"subscribers"`
}
