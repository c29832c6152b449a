package entities

// Status is the process-wide single-slot record of what the pipeline is doing
// right now. It is overwritten on every stage transition of every job and is
// advisory only; it is not a history log.
type Status struct {
	Source    Source `json:"source,omitempty"`
	File      string `json:"file,omitempty"`
	Language  string `json:"language,omitempty"`
	Stage     Stage  `json:"stage"`
	Error     string `json:"error,omitempty"`
	Timestamp int64  `json:"timestamp"`
}
