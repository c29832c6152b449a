package entities

// Source identifies the ingestion channel a job arrived through.
type Source string

const (
	SourceWeb            Source = "web"
	SourceRobot          Source = "robot"
	SourceDirectoryWatch Source = "directory_watch"
)

// Stage is a pipeline state. Stages are strictly ordered; a job never moves
// backwards, and StageError is reachable from any non-terminal stage.
type Stage string

const (
	StageIdle          Stage = "idle"
	StageTranscribing  Stage = "transcribing"
	StageSummarizing   Stage = "summarizing"
	StageTranslating   Stage = "translating"
	StageGeneratingPDF Stage = "generating_pdf"
	StageCompleted     Stage = "completed"
	StageError         Stage = "error"
)

// Job is one audio artifact's traversal through the pipeline. Jobs are not
// persisted as a collection; only the most recent job's progress survives in
// the status slot.
type Job struct {
	ID       string `json:"id"`
	Source   Source `json:"source"`
	DoctorID string `json:"doctor_id,omitempty"`
	Language string `json:"language,omitempty"`
	Stage    Stage  `json:"stage"`
	LastErr  string `json:"last_error,omitempty"`
}
