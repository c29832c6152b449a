package entities

// Utterance represents a single speaker turn in a conversation. The speaker
// label is an opaque per-file identifier assigned by the transcription
// service, not a stable identity across recordings.
type Utterance struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
	StartMS int64  `json:"start_ms"`
	EndMS   int64  `json:"end_ms"`
}

// Transcript is the normalized transcript document written once per job.
// FullText is derived from the utterances ("Role: text" lines in
// chronological order) and is never authored independently.
type Transcript struct {
	AudioFile  string      `json:"audio_file"`
	Language   string      `json:"language"`
	FullText   string      `json:"full_text"`
	Utterances []Utterance `json:"utterances"`
}
