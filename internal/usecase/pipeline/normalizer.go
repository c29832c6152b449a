package pipeline

import (
	"strings"

	"github.com/medscribe/medscribe/internal/domain/entities"
)

const (
	// LanguageDefault is assigned when no Devanagari text is present.
	LanguageDefault = "en"
	// LanguageHindi is assigned when any Devanagari character appears.
	LanguageHindi = "hi"

	RoleDoctor  = "Doctor"
	RolePatient = "Patient"
)

// Normalize converts a raw transcription result into the transcript document
// persisted for the job.
func Normalize(audioFile string, raw *Transcription) *entities.Transcript {
	roles := assignRoles(raw.Utterances)

	lines := make([]string, 0, len(raw.Utterances))
	for _, u := range raw.Utterances {
		lines = append(lines, roles[u.Speaker]+": "+u.Text)
	}

	return &entities.Transcript{
		AudioFile:  audioFile,
		Language:   DetectLanguage(raw.Text),
		FullText:   strings.Join(lines, "\n"),
		Utterances: raw.Utterances,
	}
}

// DetectLanguage classifies text as Hindi when any rune falls in the
// Devanagari block (U+0900..U+097F), otherwise English. The transcription
// provider's own language hint misclassifies code-mixed speech, so it is
// ignored here.
func DetectLanguage(text string) string {
	for _, r := range text {
		if r >= 0x0900 && r <= 0x097F {
			return LanguageHindi
		}
	}
	return LanguageDefault
}

// assignRoles labels the speaker tag with the greatest total text length as
// the doctor and every other tag as the patient. The heuristic assumes two
// effective participants and a more talkative clinician; it mislabels
// quietly otherwise. Ties resolve to the tag seen first, which keeps the
// outcome deterministic for a fixed input.
func assignRoles(utterances []entities.Utterance) map[string]string {
	totals := make(map[string]int)
	var order []string
	for _, u := range utterances {
		if _, seen := totals[u.Speaker]; !seen {
			order = append(order, u.Speaker)
		}
		totals[u.Speaker] += len(u.Text)
	}

	doctor := ""
	best := -1
	for _, speaker := range order {
		if totals[speaker] > best {
			best = totals[speaker]
			doctor = speaker
		}
	}

	roles := make(map[string]string, len(order))
	for _, speaker := range order {
		if speaker == doctor {
			roles[speaker] = RoleDoctor
		} else {
			roles[speaker] = RolePatient
		}
	}
	return roles
}
