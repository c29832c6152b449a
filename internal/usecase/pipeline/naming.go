package pipeline

import (
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// UploadName returns a collision-proof stored name for an uploaded artifact:
// a generated unique token joined to the original filename.
func UploadName(original string) string {
	token := strings.ReplaceAll(uuid.NewString(), "-", "")
	return token + "_" + filepath.Base(original)
}

// BaseName strips the extension from a stored upload name, yielding the job
// base name every persisted artifact is keyed by.
func BaseName(storedName string) string {
	return strings.TrimSuffix(storedName, filepath.Ext(storedName))
}
