package handler

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	apperrors "github.com/medscribe/medscribe/errors"
)

// Report serves finished report PDFs from the reports directory.
type Report struct {
	reportsDir string
	logger     *zap.Logger
}

// NewReport creates the report download handler.
func NewReport(reportsDir string, logger *zap.Logger) *Report {
	return &Report{reportsDir: reportsDir, logger: logger}
}

// DownloadReport handles GET /download-report/:job_id. The job id is a file
// name component; anything that could escape the reports directory is
// rejected as unknown.
func (h *Report) DownloadReport(c echo.Context) error {
	jobID := c.Param("job_id")
	if jobID == "" || !safeJobID(jobID) {
		return HandleError(h.logger, c, apperrors.ErrReportNotFound(jobID))
	}

	path := filepath.Join(h.reportsDir, jobID+"_summary.pdf")
	if _, err := os.Stat(path); err != nil {
		return HandleError(h.logger, c, apperrors.ErrReportNotFound(jobID))
	}

	return c.Attachment(path, jobID+"_summary.pdf")
}

func safeJobID(id string) bool {
	if strings.Contains(id, "..") {
		return false
	}
	if strings.ContainsAny(id, `/\`) {
		return false
	}
	return true
}
