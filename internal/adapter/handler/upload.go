package handler

import (
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	apperrors "github.com/medscribe/medscribe/errors"
	"github.com/medscribe/medscribe/internal/domain/entities"
	"github.com/medscribe/medscribe/internal/usecase/pipeline"
)

// Preprocessor converts an uploaded artifact to the normalized waveform the
// transcription service expects.
type Preprocessor interface {
	Preprocess(ctx context.Context, inputPath, outputWAV string) error
}

// Ingestor is the shared accept path of the HTTP gateways: store the raw
// upload, normalize it, and schedule the pipeline. Acceptance is synchronous
// up to and including normalization; the pipeline itself runs in a goroutine
// behind the global execution lock.
type Ingestor struct {
	uploadDir    string
	processedDir string
	pre          Preprocessor
	runner       pipeline.Runner
	logger       *zap.Logger
}

// NewIngestor creates the shared accept path.
func NewIngestor(uploadDir, processedDir string, pre Preprocessor, runner pipeline.Runner, logger *zap.Logger) *Ingestor {
	return &Ingestor{
		uploadDir:    uploadDir,
		processedDir: processedDir,
		pre:          pre,
		runner:       runner,
		logger:       logger,
	}
}

// accept stores the upload under a collision-proof name, normalizes it, and
// launches the pipeline. It returns the stored name and the job base name.
func (i *Ingestor) accept(ctx context.Context, file *multipart.FileHeader, req pipeline.Request) (string, string, error) {
	storedName := pipeline.UploadName(file.Filename)
	uploadPath := filepath.Join(i.uploadDir, storedName)
	if err := saveMultipart(file, uploadPath); err != nil {
		return "", "", apperrors.ErrUploadFailed(err)
	}

	base := pipeline.BaseName(storedName)
	wavPath := filepath.Join(i.processedDir, base+".wav")
	if err := i.pre.Preprocess(ctx, uploadPath, wavPath); err != nil {
		return "", "", apperrors.ErrPreprocessingFailed(err)
	}

	req.WAVPath = wavPath
	req.BaseName = base

	// Detach from the request context: the response goes out now, the
	// pipeline keeps running.
	go func() {
		_ = i.runner.Run(context.Background(), req)
	}()

	if i.logger != nil {
		i.logger.Info("🎙️ audio accepted",
			zap.String("job_id", base),
			zap.String("source", string(req.Source)),
		)
	}
	return storedName, base, nil
}

func saveMultipart(file *multipart.FileHeader, dst string) error {
	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// Upload is the web ingestion gateway.
type Upload struct {
	ingestor *Ingestor
	logger   *zap.Logger
}

// NewUpload creates the web upload handler.
func NewUpload(ingestor *Ingestor, logger *zap.Logger) *Upload {
	return &Upload{ingestor: ingestor, logger: logger}
}

// uploadAudioRequest is the web upload form. The audio file itself travels
// as a multipart part and is read separately.
type uploadAudioRequest struct {
	DoctorID string `form:"doctor_id" validate:"required"`
}

// UploadAudio handles POST /upload-audio: multipart `file` plus the required
// `doctor_id` form field. Replies immediately once the job is scheduled.
func (h *Upload) UploadAudio(c echo.Context) error {
	var req uploadAudioRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, apperrors.ErrInvalidPayload())
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, apperrors.ErrMissingDoctorID())
	}

	file, err := c.FormFile("file")
	if err != nil {
		return HandleError(h.logger, c, apperrors.ErrMissingAudioFile())
	}

	_, jobID, err := h.ingestor.accept(c.Request().Context(), file, pipeline.Request{
		Source:   entities.SourceWeb,
		DoctorID: req.DoctorID,
	})
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status": "processing",
		"job_id": jobID,
	})
}
