package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/medscribe/medscribe/internal/domain/entities"
	"github.com/medscribe/medscribe/internal/usecase/pipeline"
	pkgvalidator "github.com/medscribe/medscribe/pkg/validator"
)

// newEcho returns an echo instance with the validator bridge registered,
// matching the server setup; handlers bind and validate request forms.
func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = pkgvalidator.New()
	return e
}

type fakePre struct {
	fn func(ctx context.Context, inputPath, outputWAV string) error
}

func (f *fakePre) Preprocess(ctx context.Context, inputPath, outputWAV string) error {
	if f.fn == nil {
		return nil
	}
	return f.fn(ctx, inputPath, outputWAV)
}

type fakeRunner struct {
	fn func(ctx context.Context, req pipeline.Request) error
}

func (f *fakeRunner) Run(ctx context.Context, req pipeline.Request) error {
	return f.fn(ctx, req)
}

// newIngestorFixture wires an ingestor whose runner forwards every request
// into the returned channel.
func newIngestorFixture(t *testing.T) (*Ingestor, chan pipeline.Request) {
	t.Helper()
	root := t.TempDir()
	uploadDir := filepath.Join(root, "uploads")
	processedDir := filepath.Join(root, "processed")
	for _, d := range []string{uploadDir, processedDir} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", d, err)
		}
	}

	ran := make(chan pipeline.Request, 1)
	runner := &fakeRunner{fn: func(ctx context.Context, req pipeline.Request) error {
		ran <- req
		return nil
	}}
	return NewIngestor(uploadDir, processedDir, &fakePre{}, runner, nil), ran
}

// multipartRequest builds a POST with the given form fields and one audio
// file part.
func multipartRequest(t *testing.T, target string, fields map[string]string, withFile bool) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write field %s: %v", k, err)
		}
	}
	if withFile {
		part, err := w.CreateFormFile("file", "consult.wav")
		if err != nil {
			t.Fatalf("create file part: %v", err)
		}
		if _, err := part.Write([]byte("pcm-bytes")); err != nil {
			t.Fatalf("write file part: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	return req
}

func awaitRequest(t *testing.T, ch chan pipeline.Request) pipeline.Request {
	t.Helper()
	select {
	case req := <-ch:
		return req
	case <-time.After(2 * time.Second):
		t.Fatalf("pipeline was never scheduled")
		return pipeline.Request{}
	}
}

func TestUploadAudioMissingDoctorID(t *testing.T) {
	ingestor, ran := newIngestorFixture(t)
	h := NewUpload(ingestor, nil)

	e := newEcho()
	req := multipartRequest(t, "/upload-audio", nil, true)
	rec := httptest.NewRecorder()

	if err := h.UploadAudio(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	select {
	case <-ran:
		t.Fatalf("pipeline must not run for a rejected upload")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestUploadAudioMissingFile(t *testing.T) {
	ingestor, _ := newIngestorFixture(t)
	h := NewUpload(ingestor, nil)

	e := newEcho()
	req := multipartRequest(t, "/upload-audio", map[string]string{"doctor_id": "doc-1"}, false)
	rec := httptest.NewRecorder()

	if err := h.UploadAudio(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestUploadAudioAccepted(t *testing.T) {
	ingestor, ran := newIngestorFixture(t)
	h := NewUpload(ingestor, nil)

	e := newEcho()
	req := multipartRequest(t, "/upload-audio", map[string]string{"doctor_id": "doc-1"}, true)
	rec := httptest.NewRecorder()

	if err := h.UploadAudio(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("parse body: %v", err)
	}
	if body["status"] != "processing" {
		t.Fatalf("body = %v", body)
	}
	if !strings.HasSuffix(body["job_id"], "_consult") {
		t.Fatalf("job_id %q should derive from the uploaded filename", body["job_id"])
	}

	scheduled := awaitRequest(t, ran)
	if scheduled.Source != entities.SourceWeb {
		t.Fatalf("source = %v, want web", scheduled.Source)
	}
	if scheduled.DoctorID != "doc-1" {
		t.Fatalf("doctor_id = %q", scheduled.DoctorID)
	}
	if scheduled.BaseName != body["job_id"] {
		t.Fatalf("scheduled base %q != returned job_id %q", scheduled.BaseName, body["job_id"])
	}

	// The raw upload was staged before the reply.
	entries, err := os.ReadDir(ingestor.uploadDir)
	if err != nil || len(entries) != 1 {
		t.Fatalf("upload dir entries = %v, err = %v", entries, err)
	}
}

func TestUploadAudioPreprocessFailure(t *testing.T) {
	ingestor, ran := newIngestorFixture(t)
	ingestor.pre = &fakePre{fn: func(ctx context.Context, in, out string) error {
		return fmt.Errorf("ffmpeg exited 1")
	}}
	h := NewUpload(ingestor, nil)

	e := newEcho()
	req := multipartRequest(t, "/upload-audio", map[string]string{"doctor_id": "doc-1"}, true)
	rec := httptest.NewRecorder()

	if err := h.UploadAudio(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}

	select {
	case <-ran:
		t.Fatalf("pipeline must not run when preprocessing fails")
	case <-time.After(50 * time.Millisecond):
	}
}
