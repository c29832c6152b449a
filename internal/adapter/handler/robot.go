package handler

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	apperrors "github.com/medscribe/medscribe/errors"
	"github.com/medscribe/medscribe/internal/domain/entities"
	"github.com/medscribe/medscribe/internal/usecase/pipeline"
	"github.com/medscribe/medscribe/pkg/config"
)

// Robot is the device ingestion gateway. It authenticates a single
// allow-listed device by MAC address and shared secret, and tracks recording
// sessions in memory.
type Robot struct {
	mac    string
	secret string

	mu       sync.Mutex
	sessions map[string]*entities.RobotSession

	ttl           time.Duration
	sweepInterval time.Duration

	ingestor *Ingestor
	logger   *zap.Logger
}

// NewRobot creates the robot handler. The configured MAC is normalized once
// so request-side separator and case differences never matter.
func NewRobot(cfg *config.RobotConfig, ingestor *Ingestor, logger *zap.Logger) *Robot {
	return &Robot{
		mac:           normalizeMAC(cfg.MACAddress),
		secret:        cfg.Secret,
		sessions:      make(map[string]*entities.RobotSession),
		ttl:           cfg.SessionTTL,
		sweepInterval: cfg.SweepInterval,
		ingestor:      ingestor,
		logger:        logger,
	}
}

// normalizeMAC lowercases and canonicalizes separators so aa-bb-cc-dd-ee-ff
// and AA:BB:CC:DD:EE:FF compare equal.
func normalizeMAC(mac string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(mac), "-", ":"))
}

func (h *Robot) authorized(mac, secret string) bool {
	if h.mac == "" || h.secret == "" {
		return false
	}
	macOK := normalizeMAC(mac) == h.mac
	secretOK := subtle.ConstantTimeCompare([]byte(secret), []byte(h.secret)) == 1
	return macOK && secretOK
}

// robotStartRequest carries the device credential pair. Absent credentials
// are indistinguishable from wrong ones on purpose.
type robotStartRequest struct {
	MACAddress string `form:"mac_address" validate:"required"`
	Secret     string `form:"secret" validate:"required"`
}

// robotUploadRequest is the device upload form.
type robotUploadRequest struct {
	MACAddress string `form:"mac_address" validate:"required"`
	Secret     string `form:"secret" validate:"required"`
	DoctorID   string `form:"doctor_id" validate:"required"`
	SessionID  string `form:"session_id"`
}

// StartRecording handles POST /robot/start-recording.
func (h *Robot) StartRecording(c echo.Context) error {
	var req robotStartRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, apperrors.ErrInvalidPayload())
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, apperrors.ErrInvalidRobotCredentials())
	}
	if !h.authorized(req.MACAddress, req.Secret) {
		return HandleError(h.logger, c, apperrors.ErrInvalidRobotCredentials())
	}

	session := entities.NewRobotSession(normalizeMAC(req.MACAddress))

	h.mu.Lock()
	h.sessions[session.SessionID] = session
	h.mu.Unlock()

	if h.logger != nil {
		h.logger.Info("🤖 robot recording started",
			zap.String("session_id", session.SessionID),
		)
	}

	return c.JSON(http.StatusOK, map[string]string{
		"session_id": session.SessionID,
	})
}

// Upload handles POST /robot/upload: credentials plus the required doctor_id,
// the recorded file, and an optional session_id to close out.
func (h *Robot) Upload(c echo.Context) error {
	var req robotUploadRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, apperrors.ErrInvalidPayload())
	}
	if !h.authorized(req.MACAddress, req.Secret) {
		return HandleError(h.logger, c, apperrors.ErrInvalidRobotCredentials())
	}
	// Credentials are known good here, so a validation failure can only be
	// the missing doctor identifier.
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, apperrors.ErrMissingDoctorID())
	}

	file, err := c.FormFile("file")
	if err != nil {
		return HandleError(h.logger, c, apperrors.ErrMissingAudioFile())
	}

	storedName, jobID, err := h.ingestor.accept(c.Request().Context(), file, pipeline.Request{
		Source:   entities.SourceRobot,
		DoctorID: req.DoctorID,
	})
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	// Closing the session is best effort: an unknown or absent session_id
	// never fails an otherwise accepted upload.
	if req.SessionID != "" {
		h.mu.Lock()
		if session, ok := h.sessions[req.SessionID]; ok {
			session.Status = entities.RobotSessionUploaded
			session.Filename = storedName
		}
		h.mu.Unlock()
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status": "processing",
		"job_id": jobID,
	})
}

// GetSession handles GET /robot/session/:id.
func (h *Robot) GetSession(c echo.Context) error {
	sessionID := c.Param("id")

	h.mu.Lock()
	session, ok := h.sessions[sessionID]
	h.mu.Unlock()

	if !ok {
		return HandleError(h.logger, c, apperrors.ErrRobotSessionNotFound(sessionID))
	}
	return c.JSON(http.StatusOK, session)
}

// StartSweeper drops sessions older than the TTL on a fixed interval until
// ctx is cancelled. Sessions live in memory only, so without the sweep an
// abandoned device would grow the map forever.
func (h *Robot) StartSweeper(ctx context.Context) {
	ticker := time.NewTicker(h.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.sweep(time.Now())
		}
	}
}

func (h *Robot) sweep(now time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, session := range h.sessions {
		if now.Sub(session.StartTime) > h.ttl {
			delete(h.sessions, id)
			if h.logger != nil {
				h.logger.Debug("expired robot session dropped",
					zap.String("session_id", id),
				)
			}
		}
	}
}
