package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/medscribe/medscribe/internal/domain/entities"
	"github.com/medscribe/medscribe/pkg/config"
)

func newRobotFixture(t *testing.T) (*Robot, chan struct{}) {
	t.Helper()
	ingestor, ran := newIngestorFixture(t)

	done := make(chan struct{}, 1)
	go func() {
		for range ran {
			done <- struct{}{}
		}
	}()

	cfg := &config.RobotConfig{
		MACAddress:    "AA-BB-CC-DD-EE-FF",
		Secret:        "s3cret",
		SessionTTL:    time.Hour,
		SweepInterval: time.Minute,
	}
	return NewRobot(cfg, ingestor, nil), done
}

func TestStartRecordingRejectsBadCredentials(t *testing.T) {
	h, _ := newRobotFixture(t)
	e := newEcho()

	tests := []struct {
		name   string
		mac    string
		secret string
	}{
		{"wrong mac", "11:22:33:44:55:66", "s3cret"},
		{"wrong secret", "aa:bb:cc:dd:ee:ff", "guess"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := multipartRequest(t, "/robot/start-recording", map[string]string{
				"mac_address": tt.mac,
				"secret":      tt.secret,
			}, false)
			rec := httptest.NewRecorder()

			if err := h.StartRecording(e.NewContext(req, rec)); err != nil {
				t.Fatalf("handler: %v", err)
			}
			if rec.Code != http.StatusForbidden {
				t.Fatalf("status = %d, want 403", rec.Code)
			}
		})
	}
}

func TestStartRecordingNormalizesMAC(t *testing.T) {
	h, _ := newRobotFixture(t)
	e := newEcho()

	// Configured as AA-BB-..., presented colon-separated lowercase.
	req := multipartRequest(t, "/robot/start-recording", map[string]string{
		"mac_address": "aa:bb:cc:dd:ee:ff",
		"secret":      "s3cret",
	}, false)
	rec := httptest.NewRecorder()

	if err := h.StartRecording(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("parse body: %v", err)
	}
	if body["session_id"] == "" {
		t.Fatalf("missing session_id in %v", body)
	}
}

func TestGetSessionLifecycle(t *testing.T) {
	h, done := newRobotFixture(t)
	e := newEcho()

	// Start a session.
	req := multipartRequest(t, "/robot/start-recording", map[string]string{
		"mac_address": "aa:bb:cc:dd:ee:ff",
		"secret":      "s3cret",
	}, false)
	rec := httptest.NewRecorder()
	if err := h.StartRecording(e.NewContext(req, rec)); err != nil {
		t.Fatalf("start: %v", err)
	}
	var started map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &started); err != nil {
		t.Fatalf("parse start body: %v", err)
	}
	sessionID := started["session_id"]

	// Session is visible and recording.
	rec = httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	c.SetPath("/robot/session/:id")
	c.SetParamNames("id")
	c.SetParamValues(sessionID)
	if err := h.GetSession(c); err != nil {
		t.Fatalf("get session: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var session entities.RobotSession
	if err := json.Unmarshal(rec.Body.Bytes(), &session); err != nil {
		t.Fatalf("parse session: %v", err)
	}
	if session.Status != entities.RobotSessionRecording {
		t.Fatalf("session status = %v, want recording", session.Status)
	}

	// Upload with the session_id flips it to uploaded.
	req = multipartRequest(t, "/robot/upload", map[string]string{
		"mac_address": "aa:bb:cc:dd:ee:ff",
		"secret":      "s3cret",
		"doctor_id":   "doc-1",
		"session_id":  sessionID,
	}, true)
	rec = httptest.NewRecorder()
	if err := h.Upload(e.NewContext(req, rec)); err != nil {
		t.Fatalf("upload: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("upload status = %d, body %s", rec.Code, rec.Body.String())
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("pipeline was never scheduled")
	}

	rec = httptest.NewRecorder()
	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	c.SetPath("/robot/session/:id")
	c.SetParamNames("id")
	c.SetParamValues(sessionID)
	if err := h.GetSession(c); err != nil {
		t.Fatalf("get session: %v", err)
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &session); err != nil {
		t.Fatalf("parse session: %v", err)
	}
	if session.Status != entities.RobotSessionUploaded {
		t.Fatalf("session status = %v, want uploaded", session.Status)
	}
	if session.Filename == "" {
		t.Fatalf("uploaded session should record the stored filename")
	}
}

func TestGetSessionUnknown(t *testing.T) {
	h, _ := newRobotFixture(t)
	e := newEcho()

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	c.SetPath("/robot/session/:id")
	c.SetParamNames("id")
	c.SetParamValues("nope")

	if err := h.GetSession(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestRobotUploadRequiresCredentialsAndDoctor(t *testing.T) {
	h, done := newRobotFixture(t)
	e := newEcho()

	// Bad credentials: 403 before anything else is looked at.
	req := multipartRequest(t, "/robot/upload", map[string]string{
		"mac_address": "aa:bb:cc:dd:ee:ff",
		"secret":      "wrong",
		"doctor_id":   "doc-1",
	}, true)
	rec := httptest.NewRecorder()
	if err := h.Upload(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}

	// Valid credentials but no doctor_id: 400.
	req = multipartRequest(t, "/robot/upload", map[string]string{
		"mac_address": "aa:bb:cc:dd:ee:ff",
		"secret":      "s3cret",
	}, true)
	rec = httptest.NewRecorder()
	if err := h.Upload(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	select {
	case <-done:
		t.Fatalf("pipeline must not run for rejected uploads")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSweepDropsExpiredSessions(t *testing.T) {
	h, _ := newRobotFixture(t)
	h.ttl = time.Minute

	fresh := entities.NewRobotSession("aa:bb:cc:dd:ee:ff")
	stale := entities.NewRobotSession("aa:bb:cc:dd:ee:ff")
	stale.StartTime = time.Now().Add(-2 * time.Minute)

	h.mu.Lock()
	h.sessions[fresh.SessionID] = fresh
	h.sessions[stale.SessionID] = stale
	h.mu.Unlock()

	h.sweep(time.Now())

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.sessions[stale.SessionID]; ok {
		t.Fatalf("stale session should be swept")
	}
	if _, ok := h.sessions[fresh.SessionID]; !ok {
		t.Fatalf("fresh session must survive the sweep")
	}
}
