package entities

import (
	"time"

	"github.com/google/uuid"
)

// RobotSessionStatus tracks a recording session's lifecycle on the device.
type RobotSessionStatus string

const (
	RobotSessionRecording RobotSessionStatus = "recording"
	RobotSessionUploaded  RobotSessionStatus = "uploaded"
)

// RobotSession tracks one device recording session from start-recording to
// upload. Sessions live in process memory only and are swept after a bounded
// TTL.
type RobotSession struct {
	SessionID  string             `json:"session_id"`
	Status     RobotSessionStatus `json:"status"`
	StartTime  time.Time          `json:"start_time"`
	MACAddress string             `json:"mac_address"`
	Filename   string             `json:"filename,omitempty"`
}

// NewRobotSession creates a session in the recording state.
func NewRobotSession(macAddress string) *RobotSession {
	return &RobotSession{
		SessionID:  uuid.NewString(),
		Status:     RobotSessionRecording,
		StartTime:  time.Now(),
		MACAddress: macAddress,
	}
}
