package config

import (
	"fmt"
	"log"
	"os"

	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/medscribe/medscribe/internal/domain/entities"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	Paths     PathsConfig
	Assembly  AssemblyAIConfig
	Groq      GroqConfig
	Translate TranslateConfig
	Pipeline  PipelineConfig
	Watcher   WatcherConfig
	Robot     RobotConfig
	Directory DirectoryConfig
	Storage   StorageConfig
	Doctor    DefaultDoctorConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            string   `envconfig:"PORT" default:"8080"`
	Host            string   `envconfig:"HOST" default:"0.0.0.0"`
	Environment     string   `envconfig:"ENVIRONMENT" default:"development"`
	AllowedOrigins  []string `envconfig:"ALLOWED_ORIGINS" default:"*"`
	ShutdownTimeout int      `envconfig:"SHUTDOWN_TIMEOUT" default:"10"`
}

// PathsConfig holds the artifact directory layout. Every job's transcript,
// summary and report are keyed by the job base name inside these directories.
type PathsConfig struct {
	UploadDir      string `envconfig:"UPLOAD_DIR" default:"data/uploads"`
	ProcessedDir   string `envconfig:"PROCESSED_DIR" default:"data/processed"`
	TranscriptsDir string `envconfig:"TRANSCRIPTS_DIR" default:"data/transcripts"`
	SummariesDir   string `envconfig:"SUMMARIES_DIR" default:"data/summaries"`
	ReportsDir     string `envconfig:"REPORTS_DIR" default:"data/reports"`
	FontsDir       string `envconfig:"FONTS_DIR" default:"fonts"`
	StatusFile     string `envconfig:"STATUS_FILE" default:"data/status.json"`
	ProcessedLog   string `envconfig:"PROCESSED_LOG" default:"data/processed_bluetooth.json"`
	FFmpegBinary   string `envconfig:"FFMPEG_PATH" default:"ffmpeg"`
}

// AssemblyAIConfig holds transcription service configuration
type AssemblyAIConfig struct {
	APIKey string `envconfig:"ASSEMBLYAI_API_KEY"`
}

// GroqConfig holds summarization service configuration
type GroqConfig struct {
	APIKey  string `envconfig:"GROQ_API_KEY"`
	BaseURL string `envconfig:"GROQ_API_URL" default:"https://api.groq.com"`
	Model   string `envconfig:"GROQ_MODEL" default:"llama-3.1-8b-instant"`
}

// TranslateConfig holds translation service configuration
type TranslateConfig struct {
	BaseURL string `envconfig:"TRANSLATE_API_URL" default:"https://translate.googleapis.com"`
}

// PipelineConfig holds orchestrator tuning. The retrying transcription policy
// is the documented default; set TRANSCRIBE_ATTEMPTS=1 for the
// single-attempt configuration.
type PipelineConfig struct {
	TranscribeAttempts   int           `envconfig:"TRANSCRIBE_ATTEMPTS" default:"2"`
	TranscribeRetryDelay time.Duration `envconfig:"TRANSCRIBE_RETRY_DELAY" default:"2s"`
}

// WatcherConfig holds drop-directory watcher configuration
type WatcherConfig struct {
	DropDir      string        `envconfig:"BLUETOOTH_DIR" default:"data/bluetooth"`
	PollInterval time.Duration `envconfig:"WATCHER_POLL_INTERVAL" default:"3s"`
	ReadyTimeout time.Duration `envconfig:"WATCHER_READY_TIMEOUT" default:"20s"`
}

// RobotConfig holds the single allow-listed device credential pair and
// session housekeeping intervals.
type RobotConfig struct {
	MACAddress    string        `envconfig:"ROBOT_MAC_ADDRESS"`
	Secret        string        `envconfig:"ROBOT_SECRET"`
	SessionTTL    time.Duration `envconfig:"ROBOT_SESSION_TTL" default:"24h"`
	SweepInterval time.Duration `envconfig:"ROBOT_SESSION_SWEEP_INTERVAL" default:"10m"`
}

// DirectoryConfig holds the external doctor directory connection. An empty
// DSN disables identifier-resolved report targets; the default doctor is
// used instead.
type DirectoryConfig struct {
	DSN string `envconfig:"DOCTOR_DB_DSN"`
}

// StorageConfig holds the optional report archive (object storage)
type StorageConfig struct {
	Enabled         bool   `envconfig:"STORAGE_ENABLED" default:"false"`
	Endpoint        string `envconfig:"STORAGE_ENDPOINT" default:"localhost:9000"`
	AccessKeyID     string `envconfig:"STORAGE_ACCESS_KEY" default:"minioadmin"`
	SecretAccessKey string `envconfig:"STORAGE_SECRET_KEY" default:"minioadmin"`
	BucketName      string `envconfig:"STORAGE_BUCKET" default:"clinic-reports"`
	UseSSL          bool   `envconfig:"STORAGE_USE_SSL" default:"false"`
}

// DefaultDoctorConfig holds inline letterhead metadata used when a job has no
// doctor identifier to resolve (the drop-directory channel).
type DefaultDoctorConfig struct {
	FullName     string `envconfig:"DOCTOR_FULL_NAME"`
	Degree       string `envconfig:"DOCTOR_DEGREE"`
	ClinicName   string `envconfig:"DOCTOR_CLINIC_NAME"`
	MedicalID    string `envconfig:"DOCTOR_MEDICAL_ID"`
	PhoneNumber  string `envconfig:"DOCTOR_PHONE_NUMBER"`
	WorkLocation string `envconfig:"DOCTOR_WORK_LOCATION"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables or defaults")
	}

	var config Config
	if err := envconfig.Process("", &config); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Assembly.APIKey == "" {
		return fmt.Errorf("ASSEMBLYAI_API_KEY is required")
	}
	if c.Groq.APIKey == "" {
		return fmt.Errorf("GROQ_API_KEY is required")
	}
	return nil
}

// EnsureDirs creates the artifact directories if they do not exist yet.
func (c *Config) EnsureDirs() error {
	dirs := []string{
		c.Paths.UploadDir,
		c.Paths.ProcessedDir,
		c.Paths.TranscriptsDir,
		c.Paths.SummariesDir,
		c.Paths.ReportsDir,
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", d, err)
		}
	}
	return nil
}

// DefaultDoctor returns the configured inline report target, or nil when no
// default letterhead is configured.
func (c *Config) DefaultDoctor() *entities.Doctor {
	if c.Doctor.FullName == "" {
		return nil
	}
	return &entities.Doctor{
		FullName:     c.Doctor.FullName,
		Degree:       c.Doctor.Degree,
		ClinicName:   c.Doctor.ClinicName,
		MedicalID:    c.Doctor.MedicalID,
		PhoneNumber:  c.Doctor.PhoneNumber,
		WorkLocation: c.Doctor.WorkLocation,
	}
}
