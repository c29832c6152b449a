package handler

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/medscribe/medscribe/pkg/config"
)

// Router holds all handlers
type Router struct {
	cfg    *config.Config
	upload *Upload
	robot  *Robot
	status *Status
	report *Report
	logger *zap.Logger
}

// NewRouter creates a new router with all handlers
func NewRouter(cfg *config.Config, upload *Upload, robot *Robot, status *Status, report *Report, logger *zap.Logger) *Router {
	return &Router{
		cfg:    cfg,
		upload: upload,
		robot:  robot,
		status: status,
		report: report,
		logger: logger,
	}
}

// Setup configures all application routes
func (rt *Router) Setup(e *echo.Echo) {
	e.GET("/health", rt.healthCheck)

	e.POST("/upload-audio", rt.upload.UploadAudio)

	robotGroup := e.Group("/robot")
	robotGroup.POST("/start-recording", rt.robot.StartRecording)
	robotGroup.POST("/upload", rt.robot.Upload)
	robotGroup.GET("/session/:id", rt.robot.GetSession)

	e.GET("/status", rt.status.GetStatus)
	e.GET("/download-report/:job_id", rt.report.DownloadReport)
}

// healthCheck returns health status
func (rt *Router) healthCheck(c echo.Context) error {
	return HandleSuccess(rt.logger, c, map[string]string{
		"status":      "ok",
		"environment": rt.cfg.Server.Environment,
	})
}
