package api

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/jaa/ytbr/internal/engine"
)

type createJobRequest struct {
	URL            string `json:"url"`
	DestinationDir string `json:"destination_dir,omitempty"`
}

type jobResponse struct {
	ID         string `json:"id"`
	URL        string `json:"url"`
	Status     string `json:"status"`
	Percent    int    `json:"percent"`
	OutputPath string `json:"output_path,omitempty"`
	Error      string `json:"error,omitempty"`
	Failure    string `json:"failure,omitempty"`
}

// Server exposes the job manager over HTTP so jobs can be submitted and
// polled remotely.
type Server struct {
	manager        *engine.Manager
	destinationDir string
	baseCtx        context.Context
	echo           *echo.Echo
}

// NewServer mounts routes on a fresh echo instance. Jobs run against ctx,
// not the request context, so a finished HTTP request cannot cancel a job
// that is still downloading.
func NewServer(ctx context.Context, manager *engine.Manager, destinationDir string) *Server {
	if ctx == nil {
		ctx = context.Background()
	}
	s := &Server{
		manager:        manager,
		destinationDir: destinationDir,
		baseCtx:        ctx,
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.Logger())
	e.Use(middleware.CORS())

	e.GET("/health", s.health)
	e.POST("/api/jobs", s.createJob)
	e.GET("/api/jobs", s.listJobs)
	e.GET("/api/jobs/:id", s.getJob)

	s.echo = e
	return s
}

// Handler returns the HTTP handler for mounting in tests or custom servers.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) health(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

func (s *Server) createJob(c echo.Context) error {
	var req createJobRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
	}
	if req.URL == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "url is required"})
	}

	dest := req.DestinationDir
	if dest == "" {
		dest = s.destinationDir
	}

	job := s.manager.Submit(s.baseCtx, engine.DownloadRequest{
		URL:            req.URL,
		DestinationDir: dest,
	})
	return c.JSON(http.StatusAccepted, toJobResponse(job))
}

func (s *Server) listJobs(c echo.Context) error {
	jobs := s.manager.List()
	responses := make([]jobResponse, 0, len(jobs))
	for _, job := range jobs {
		responses = append(responses, toJobResponse(job))
	}
	return c.JSON(http.StatusOK, map[string]any{"jobs": responses})
}

func (s *Server) getJob(c echo.Context) error {
	job, ok := s.manager.Get(c.Param("id"))
	if !ok {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "job not found"})
	}
	return c.JSON(http.StatusOK, toJobResponse(job))
}

func toJobResponse(job engine.Job) jobResponse {
	return jobResponse{
		ID:         job.ID,
		URL:        job.Request.URL,
		Status:     string(job.Status),
		Percent:    job.Percent,
		OutputPath: job.OutputPath,
		Error:      job.Error,
		Failure:    string(job.Failure),
	}
}
