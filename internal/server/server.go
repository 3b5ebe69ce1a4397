package server

import (
	"log/slog"

	"github.com/labstack/echo/v4"

	"github.com/Ruthe06/cloudsharefiles/internal/config"
	"github.com/Ruthe06/cloudsharefiles/internal/signaling"
	"github.com/Ruthe06/cloudsharefiles/internal/storage"
	"github.com/Ruthe06/cloudsharefiles/internal/transfer"
)

// Server bundles the relay's HTTP surface: the websocket channel, the chunk
// ingest endpoint, and signed chunk retrieval.
type Server struct {
	cfg      *config.Config
	hub      *signaling.Hub
	gateway  storage.Gateway
	signer   *storage.Signer
	janitor  *transfer.Janitor
	sessions *transfer.SessionRegistry
	logger   *slog.Logger
}

func New(cfg *config.Config, hub *signaling.Hub, gateway storage.Gateway, signer *storage.Signer, janitor *transfer.Janitor, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:      cfg,
		hub:      hub,
		gateway:  gateway,
		signer:   signer,
		janitor:  janitor,
		sessions: transfer.NewSessionRegistry(),
		logger:   logger,
	}
	if janitor != nil {
		janitor.OnSweep = s.sessions.Forget
	}
	return s
}

// Routes registers every handler on the router.
func (s *Server) Routes(e *echo.Echo) {
	e.GET("/health", s.handleHealth)
	e.GET("/ws", s.handleWebsocket)
	e.POST("/api/upload-chunk", s.handleUploadChunk)
	e.GET("/api/chunks/:session/:name", s.handleGetChunk)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.String(200, "relay server is healthy.")
}

// ErrorHandler logs unhandled errors before echo renders them.
func ErrorHandler(e *echo.Echo, logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		logger.Error(err.Error(), slog.String("method", c.Request().Method), slog.String("path", c.Request().URL.Path))
		e.DefaultHTTPErrorHandler(err, c)
	}
}
