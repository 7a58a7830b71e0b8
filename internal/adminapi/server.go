package adminapi

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jroosing/udpforge/internal/config"
	"github.com/jroosing/udpforge/internal/snapshotdb"
	"github.com/jroosing/udpforge/internal/udpcore"
)

// Server is the admin REST API server: a thin read-only window onto a
// running udpcore.MainServer's groups and, if configured, its recorded
// history.
//
// Security note: do not expose this to untrusted networks without setting
// admin.api_key.
type Server struct {
	cfg        *config.Config
	logger     *slog.Logger
	engine     *gin.Engine
	httpServer *http.Server
}

// New builds a Server. history may be nil when no database.path is set.
func New(cfg *config.Config, srv *udpcore.MainServer, history *snapshotdb.DB, logger *slog.Logger) *Server {
	if cfg == nil {
		panic("adminapi.New: cfg is nil")
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(slogRequestLogger(logger))

	h := NewHandler(srv, history, logger)
	registerRoutes(engine, h, cfg.Admin.APIKey)

	addr := net.JoinHostPort(cfg.Admin.Host, strconv.Itoa(cfg.Admin.Port))
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &Server{cfg: cfg, logger: logger, engine: engine, httpServer: httpServer}
}

func (s *Server) Addr() string {
	if s.httpServer == nil {
		return ""
	}
	return s.httpServer.Addr
}

func (s *Server) Engine() *gin.Engine { return s.engine }

func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
