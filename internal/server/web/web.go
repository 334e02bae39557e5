// Package web is the HTTP boundary of the server. Handlers stay thin: they
// bind the request, call a service, and translate the outcome to a status
// code. All state transitions live in the services.
package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lodeworks/quarry/internal/logging"
	"github.com/lodeworks/quarry/internal/server/config"
	"github.com/lodeworks/quarry/internal/server/models"
)

// AccountDirectory is the slice of the account service the handlers call.
type AccountDirectory interface {
	Register(ctx context.Context, username, email, password string) (*models.Account, error)
	FindPrincipalByUsername(ctx context.Context, username string) (*models.Principal, error)
	RequestPasswordReset(ctx context.Context, email string) error
	VerifyPasswordReset(ctx context.Context, email, candidate string, consume bool) (bool, error)
	ResetPassword(ctx context.Context, email, candidate, newPassword string) (bool, error)
	Rename(ctx context.Context, accountID, newName string) error
}

// VersionDirectory is the slice of the version service the handlers call.
type VersionDirectory interface {
	Get(ctx context.Context, versionID int64, perms models.Permission) (*models.Version, error)
	Dependencies(ctx context.Context, versionID int64) ([]models.Dependency, error)
	Project(ctx context.Context, ownerName, slug string, perms models.Permission) (*models.Project, error)
	SoftDelete(ctx context.Context, projectID, versionID int64, comment string) error
	Restore(ctx context.Context, projectID, versionID int64) error
	HardDelete(ctx context.Context, project *models.Project, version *models.Version, comment string) error
	AuditLog(ctx context.Context, projectID int64) ([]models.AuditEntry, error)
	SaveExternalPost(ctx context.Context, versionID, postID int64) error
}

// PasswordVerifier compares a cleartext password with a stored hash.
type PasswordVerifier interface {
	Verify(password, encoded string) (bool, error)
}

type Server struct {
	addr   string
	engine *gin.Engine
	log    logging.Logger
}

func NewServer(cfg *config.Config, accounts AccountDirectory, versions VersionDirectory, verifier PasswordVerifier, log logging.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	secret := []byte(cfg.SecretKey)

	ah := &accountHandler{
		accounts:      accounts,
		verifier:      verifier,
		secret:        secret,
		tokenValidity: cfg.AccessTokenValidityDuration,
		log:           log,
	}
	vh := &versionHandler{versions: versions}

	api := engine.Group("/api/v1")
	{
		api.POST("/signup", ah.signup)
		api.POST("/login", ah.login)
		api.POST("/auth/reset/request", ah.requestReset)
		api.POST("/auth/reset/verify", ah.verifyReset)
		api.POST("/auth/reset", ah.reset)

		api.GET("/projects/:owner/:slug/versions/:id", optionalAuth(secret), vh.get)
	}

	authed := api.Group("", requireAuth(secret))
	{
		authed.POST("/account/rename", ah.rename)

		authed.DELETE("/versions/:id", vh.softDelete)
		authed.POST("/versions/:id/restore", vh.restore)
		authed.DELETE("/projects/:owner/:slug/versions/:id", vh.hardDelete)
		authed.GET("/projects/:owner/:slug/audit", vh.auditLog)
		authed.POST("/versions/:id/post", vh.savePost)
	}

	return &Server{addr: cfg.EndpointAddrHTTP, engine: engine, log: log}
}

// Handler exposes the routing tree, mainly for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{Addr: s.addr, Handler: s.engine}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	s.log.Info(ctx, "http server listening", "addr", s.addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		err := <-errCh
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
