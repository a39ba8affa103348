package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/Ridhim15/Danam-Application/internal/auth"
	"github.com/Ridhim15/Danam-Application/internal/dashboard"
	"github.com/Ridhim15/Danam-Application/internal/donation"
	"github.com/Ridhim15/Danam-Application/internal/jobs"
	"github.com/Ridhim15/Danam-Application/internal/logging"
	"github.com/Ridhim15/Danam-Application/internal/models"
	"github.com/Ridhim15/Danam-Application/internal/ngo"
	"github.com/Ridhim15/Danam-Application/internal/profile"
	"github.com/Ridhim15/Danam-Application/internal/realtime"
	"github.com/Ridhim15/Danam-Application/internal/session"
	"github.com/Ridhim15/Danam-Application/internal/store"
	"github.com/gin-gonic/gin"
)

// requestTimeout bounds every store call made for a request
const requestTimeout = 10 * time.Second

// Options wires the handler's collaborators
type Options struct {
	Store          store.Store
	Sessions       *session.Store
	Verifier       *auth.Verifier
	Bus            realtime.Bus
	Notifier       donation.Notifier
	TransitionMode donation.TransitionMode
}

// Handler handles HTTP requests
type Handler struct {
	store     store.Store
	sessions  *session.Store
	verifier  *auth.Verifier
	bus       realtime.Bus
	ngos      *ngo.Directory
	profiles  *profile.Service
	creator   *donation.Creator
	lifecycle *donation.Lifecycle
	dashboard *dashboard.Aggregator
}

// NewHandler creates a new handler
func NewHandler(opts Options) *Handler {
	dir := ngo.NewDirectory(opts.Store)
	return &Handler{
		store:     opts.Store,
		sessions:  opts.Sessions,
		verifier:  opts.Verifier,
		bus:       opts.Bus,
		ngos:      dir,
		profiles:  profile.NewService(opts.Store),
		creator:   donation.NewCreator(opts.Store, opts.Store, dir, opts.Bus),
		lifecycle: donation.NewLifecycle(opts.Store, opts.Bus, opts.Notifier, opts.TransitionMode),
		dashboard: dashboard.NewAggregator(opts.Store, dir),
	}
}

// Wait blocks until background donor notifications have finished
func (h *Handler) Wait() {
	h.lifecycle.Wait()
}

// requestContext returns the request context bounded by requestTimeout
func requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), requestTimeout)
}

// newBoard builds a job board for the caller
func (h *Handler) newBoard(sess session.Session) *jobs.Board {
	return jobs.NewBoard(sess, h.store, h.store, h.lifecycle)
}

// respondError maps service errors onto status codes
func respondError(c *gin.Context, err error, action string) {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Validation failed",
			Message: verr.Message,
		})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "Not found",
			Message: action + ": resource not found",
		})
	case errors.Is(err, store.ErrConflict):
		c.JSON(http.StatusConflict, models.ErrorResponse{
			Error:   "Status conflict",
			Message: err.Error(),
		})
	default:
		logging.LogKV("error", action, map[string]interface{}{
			"request_id": logging.RequestID(c),
			"error":      err.Error(),
		})
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   action,
			Message: err.Error(),
		})
	}
}

// parseID reads a positive integer path parameter
func parseID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid " + name,
			Message: name + " must be a positive integer",
		})
		return 0, false
	}
	return id, true
}

// Health handles GET /ready
func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.store.Health(ctx); err != nil {
		log.Printf("[DANAM-API] Readiness check failed: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "unhealthy",
			"service": "danam",
			"error":   err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "danam",
		"timestamp": time.Now().UTC(),
	})
}
