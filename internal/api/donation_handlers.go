package api

import (
	"context"
	"io"
	"net/http"

	"github.com/Ridhim15/Danam-Application/internal/models"
	"github.com/gin-gonic/gin"
)

// CreateDonation handles POST /api/donations
func (h *Handler) CreateDonation(c *gin.Context) {
	var req models.CreateDonationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid request body",
			Message: err.Error(),
		})
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	d, err := h.creator.Create(ctx, currentSession(c), req)
	if err != nil {
		respondError(c, err, "Failed to schedule pickup")
		return
	}
	c.JSON(http.StatusCreated, models.SuccessResponse{
		Message: "Donation request submitted successfully!",
		Data:    d,
	})
}

// GetMyDonations handles GET /api/donations
func (h *Handler) GetMyDonations(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	list, err := h.creator.ListMine(ctx, currentSession(c))
	if err != nil {
		respondError(c, err, "Failed to retrieve donations")
		return
	}
	if list == nil {
		list = []models.DonationRequest{}
	}
	c.JSON(http.StatusOK, list)
}

// GetDonationHistory handles GET /api/donations/:donation_id/history.
// Donors see their own donations; volunteers see any.
func (h *Handler) GetDonationHistory(c *gin.Context) {
	id, ok := parseID(c, "donation_id")
	if !ok {
		return
	}
	sess := currentSession(c)
	ctx, cancel := requestContext(c)
	defer cancel()

	d, err := h.store.GetDonation(ctx, id)
	if err != nil {
		respondError(c, err, "Failed to load donation")
		return
	}
	if d.UID != sess.Identity {
		role, err := h.profiles.Role(ctx, sess.Identity)
		if err != nil || role != models.RoleVolunteer {
			c.JSON(http.StatusForbidden, models.ErrorResponse{
				Error:   "Access denied",
				Message: "You can only view the history of your own donations",
			})
			return
		}
	}

	history, err := h.lifecycle.History(ctx, id)
	if err != nil {
		respondError(c, err, "Failed to load donation history")
		return
	}
	if history == nil {
		history = []models.DonationStatusChange{}
	}
	c.JSON(http.StatusOK, gin.H{"donation": d, "history": history})
}

// GetJobs handles GET /api/volunteer/jobs
func (h *Handler) GetJobs(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	board := h.newBoard(currentSession(c))
	if err := board.Refresh(ctx); err != nil {
		respondError(c, err, "Failed to load jobs")
		return
	}
	c.JSON(http.StatusOK, board.Snapshot())
}

// AcceptJob handles PUT /api/volunteer/jobs/:donation_id/accept
func (h *Handler) AcceptJob(c *gin.Context) {
	id, ok := parseID(c, "donation_id")
	if !ok {
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	job, err := h.newBoard(currentSession(c)).Accept(ctx, id)
	if err != nil {
		respondError(c, err, "Failed to accept donation")
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{Message: "Donation accepted", Data: job})
}

// CompleteJob handles PUT /api/volunteer/jobs/:donation_id/complete
func (h *Handler) CompleteJob(c *gin.Context) {
	id, ok := parseID(c, "donation_id")
	if !ok {
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	job, err := h.newBoard(currentSession(c)).Complete(ctx, id)
	if err != nil {
		respondError(c, err, "Failed to complete donation")
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{Message: "Donation marked as completed", Data: job})
}

// StreamJobs handles GET /api/volunteer/jobs/stream as server-sent events.
// The stream ends when the client goes away or the session signs out.
func (h *Handler) StreamJobs(c *gin.Context) {
	sess := currentSession(c)
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()
	go func(done <-chan struct{}) {
		select {
		case <-done:
			cancel()
		case <-ctx.Done():
		}
	}(h.sessions.Done(sess.ID))

	updates := make(chan models.JobBoard, 1)
	watchErr := make(chan error, 1)
	go func() {
		watchErr <- h.newBoard(sess).Watch(ctx, h.bus, func(jb models.JobBoard) {
			latestOnly(updates, jb)
		})
	}()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	c.Stream(func(w io.Writer) bool {
		select {
		case jb := <-updates:
			c.SSEvent("jobs", jb)
			return true
		case err := <-watchErr:
			if err != nil && ctx.Err() == nil {
				c.SSEvent("error", models.ErrorResponse{Error: "Job stream failed", Message: err.Error()})
			}
			return false
		case <-ctx.Done():
			return false
		}
	})
}

// latestOnly replaces any unread board with jb; there is a single writer
func latestOnly(ch chan models.JobBoard, jb models.JobBoard) {
	select {
	case ch <- jb:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	ch <- jb
}
