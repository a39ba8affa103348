package api

import (
	"net/http"

	"github.com/Ridhim15/Danam-Application/internal/models"
	"github.com/Ridhim15/Danam-Application/internal/phone"
	"github.com/gin-gonic/gin"
)

// GetSession handles GET /api/session
func (h *Handler) GetSession(c *gin.Context) {
	sess := currentSession(c)
	ctx, cancel := requestContext(c)
	defer cancel()

	resp, err := h.profiles.Get(ctx, sess)
	if err != nil {
		respondError(c, err, "Failed to load profile")
		return
	}
	body := gin.H{
		"session":        sess,
		"profile_exists": resp.Exists,
	}
	if resp.Exists {
		body["role"] = resp.Profile.Role
	}
	c.JSON(http.StatusOK, body)
}

// SignOut handles POST /api/auth/signout
func (h *Handler) SignOut(c *gin.Context) {
	sess := currentSession(c)
	if err := h.sessions.SignOut(sess.ID); err != nil {
		respondError(c, err, "Failed to sign out")
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{Message: "Signed out"})
}

// GetProfile handles GET /api/profile. A caller without a profile gets exists=false.
func (h *Handler) GetProfile(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	resp, err := h.profiles.Get(ctx, currentSession(c))
	if err != nil {
		respondError(c, err, "Failed to load profile")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// SubmitProfile handles PUT /api/profile
func (h *Handler) SubmitProfile(c *gin.Context) {
	var form models.ProfileForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid request body",
			Message: err.Error(),
		})
		return
	}

	sess := currentSession(c)
	if form.Email == "" {
		form.Email = sess.Email
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	p, created, err := h.profiles.Submit(ctx, sess, form)
	if err != nil {
		respondError(c, err, "Failed to save profile")
		return
	}
	status := http.StatusOK
	message := "Profile updated successfully!"
	if created {
		status = http.StatusCreated
		message = "Profile created successfully!"
	}
	c.JSON(status, models.SuccessResponse{Message: message, Data: p})
}

// GetCountryCodes handles GET /api/phone/country-codes
func (h *Handler) GetCountryCodes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"default": phone.DefaultCountryCode,
		"codes":   phone.CountryCodes,
	})
}

// GetNGOs handles GET /api/ngos
func (h *Handler) GetNGOs(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	list, err := h.ngos.List(ctx)
	if err != nil {
		respondError(c, err, "Failed to retrieve NGOs")
		return
	}
	if list == nil {
		list = []models.NGO{}
	}
	c.JSON(http.StatusOK, list)
}

// GetDashboard handles GET /api/ngos/:ngo_id/dashboard
func (h *Handler) GetDashboard(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	totals, err := h.dashboard.Totals(ctx, c.Param("ngo_id"))
	if err != nil {
		respondError(c, err, "Failed to load dashboard")
		return
	}
	c.JSON(http.StatusOK, totals)
}
