package api

import (
	"net/http"

	"github.com/Ridhim15/Danam-Application/internal/logging"
	"github.com/Ridhim15/Danam-Application/internal/models"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// SetupRouter registers every route on a new engine
func SetupRouter(h *Handler, corsOrigins []string) *gin.Engine {
	router := gin.New()

	router.Use(logging.JSONLogger())
	router.Use(gin.Recovery())

	corsCfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization", logging.RequestIDHeader},
	}
	if len(corsOrigins) == 0 || (len(corsOrigins) == 1 && corsOrigins[0] == "*") {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = corsOrigins
	}
	router.Use(cors.New(corsCfg))

	// Health and readiness endpoints
	router.GET("/live", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/ready", h.Health)
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	apiGroup := router.Group("/api")
	apiGroup.Use(h.AuthMiddleware())
	{
		apiGroup.GET("/session", h.GetSession)
		apiGroup.POST("/auth/signout", h.SignOut)

		apiGroup.GET("/profile", h.GetProfile)
		apiGroup.PUT("/profile", h.SubmitProfile)
		apiGroup.GET("/phone/country-codes", h.GetCountryCodes)

		apiGroup.GET("/ngos", h.GetNGOs)
		apiGroup.GET("/ngos/:ngo_id/dashboard", h.GetDashboard)

		apiGroup.POST("/donations", h.CreateDonation)
		apiGroup.GET("/donations", h.GetMyDonations)
		apiGroup.GET("/donations/:donation_id/history", h.GetDonationHistory)
	}

	volunteer := router.Group("/api/volunteer")
	volunteer.Use(h.AuthMiddleware(), h.RequireRole(models.RoleVolunteer))
	{
		volunteer.GET("/jobs", h.GetJobs)
		volunteer.GET("/jobs/stream", h.StreamJobs)
		volunteer.PUT("/jobs/:donation_id/accept", h.AcceptJob)
		volunteer.PUT("/jobs/:donation_id/complete", h.CompleteJob)
	}

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service": "danam",
			"version": "1.0.0",
			"status":  "running",
		})
	})

	return router
}
