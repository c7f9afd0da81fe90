// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mcsiot/license-server/internal/admin"
	"github.com/mcsiot/license-server/internal/config"
	"github.com/mcsiot/license-server/internal/handlers"
	"github.com/mcsiot/license-server/internal/middleware"
	"github.com/mcsiot/license-server/internal/services"
	"github.com/mcsiot/license-server/internal/store"
)

func Initialize(st store.Store, cfg *config.Config) *gin.Engine {
	// Initialize services
	licenseService := services.NewLicenseService(st)
	adminService := services.NewAdminService(st)

	// Initialize handlers
	verifyHandler := handlers.NewVerifyHandler(licenseService)
	adminHandler := handlers.NewAdminHandler(adminService)

	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS())

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	// Device-facing verification, unauthenticated
	r.POST("/verify", verifyHandler.Verify)

	// Admin console page (the token check happens in the API it calls)
	r.GET("/admin", admin.Page)

	// Management API
	adm := r.Group("/admin")
	adm.Use(middleware.AdminAuth(cfg.Admin.Token))
	{
		adm.POST("/add", adminHandler.AddLicense)
		adm.POST("/delete", adminHandler.Delete)
		adm.GET("/list", adminHandler.ListLicenses)
		adm.GET("/tamper-logs", adminHandler.ListTamperLogs)
	}

	return r
}
