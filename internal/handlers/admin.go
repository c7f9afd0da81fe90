// internal/handlers/admin.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/mcsiot/license-server/internal/services"
	"github.com/mcsiot/license-server/internal/utils"
)

type AdminHandler struct {
	admin *services.AdminService
}

func NewAdminHandler(admin *services.AdminService) *AdminHandler {
	return &AdminHandler{admin: admin}
}

// POST /admin/add
func (h *AdminHandler) AddLicense(c *gin.Context) {
	var req services.UpsertLicenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "invalid license payload", utils.GetValidationErrors(err))
		return
	}

	rec, err := h.admin.UpsertLicense(c.Request.Context(), &req)
	if err != nil {
		logrus.WithError(err).WithField("device_id", req.DeviceID).Error("Failed to store license")
		utils.InternalErrorResponse(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": rec})
}

// POST /admin/delete
func (h *AdminHandler) Delete(c *gin.Context) {
	var req services.DeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "invalid delete payload", utils.GetValidationErrors(err))
		return
	}

	if err := h.admin.Delete(c.Request.Context(), &req); err != nil {
		if errors.Is(err, services.ErrInvalidRequest) {
			utils.BadRequestResponse(c, err.Error(), nil)
			return
		}
		logrus.WithError(err).Error("Failed to delete entry")
		utils.InternalErrorResponse(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GET /admin/list
func (h *AdminHandler) ListLicenses(c *gin.Context) {
	licenses, err := h.admin.ListLicenses(c.Request.Context())
	if err != nil {
		logrus.WithError(err).Error("Failed to list licenses")
		utils.InternalErrorResponse(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{"licenses": licenses})
}

// GET /admin/tamper-logs
func (h *AdminHandler) ListTamperLogs(c *gin.Context) {
	logs, err := h.admin.ListTamperLogs(c.Request.Context())
	if err != nil {
		logrus.WithError(err).Error("Failed to list tamper logs")
		utils.InternalErrorResponse(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{"tamper_logs": logs})
}
