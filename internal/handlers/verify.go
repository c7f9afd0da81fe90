// internal/handlers/verify.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/mcsiot/license-server/internal/models"
	"github.com/mcsiot/license-server/internal/services"
)

type VerifyHandler struct {
	licenses *services.LicenseService
}

func NewVerifyHandler(licenses *services.LicenseService) *VerifyHandler {
	return &VerifyHandler{licenses: licenses}
}

// POST /verify
//
// Unauthenticated: devices self-verify with nothing but their id. Business
// outcomes (unknown, disabled, expired) come back as 200 with valid=false;
// only malformed input (400) and store failures (500) change the status.
func (h *VerifyHandler) Verify(c *gin.Context) {
	var req services.VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		msg := "invalid request body"
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msg = "missing device_id"
		}
		c.JSON(http.StatusBadRequest, models.VerificationResult{Valid: false, Error: msg})
		return
	}

	result, err := h.licenses.Verify(c.Request.Context(), &req)
	if err != nil {
		logrus.WithError(err).WithField("device_id", req.DeviceID).Error("License verification failed")
		c.JSON(http.StatusInternalServerError, models.VerificationResult{Valid: false, Error: "Internal Server Error"})
		return
	}

	c.JSON(http.StatusOK, result)
}
