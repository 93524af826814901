package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lms-attendance-api/internal/models"
	"github.com/noah-isme/lms-attendance-api/internal/service"
	appErrors "github.com/noah-isme/lms-attendance-api/pkg/errors"
	"github.com/noah-isme/lms-attendance-api/pkg/response"
)

// AuthHandler exposes the admin token endpoint.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Token godoc
// @Summary Exchange admin credentials for an access token
// @Tags Auth
// @Accept json
// @Produce json
// @Param payload body models.TokenRequest true "Admin credentials"
// @Success 200 {object} response.Envelope
// @Router /auth/token [post]
func (h *AuthHandler) Token(c *gin.Context) {
	var req models.TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid login payload"))
		return
	}
	res, err := h.auth.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}
