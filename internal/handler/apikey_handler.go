package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lms-attendance-api/internal/service"
	appErrors "github.com/noah-isme/lms-attendance-api/pkg/errors"
	"github.com/noah-isme/lms-attendance-api/pkg/response"
)

// APIKeyHandler exposes caller key management endpoints.
type APIKeyHandler struct {
	keys *service.APIKeyService
}

// NewAPIKeyHandler constructs the handler.
func NewAPIKeyHandler(keys *service.APIKeyService) *APIKeyHandler {
	return &APIKeyHandler{keys: keys}
}

// Create godoc
// @Summary Issue a new API key for a customer
// @Tags Keys
// @Accept json
// @Produce json
// @Param payload body service.GenerateKeyRequest true "Key request"
// @Security BearerAuth
// @Success 201 {object} response.Envelope
// @Router /keys [post]
func (h *APIKeyHandler) Create(c *gin.Context) {
	var req service.GenerateKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid key payload"))
		return
	}
	key, err := h.keys.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, key)
}

// List godoc
// @Summary List issued API keys
// @Tags Keys
// @Produce json
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /keys [get]
func (h *APIKeyHandler) List(c *gin.Context) {
	page := 1
	size := 20
	if v, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		page = v
	}
	if v, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		size = v
	}
	keys, pagination, err := h.keys.List(c.Request.Context(), page, size)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, keys, pagination)
}

// Deactivate godoc
// @Summary Deactivate an API key
// @Tags Keys
// @Param id path string true "Key ID"
// @Security BearerAuth
// @Success 204
// @Router /keys/{id} [delete]
func (h *APIKeyHandler) Deactivate(c *gin.Context) {
	if err := h.keys.Deactivate(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
