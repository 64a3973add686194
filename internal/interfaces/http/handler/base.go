package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/filehost/backend/internal/domain/shared"
	"github.com/filehost/backend/internal/interfaces/http/dto"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// parseAccountID extracts the account id path parameter
func parseAccountID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse("invalid account id"))
		return uuid.Nil, false
	}
	return id, true
}

// BadRequest sends a 400 response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, dto.NewErrorResponse(message))
}

// HandleError maps a typed error to its status and payload. Domain
// errors carry their own code; everything else, provider failures
// included, surfaces its message verbatim as a 500 so operators see
// the real cause.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		body := dto.NewErrorResponse(domainErr.Message)
		if domainErr.Code == dto.CodeNeedsPaymentMethod {
			body.NeedsPaymentMethod = true
		}
		c.JSON(dto.StatusForCode(domainErr.Code), body)
		return
	}

	c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(err.Error()))
}
