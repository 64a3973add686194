package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	billingapp "github.com/filehost/backend/internal/application/billing"
	"github.com/filehost/backend/internal/domain/account"
	"github.com/filehost/backend/internal/interfaces/http/dto"
)

// AccountHandler drives the per-account plan and lifecycle endpoints
type AccountHandler struct {
	BaseHandler
	subscriptions *billingapp.SubscriptionService
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(subscriptions *billingapp.SubscriptionService) *AccountHandler {
	return &AccountHandler{subscriptions: subscriptions}
}

// RegisterRoutes registers account routes
func (h *AccountHandler) RegisterRoutes(rg *gin.RouterGroup) {
	accounts := rg.Group("/accounts")
	{
		accounts.POST("/:id/plan", h.ChangePlan)
		accounts.POST("/:id/deactivate", h.Deactivate)
		accounts.POST("/:id/reactivate", h.Reactivate)
		accounts.DELETE("/:id", h.Delete)
	}
}

// ChangePlan switches an account between the free and plus plans
func (h *AccountHandler) ChangePlan(c *gin.Context) {
	id, ok := parseAccountID(c)
	if !ok {
		return
	}

	var req dto.ChangePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "a valid plan is required")
		return
	}

	result, err := h.subscriptions.ChangePlan(c.Request.Context(), id, account.Plan(req.Plan))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.PlanChangeResponse{
		OK:          true,
		AccountID:   result.AccountID.String(),
		Plan:        string(result.Plan),
		UploadLimit: result.UploadLimit,
		CustomerID:  result.CustomerID,
	})
}

// Deactivate bans the account and pauses collection on its subscriptions
func (h *AccountHandler) Deactivate(c *gin.Context) {
	id, ok := parseAccountID(c)
	if !ok {
		return
	}

	if err := h.subscriptions.Deactivate(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.AccountStatusResponse{
		OK:        true,
		AccountID: id.String(),
		Status:    "deactivated",
		IsActive:  false,
	})
}

// Reactivate lifts the ban and resumes paused subscriptions
func (h *AccountHandler) Reactivate(c *gin.Context) {
	id, ok := parseAccountID(c)
	if !ok {
		return
	}

	if err := h.subscriptions.Reactivate(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.AccountStatusResponse{
		OK:        true,
		AccountID: id.String(),
		Status:    "reactivated",
		IsActive:  true,
	})
}

// Delete tears down the account, its provider state, and its content
func (h *AccountHandler) Delete(c *gin.Context) {
	id, ok := parseAccountID(c)
	if !ok {
		return
	}

	if err := h.subscriptions.DeleteAccount(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.AccountDeletedResponse{
		OK:        true,
		AccountID: id.String(),
		Deleted:   true,
	})
}
