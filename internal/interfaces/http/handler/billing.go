package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	billingapp "github.com/filehost/backend/internal/application/billing"
	"github.com/filehost/backend/internal/interfaces/http/dto"
)

// BillingHandler serves the revenue dashboard endpoints
type BillingHandler struct {
	BaseHandler
	metrics *billingapp.MetricsService
}

// NewBillingHandler creates a new billing handler
func NewBillingHandler(metrics *billingapp.MetricsService) *BillingHandler {
	return &BillingHandler{metrics: metrics}
}

// RegisterRoutes registers billing routes
func (h *BillingHandler) RegisterRoutes(rg *gin.RouterGroup) {
	billing := rg.Group("/billing")
	{
		billing.GET("/metrics", h.GetMetrics)
		billing.GET("/plan-distribution", h.GetPlanDistribution)
		billing.GET("/failed-payments", h.GetFailedPayments)
	}
}

// GetMetrics returns the headline revenue aggregate
func (h *BillingHandler) GetMetrics(c *gin.Context) {
	metrics, err := h.metrics.GetBillingMetrics(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, metrics)
}

// GetPlanDistribution returns subscriber counts and MRR per plan
func (h *BillingHandler) GetPlanDistribution(c *gin.Context) {
	buckets, err := h.metrics.GetPlanDistribution(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, buckets)
}

// GetFailedPayments returns the filtered, paginated failed-payment report
func (h *BillingHandler) GetFailedPayments(c *gin.Context) {
	var req dto.FailedPaymentsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, "invalid query parameters")
		return
	}

	page, err := h.metrics.GetFailedPayments(c.Request.Context(), billingapp.FailedPaymentsQuery{
		Page:     req.Page,
		PageSize: req.PageSize,
		Plan:     req.Plan,
		Status:   req.Status,
		Email:    req.Email,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}
