package dto

// ErrorResponse is the uniform error payload. NeedsPaymentMethod is set
// only when an upgrade is blocked on card collection, so callers can
// route the user to the payment form instead of a dead-end error.
type ErrorResponse struct {
	Error              string `json:"error"`
	NeedsPaymentMethod bool   `json:"needsPaymentMethod,omitempty"`
}

// NewErrorResponse creates an error response
func NewErrorResponse(message string) ErrorResponse {
	return ErrorResponse{Error: message}
}

// PlanChangeResponse reports the persisted account state after a plan change
type PlanChangeResponse struct {
	OK          bool   `json:"ok"`
	AccountID   string `json:"accountId"`
	Plan        string `json:"plan"`
	UploadLimit int64  `json:"uploadLimit"`
	CustomerID  string `json:"customerId,omitempty"`
}

// AccountStatusResponse reports an activation state transition
type AccountStatusResponse struct {
	OK        bool   `json:"ok"`
	AccountID string `json:"accountId"`
	Status    string `json:"status"`
	IsActive  bool   `json:"isActive"`
}

// AccountDeletedResponse confirms a completed account deletion
type AccountDeletedResponse struct {
	OK        bool   `json:"ok"`
	AccountID string `json:"accountId"`
	Deleted   bool   `json:"deleted"`
}

// WebhookAckResponse acknowledges a provider webhook delivery
type WebhookAckResponse struct {
	Received  bool   `json:"received"`
	Duplicate bool   `json:"duplicate,omitempty"`
	Message   string `json:"message,omitempty"`
}

// ChangePlanRequest carries the target plan for an account. The "plan"
// binding rule is registered by the handler package.
type ChangePlanRequest struct {
	Plan string `json:"plan" binding:"required,plan"`
}

// FailedPaymentsRequest carries the failed-payments report filters
type FailedPaymentsRequest struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"pageSize" binding:"omitempty,min=1,max=100"`
	Plan     string `form:"plan"`
	Status   string `form:"status"`
	Email    string `form:"email"`
}
