package handler

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/filehost/backend/internal/domain/account"
)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("plan", validPlan)
	}
}

// validPlan accepts only the known plan values
func validPlan(fl validator.FieldLevel) bool {
	return account.Plan(fl.Field().String()).IsValid()
}
