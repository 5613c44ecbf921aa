package dto

import (
	"github.com/SscSPs/bank_reconciliation/internal/core/domain"
	"github.com/go-playground/validator/v10"
)

// RegisterValidators adds the custom binding tags used by the request DTOs.
func RegisterValidators(v *validator.Validate) error {
	return v.RegisterValidation("yearmonth", validateYearMonth)
}

// validateYearMonth accepts YYYY-MM period keys.
func validateYearMonth(fl validator.FieldLevel) bool {
	_, err := domain.ParsePeriod(fl.Field().String())
	return err == nil
}
