package handler

import (
	"reflect"

	"github.com/segyhp/loan-reconciler/internal/domain"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// newValidator validates decimals through their string form and knows the
// domain enums.
func newValidator() *validator.Validate {
	v := validator.New()

	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})

	_ = v.RegisterValidation("decimal_gt0", func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(fl.Field().String())
		return err == nil && d.IsPositive()
	})
	_ = v.RegisterValidation("decimal_gte0", func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(fl.Field().String())
		return err == nil && !d.IsNegative()
	})
	_ = v.RegisterValidation("cadence", func(fl validator.FieldLevel) bool {
		return domain.Cadence(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("kind", func(fl validator.FieldLevel) bool {
		return domain.RepaymentKind(fl.Field().String()).Valid()
	})

	return v
}
