// Package validation checks request payloads against their struct tags and
// reports the first failing field as a domain validation error.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"storefront/internal/model"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})

	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	// maxbytes bounds the encoded length of a string, where max counts runes.
	_ = v.RegisterValidation("maxbytes", func(fl validator.FieldLevel) bool {
		limit, err := strconv.Atoi(fl.Param())
		return err == nil && len(fl.Field().String()) <= limit
	})

	v.RegisterStructValidation(func(sl validator.StructLevel) {
		req := sl.Current().Interface().(model.ProductRequest)
		checkMoney(sl, req.Price, "price", "Price")
	}, model.ProductRequest{})
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		upd := sl.Current().Interface().(model.ProductUpdate)
		if upd.Price != nil {
			checkMoney(sl, *upd.Price, "price", "Price")
		}
	}, model.ProductUpdate{})

	return v
}

// checkMoney enforces the NUMERIC(12,2) shape the type func hides by
// converting decimals to float64.
func checkMoney(sl validator.StructLevel, d decimal.Decimal, name, structName string) {
	switch {
	case !d.Equal(d.Truncate(2)):
		sl.ReportError(d, name, structName, "decimals", "2")
	case d.GreaterThan(model.MaxAmount):
		sl.ReportError(d, name, structName, "lte", model.MaxAmount.StringFixed(2))
	}
}

// Struct validates s and returns a *model.DomainError describing the first
// violation, or nil.
func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		return model.NewValidationError(message(fieldErrs[0]))
	}
	return model.NewValidationError(err.Error())
}

func message(fe validator.FieldError) string {
	field := fieldPath(fe)
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return "Invalid email address"
	case "uuid":
		return fmt.Sprintf("%s must be a valid id", field)
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("At least %s %s required", fe.Param(), field)
		}
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("At most %s %s allowed", fe.Param(), field)
		}
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "decimals":
		return fmt.Sprintf("%s must have at most %s decimal places", field, fe.Param())
	case "maxbytes":
		return fmt.Sprintf("%s must be at most %s bytes", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "gte":
		if fe.Param() == "0" {
			return fmt.Sprintf("%s must be greater than or equal to 0", field)
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// fieldPath strips the root struct name from the namespace so nested fields
// read as "address.city" or "items[0].quantity".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}
