package utils

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"sync"

	"ticketbooth/src/types"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var registerOnce sync.Once

// RegisterValidators makes validation errors report json field names and lets
// numeric rules such as gt=0 apply to decimal amounts.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			for _, tag := range []string{"json", "uri"} {
				name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
				if name != "" && name != "-" {
					return name
				}
			}
			return ""
		})
		v.RegisterCustomTypeFunc(func(field reflect.Value) any {
			if d, ok := field.Interface().(decimal.Decimal); ok {
				f, _ := d.Float64()
				return f
			}
			return nil
		}, decimal.Decimal{})
	})
}

// BindingError turns a gin binding failure into a validation error with one
// entry per offending field.
func BindingError(err error) *types.APIError {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]types.FieldError, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, types.FieldError{Field: fieldPath(fe), Message: fieldMessage(fe)})
		}
		return types.NewValidationError("Validation Error", fields...)
	}
	if errors.Is(err, io.EOF) {
		return types.NewValidationError("Request body is required")
	}
	return types.NewValidationError("Invalid request body", types.FieldError{Field: "body", Message: err.Error()}).Wrap(err)
}

// BindOptionalJSON binds an optional body. An empty body leaves dst untouched.
func BindOptionalJSON(ctx *gin.Context, dst any) error {
	if err := ctx.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		return BindingError(err)
	}
	return nil
}

func ParseID(ctx *gin.Context) (uuid.UUID, error) {
	var params types.SimpleRequestParams
	if err := ctx.ShouldBindUri(&params); err != nil {
		return uuid.Nil, BindingError(err)
	}
	return uuid.MustParse(params.ID), nil
}

// fieldPath drops the top-level struct name from the namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "len":
		return fmt.Sprintf("must be %s characters long", fe.Param())
	case "uuid":
		return "must be a valid UUID"
	}
	return fmt.Sprintf("failed on the '%s' rule", fe.Tag())
}
