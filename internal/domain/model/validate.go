//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	domainauth "github.com/acadly/complaintdesk/internal/domain/auth"
	apperrors "github.com/acadly/complaintdesk/internal/errors"
)

const (
	notBlankTag = "notblank"
	roleTag     = "role"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		// Report JSON names so field errors line up with request bodies.
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation(notBlankTag, func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
		_ = v.RegisterValidation(roleTag, func(fl validator.FieldLevel) bool {
			return domainauth.Role(fl.Field().String()).Valid()
		})
		validate = v
	})
	return validate
}

// validateStruct runs tag validation on s and converts the first failure into
// a field-scoped validation AppError.
func validateStruct(s any) error {
	err := structValidator().Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperrors.Validation(err.Error())
	}
	fe := verrs[0]
	return apperrors.ValidationField(fe.Field(), fieldMessage(fe))
}

func fieldMessage(fe validator.FieldError) string {
	name := fe.Field()
	switch fe.Tag() {
	case "required", notBlankTag:
		return name + " is required"
	case "email":
		return name + " must be a valid email address"
	case "uuid", "uuid4":
		return name + " must be a valid id"
	case "max":
		return fmt.Sprintf("%s cannot exceed %s characters", name, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", name, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", name, strings.ReplaceAll(fe.Param(), " ", ", "))
	case roleTag:
		return name + " must be one of: student, admin, department_officer"
	case "alphanum":
		return name + " must contain only letters and digits"
	default:
		return name + " is invalid"
	}
}

func trimPtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	return &v
}

func emptyToNil(p *string) *string {
	if p == nil || strings.TrimSpace(*p) == "" {
		return nil
	}
	return trimPtr(p)
}
