package service

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"go-gin-feed-api/internal/core/apperr"
	"go-gin-feed-api/internal/domain"
)

const msgValidationFailed = "Validation failed, entered data is incorrect."

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// 违规字段用 json 名输出
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

var fieldMessages = map[string]string{
	"email":    "Please enter a valid email.",
	"password": "Password must be at least 5 characters long.",
	"name":     "Name must not be empty.",
	"title":    "Title must be at least 5 characters long.",
	"content":  "Content must be at least 5 characters long.",
	"status":   "Status must not be empty.",
}

// check 一次性收集全部字段错误，不在第一个错误处返回
func check(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperr.Internal("validation failed", err)
	}
	violations := make([]apperr.Violation, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msg, ok := fieldMessages[fe.Field()]
		if !ok {
			msg = fe.Field() + " is invalid."
		}
		violations = append(violations, apperr.Violation{Field: fe.Field(), Message: msg})
	}
	return apperr.Validation(msgValidationFailed, violations...)
}

func requireAuth(viewer *domain.Identity) error {
	if viewer == nil || viewer.UserID == "" {
		return apperr.Unauthenticated("Not authenticated.")
	}
	return nil
}
