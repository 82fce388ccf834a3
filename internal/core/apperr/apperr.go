package apperr

import (
	"errors"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindConflict
	KindAuth
	KindForbidden
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindAuth:
		return "auth"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	default:
		return "internal"
	}
}

// Status 错误类型 → HTTP 状态码
func (k Kind) Status() int {
	switch k {
	case KindValidation, KindConflict:
		return http.StatusUnprocessableEntity
	case KindAuth:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Violation 单个字段的校验失败
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error 统一的业务错误：Kind + 提示 + 结构化数据 + 原始错误
type Error struct {
	Kind Kind
	Msg  string
	Data any
	Err  error
}

func (e *Error) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Kind.String() + " error"
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Status() int { return e.Kind.Status() }

// Extensions 供 GraphQL 错误格式化使用
func (e *Error) Extensions() map[string]interface{} {
	ext := map[string]interface{}{"status": e.Status()}
	if e.Data != nil {
		ext["data"] = e.Data
	}
	return ext
}

func Validation(msg string, violations ...Violation) error {
	var data any
	if len(violations) > 0 {
		data = violations
	}
	return &Error{Kind: KindValidation, Msg: msg, Data: data}
}
func Conflict(msg string) error        { return &Error{Kind: KindConflict, Msg: msg} }
func Unauthenticated(msg string) error { return &Error{Kind: KindAuth, Msg: msg} }
func Forbidden(msg string) error       { return &Error{Kind: KindForbidden, Msg: msg} }
func NotFound(msg string) error        { return &Error{Kind: KindNotFound, Msg: msg} }
func Internal(msg string, err error) error {
	return &Error{Kind: KindInternal, Msg: msg, Err: err}
}

// As 取出 *Error；非业务错误包装为 Internal
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Kind: KindInternal, Msg: "internal error", Err: err}
}

func KindOf(err error) Kind {
	if err == nil {
		return KindInternal
	}
	return As(err).Kind
}

func Is(err error, k Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == k
}
