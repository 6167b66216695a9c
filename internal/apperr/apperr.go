package apperr

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"gorm.io/gorm"
)

// Kind 错误分类，决定对外的 HTTP 状态与是否可重试
type Kind string

const (
	KindValidation   Kind = "validation"
	KindDuplicate    Kind = "duplicate"
	KindReference    Kind = "reference"
	KindNotFound     Kind = "not_found"
	KindTransient    Kind = "transient"
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindInternal     Kind = "internal"
)

// Error 统一错误对象
type Error struct {
	Kind    Kind
	Message string
	Details map[string][]string // 仅 validation 使用：字段 -> 违规信息
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(details map[string][]string) error {
	return &Error{Kind: KindValidation, Message: "Validation failed", Details: details}
}

// Field 单字段校验失败
func Field(field, msg string) error {
	return Validation(map[string][]string{field: {msg}})
}

func Duplicate(msg string) error { return &Error{Kind: KindDuplicate, Message: msg} }
func Reference(msg string) error { return &Error{Kind: KindReference, Message: msg} }

// NotFound entity 如 "Case"，消息为 "Case not found"
func NotFound(entity string) error {
	return &Error{Kind: KindNotFound, Message: entity + " not found"}
}

func Unauthorized(msg string) error { return &Error{Kind: KindUnauthorized, Message: msg} }
func Forbidden(msg string) error    { return &Error{Kind: KindForbidden, Message: msg} }

func Internal(msg string, err error) error {
	return &Error{Kind: KindInternal, Message: msg, Err: err}
}

func Transient(msg string, err error) error {
	return &Error{Kind: KindTransient, Message: msg, Err: err}
}

// KindOf 非 *Error 一律视为 internal
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is 判断 err 是否为指定分类
func Is(err error, k Kind) bool { return err != nil && KindOf(err) == k }

// FromStore 将存储层错误归类；已分类的错误原样返回
func FromStore(op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	switch {
	case IsDupKey(err):
		return &Error{Kind: KindDuplicate, Message: "duplicate record", Err: err}
	case isTransient(err):
		return Transient(op+" failed", fmt.Errorf("%s: %w", op, err))
	default:
		return Internal(op+" failed", fmt.Errorf("%s: %w", op, err))
	}
}

// IsDupKey 不完全依赖 gorm.ErrDuplicatedKey（需要 TranslateError），按驱动文本兜底
func IsDupKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "duplicate entry") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique violation")
}

func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, driver.ErrBadConn) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "i/o timeout")
}
