package response

import (
	"encoding/json"
	"errors"

	"lawdesk/internal/apperr"
)

// ErrorBody 失败时的错误信息；details 只在校验失败时出现
type ErrorBody struct {
	Message string              `json:"message"`
	Details map[string][]string `json:"details,omitempty"`
}

// Result 统一信封：{success, data} 或 {success:false, error}
type Result[T any] struct {
	Success bool
	Data    T
	Error   *ErrorBody
	Kind    apperr.Kind
}

// MarshalJSON 成功时只有 data，失败时只有 error
func (r Result[T]) MarshalJSON() ([]byte, error) {
	if r.Success {
		return json.Marshal(struct {
			Success bool `json:"success"`
			Data    T    `json:"data"`
		}{true, r.Data})
	}
	return json.Marshal(struct {
		Success bool       `json:"success"`
		Error   *ErrorBody `json:"error"`
	}{false, r.Error})
}

// OK 成功响应
func OK[T any](data T) Result[T] {
	return Result[T]{Success: true, Data: data}
}

// Fail 失败响应；internal / transient 只返回通用文案，不带内部错误
func Fail[T any](err error) Result[T] {
	kind := apperr.KindOf(err)
	body := &ErrorBody{Message: MessageOf(kind)}
	var e *apperr.Error
	if errors.As(err, &e) {
		switch kind {
		case apperr.KindInternal, apperr.KindTransient:
		default:
			if e.Message != "" {
				body.Message = e.Message
			}
			if kind == apperr.KindValidation && len(e.Details) > 0 {
				body.Details = e.Details
			}
		}
	}
	return Result[T]{Error: body, Kind: kind}
}

// Outcome 指标标签：成功为 ok，失败为错误分类
func (r Result[T]) Outcome() string {
	if r.Success {
		return "ok"
	}
	return string(r.Kind)
}

// Status 对应的 HTTP 状态码
func (r Result[T]) Status() int {
	if r.Success {
		return CodeOK
	}
	return StatusOf(r.Kind)
}
