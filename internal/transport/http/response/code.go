package response

import (
	"net/http"

	"lawdesk/internal/apperr"
)

const CodeOK = http.StatusOK

// kindStatus 错误分类 -> HTTP 状态码
var kindStatus = map[apperr.Kind]int{
	apperr.KindValidation:   http.StatusBadRequest,
	apperr.KindUnauthorized: http.StatusUnauthorized,
	apperr.KindForbidden:    http.StatusForbidden,
	apperr.KindNotFound:     http.StatusNotFound,
	apperr.KindDuplicate:    http.StatusConflict,
	apperr.KindReference:    http.StatusUnprocessableEntity,
	apperr.KindTransient:    http.StatusServiceUnavailable,
	apperr.KindInternal:     http.StatusInternalServerError,
}

// KindMsgMap 集中管理各分类的默认文案
var KindMsgMap = map[apperr.Kind]string{
	apperr.KindValidation:   "Validation failed",
	apperr.KindUnauthorized: "Unauthorized",
	apperr.KindForbidden:    "Forbidden",
	apperr.KindNotFound:     "Not Found",
	apperr.KindDuplicate:    "Already exists",
	apperr.KindReference:    "Invalid reference",
	apperr.KindTransient:    "Service temporarily unavailable, please retry",
	apperr.KindInternal:     "An unexpected error occurred",
}

func StatusOf(k apperr.Kind) int {
	if s, ok := kindStatus[k]; ok {
		return s
	}
	return http.StatusInternalServerError
}

func MessageOf(k apperr.Kind) string {
	if m, ok := KindMsgMap[k]; ok {
		return m
	}
	return KindMsgMap[apperr.KindInternal]
}
