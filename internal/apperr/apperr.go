package apperr

import (
	"errors"
	"fmt"
)

// Kind identifies the failure class of an Error. Every fallible
// operation in the backend fails with exactly one of these.
type Kind string

const (
	KindHTTPFailure        Kind = "http_failure"
	KindAuthExpired        Kind = "auth_expired"
	KindTimeout            Kind = "timeout"
	KindNetworkUnreachable Kind = "network_unreachable"
	KindInvalidInput       Kind = "invalid_input"
	KindInternalFault      Kind = "internal_fault"
	KindUnknown            Kind = "unknown"
)

// Error is the single error type crossing component boundaries. Status
// is set only for KindHTTPFailure.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.Kind == KindHTTPFailure {
		return fmt.Sprintf("%s (HTTP %d)", e.Message, e.Status)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// New creates an Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates an Error with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error that retains its cause for errors.Is/As chains.
// If err is already an *Error it is returned unchanged so kinds are
// never re-tagged accidentally.
func Wrap(kind Kind, message string, err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return &Error{Kind: kind, Message: message, cause: err}
}

// statusMessages standardizes user-facing text for common HTTP codes.
var statusMessages = map[int]string{
	400: "请求无效，请检查接口地址与参数",
	401: "凭证无效或已过期，请检查 API Key",
	403: "没有访问权限，请检查 API Key",
	404: "接口地址不存在，请检查 Base URL",
	429: "请求过于频繁，已被限流，请稍后重试",
	500: "上游服务内部错误，请稍后重试",
	502: "上游服务暂时不可用，请稍后重试",
	503: "上游服务暂时不可用，请稍后重试",
	504: "上游服务响应超时，请稍后重试",
}

// FromStatus creates an HTTP failure for a non-2xx status. detail is
// upstream-provided error text and is appended when present.
func FromStatus(status int, detail string) *Error {
	msg, ok := statusMessages[status]
	if !ok {
		if status >= 500 {
			msg = statusMessages[500]
		} else {
			msg = fmt.Sprintf("请求失败（HTTP %d）", status)
		}
	}
	if detail != "" {
		msg = msg + ": " + detail
	}
	return &Error{Kind: KindHTTPFailure, Status: status, Message: msg}
}

// KindOf reports the kind of err, or KindUnknown for foreign errors.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindUnknown
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
