package session

import (
	"errors"
	"fmt"
)

// Kind классифицирует исход неудачной сессии
type Kind string

const (
	KindTimeout       Kind = "timeout"
	KindNotFound      Kind = "not_found"
	KindConnectFailed Kind = "connect_failed"
	KindProtocol      Kind = "protocol_error"
)

// Sentinel-значения для errors.Is: совпадение определяется по Kind
var (
	ErrTimeout       = &Error{Kind: KindTimeout}
	ErrNotFound      = &Error{Kind: KindNotFound}
	ErrConnectFailed = &Error{Kind: KindConnectFailed}
	ErrProtocol      = &Error{Kind: KindProtocol}
)

// Error результат сессии, завершившейся без снимка
type Error struct {
	Kind   Kind
	Detail string
	Err    error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is сравнивает ошибки по Kind, чтобы работал errors.Is(err, session.ErrTimeout)
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf возвращает Kind ошибки сессии или пустую строку
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func newError(kind Kind, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...), Err: err}
}
