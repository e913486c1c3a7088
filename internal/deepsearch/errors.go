package deepsearch

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Kind classifies a failed invocation.
type Kind string

const (
	KindConfig   Kind = "config"   // invalid valve value or empty query
	KindAuth     Kind = "auth"     // missing or rejected API key
	KindNetwork  Kind = "network"  // connection failure, broken stream
	KindTimeout  Kind = "timeout"  // configured timeout elapsed
	KindRemote   Kind = "remote"   // non-success status from Jina
	KindCanceled Kind = "canceled" // caller cancelled the context
)

// Error is returned by every failing Search call. Only the single
// invocation fails; nothing here is fatal to the host.
type Error struct {
	Kind    Kind
	Status  int    // HTTP status, set for remote and rejected-key errors
	Body    string // trimmed response body of a non-success reply
	Message string
	Err     error
}

// Sentinels for errors.Is. They match any *Error of the same Kind.
var (
	ErrConfig   = &Error{Kind: KindConfig}
	ErrAuth     = &Error{Kind: KindAuth}
	ErrNetwork  = &Error{Kind: KindNetwork}
	ErrTimeout  = &Error{Kind: KindTimeout}
	ErrRemote   = &Error{Kind: KindRemote}
	ErrCanceled = &Error{Kind: KindCanceled}
)

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind) + " error"
	}
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Status)
	}
	if e.Body != "" {
		msg += ": " + e.Body
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == "" && t.Status == 0 && t.Body == "" && t.Err == nil
}

// KindOf returns the Kind of err, or "" if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// classify turns a transport-level failure into an *Error. parent is the
// caller's context and reqCtx the one carrying the configured timeout; a
// failure caused by parent is a cancellation, an expired reqCtx a timeout.
func classify(parent, reqCtx context.Context, err error, timeoutSecs int) *Error {
	var de *Error
	if errors.As(err, &de) {
		return de
	}
	if parent.Err() != nil {
		return &Error{Kind: KindCanceled, Message: "request canceled", Err: parent.Err()}
	}
	var ne net.Error
	if errors.Is(reqCtx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) ||
		(errors.As(err, &ne) && ne.Timeout()) {
		return &Error{Kind: KindTimeout, Message: fmt.Sprintf("request timed out after %ds", timeoutSecs), Err: err}
	}
	return &Error{Kind: KindNetwork, Message: "request failed", Err: err}
}
