package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Kind classifies a failure by how the client reacts to it.
type Kind int

const (
	KindUnknown Kind = iota
	// KindTransport: the chat request could not be sent or failed mid-stream.
	KindTransport
	// KindPartialFile: one file of a multi-file operation failed, earlier files are kept.
	KindPartialFile
	// KindPersistence: a Session Store write failed.
	KindPersistence
	// KindReconciliation: reloading the authoritative log failed.
	KindReconciliation
	KindInvalidArgument
	// KindBusy: a chat request is already outstanding.
	KindBusy
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindPartialFile:
		return "partial_file"
	case KindPersistence:
		return "persistence"
	case KindReconciliation:
		return "reconciliation"
	case KindInvalidArgument:
		return "invalid_argument"
	case KindBusy:
		return "busy"
	case KindNotFound:
		return "not_found"
	}
	return "unknown"
}

type CustomizedError struct {
	cause   error
	message string
	trace   []string
	wrap    error
	kind    Kind
	data    map[string]interface{}
}

func (e *CustomizedError) WithData(data map[string]interface{}) *CustomizedError {
	e.data = data
	return e
}

func (e *CustomizedError) Data() map[string]interface{} {
	return e.data
}

func (e *CustomizedError) Kind(k Kind) *CustomizedError {
	e.kind = k
	return e
}

func (e *CustomizedError) GetKind() Kind {
	return e.kind
}

// New creates a traced error. message is an i18n message id.
func New(trace, message string, err error) *CustomizedError {
	return &CustomizedError{
		cause:   err,
		message: message,
		trace:   []string{trace},
	}
}

func (e *CustomizedError) Trace(trace string) *CustomizedError {
	e.trace = append(e.trace, trace)
	return e
}

func Wrap(err error, trace, message string) *CustomizedError {
	ce := &CustomizedError{
		cause:   err,
		message: message,
		trace:   []string{trace},
		wrap:    err,
	}
	var income *CustomizedError
	if stderrors.As(err, &income) {
		ce.kind = income.kind
	}
	return ce
}

func Trace(trace string, err error) *CustomizedError {
	if ce, ok := err.(*CustomizedError); ok {
		ce.trace = append(ce.trace, trace)
		return ce
	}
	return Wrap(err, trace, err.Error())
}

func (e *CustomizedError) Message() string {
	if e.message == "" && e.cause != nil {
		return e.cause.Error()
	}
	return e.message
}

func (e *CustomizedError) Unwrap() error {
	return e.cause
}

func (e *CustomizedError) Error() string {
	otherDetails := `""`
	if ce, ok := e.wrap.(*CustomizedError); ok {
		otherDetails = ce.Error()
	} else if e.wrap != nil {
		otherDetails = fmt.Sprint("\"", e.wrap.Error(), "\"")
	}
	return fmt.Sprintf(`{"trace":"%s","kind":"%s","msg":"%s","error":"%v","wrapd":%s}`, strings.Join(e.trace, "->"), e.kind, e.message, e.cause, otherDetails)
}

// IsKind reports whether any CustomizedError in err's chain carries kind k.
func IsKind(err error, k Kind) bool {
	for err != nil {
		if ce, ok := err.(*CustomizedError); ok && ce.kind == k {
			return true
		}
		err = stderrors.Unwrap(err)
	}
	return false
}

func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

func As(err error, target any) bool {
	return stderrors.As(err, target)
}
