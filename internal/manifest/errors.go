package manifest

import (
	"errors"
	"fmt"
)

// Sentinel errors. ParseError unwraps to one of these via Is.
var (
	ErrNoOrders        = errors.New("manifest has no orders")
	ErrHeaderNotFound  = errors.New("header row not found")
	ErrUnparseableDate = errors.New("unparseable date")
)

// ParseErrorKind classifies why a source could not be parsed.
type ParseErrorKind int

const (
	KindUnreadable ParseErrorKind = iota
	KindHeaderNotFound
	KindUnparseableDate
	KindMalformedLine
	KindNoOrders
)

func (k ParseErrorKind) String() string {
	switch k {
	case KindUnreadable:
		return "unreadable"
	case KindHeaderNotFound:
		return "header not found"
	case KindUnparseableDate:
		return "unparseable date"
	case KindMalformedLine:
		return "malformed line"
	case KindNoOrders:
		return "no orders"
	}
	return "unknown"
}

// ParseError is returned when a source file cannot be turned into a manifest.
type ParseError struct {
	Source string
	Kind   ParseErrorKind
	Line   int    // 1-based, 0 when not line specific
	Value  string // offending value, if any
	Err    error
}

func (e *ParseError) Error() string {
	msg := e.Kind.String()
	if e.Source != "" {
		msg = e.Source + ": " + msg
	}
	if e.Line > 0 {
		msg = fmt.Sprintf("%s at line %d", msg, e.Line)
	}
	if e.Value != "" {
		msg = fmt.Sprintf("%s (%q)", msg, e.Value)
	}
	if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() error { return e.Err }

// Is lets errors.Is match the sentinel for the error's kind.
func (e *ParseError) Is(target error) bool {
	switch target {
	case ErrHeaderNotFound:
		return e.Kind == KindHeaderNotFound
	case ErrUnparseableDate:
		return e.Kind == KindUnparseableDate
	case ErrNoOrders:
		return e.Kind == KindNoOrders
	}
	return false
}
