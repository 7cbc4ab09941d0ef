package versioning

import (
	"errors"
	"fmt"

	"github.com/roach88/provstore/internal/codec"
	"github.com/roach88/provstore/internal/event"
	"github.com/roach88/provstore/internal/rdf"
)

// Code categorizes versioning errors.
type Code string

const (
	// CodeValidation indicates a defective argument or malformed object.
	CodeValidation Code = "VALIDATION"

	// CodeNotFound indicates the object does not exist.
	CodeNotFound Code = "NOT_FOUND"

	// CodeUnauthorized indicates the requesting agent may not perform the
	// operation.
	CodeUnauthorized Code = "UNAUTHORIZED"

	// CodeConflict indicates the object exists already or is in a state
	// that does not allow the operation.
	CodeConflict Code = "CONFLICT"

	// CodeNotLatest indicates an update of a version that was superseded.
	CodeNotLatest Code = "NOT_LATEST"

	// CodeGone indicates the object is tombstoned or deleted.
	CodeGone Code = "GONE"

	// CodeStore indicates the graph store failed.
	CodeStore Code = "STORE"
)

// Sentinels matched by errors.Is against an *Error of the same code.
var (
	ErrDefectiveArgument = errors.New("defective argument")
	ErrNotFound          = errors.New("object not found")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrConflict          = errors.New("conflict")
	ErrNotLatest         = errors.New("not the latest version")
	ErrGone              = errors.New("object is gone")
	ErrStore             = errors.New("store failure")
)

var sentinels = map[Code]error{
	CodeValidation:   ErrDefectiveArgument,
	CodeNotFound:     ErrNotFound,
	CodeUnauthorized: ErrUnauthorized,
	CodeConflict:     ErrConflict,
	CodeNotLatest:    ErrNotLatest,
	CodeGone:         ErrGone,
	CodeStore:        ErrStore,
}

// Error is returned by every Service operation.
type Error struct {
	Code    Code
	Message string

	// ID is the object the operation was applied to.
	ID rdf.IRI

	// Latest is the current version, set for CodeNotLatest.
	Latest rdf.IRI

	// Status is the object's status, set for CodeGone and state conflicts.
	Status Status

	// Err is the underlying codec or store error, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.ID != "" {
		msg += fmt.Sprintf(" (id=%s)", string(e.ID))
	}
	if e.Latest != "" {
		msg += fmt.Sprintf(" (latest=%s)", string(e.Latest))
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the sentinel for e's code.
func (e *Error) Is(target error) bool {
	return sentinels[e.Code] == target
}

// CodeOf returns the code of the first *Error in err's chain, or "" if there
// is none.
func CodeOf(err error) Code {
	var ve *Error
	if errors.As(err, &ve) {
		return ve.Code
	}
	return ""
}

// IsValidation returns true if err is a validation error.
func IsValidation(err error) bool { return CodeOf(err) == CodeValidation }

// IsNotFound returns true if err reports a missing object.
func IsNotFound(err error) bool { return CodeOf(err) == CodeNotFound }

// IsUnauthorized returns true if err reports a refused agent.
func IsUnauthorized(err error) bool { return CodeOf(err) == CodeUnauthorized }

// IsConflict returns true if err reports a conflicting state.
func IsConflict(err error) bool { return CodeOf(err) == CodeConflict }

// IsNotLatest returns true if err reports a superseded version.
func IsNotLatest(err error) bool { return CodeOf(err) == CodeNotLatest }

// IsGone returns true if err reports a tombstoned or deleted object.
func IsGone(err error) bool { return CodeOf(err) == CodeGone }

// Retryable reports whether repeating the operation could succeed. Only
// store failures are retryable; everything else depends on graph state or
// arguments.
func Retryable(err error) bool { return CodeOf(err) == CodeStore }

func newValidationError(id rdf.IRI, format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...), ID: id}
}

func newNotFoundError(id rdf.IRI) *Error {
	return &Error{Code: CodeNotFound, Message: "object not found", ID: id}
}

func newUnauthorizedError(id, agent rdf.IRI, op string) *Error {
	return &Error{
		Code:    CodeUnauthorized,
		Message: fmt.Sprintf("agent %s may not %s this object", string(agent), op),
		ID:      id,
	}
}

func newConflictError(id rdf.IRI, status Status, format string, args ...any) *Error {
	return &Error{Code: CodeConflict, Message: fmt.Sprintf(format, args...), ID: id, Status: status}
}

// NewNotLatestError reports that id was superseded by latest.
func NewNotLatestError(id, latest rdf.IRI) *Error {
	return &Error{Code: CodeNotLatest, Message: "object has a newer version", ID: id, Latest: latest}
}

// NewGoneError reports that id is in a terminal status.
func NewGoneError(id rdf.IRI, status Status) *Error {
	return &Error{Code: CodeGone, Message: fmt.Sprintf("object is %s", status), ID: id, Status: status}
}

// wrap converts codec, event and store errors into an *Error. Errors that
// are already typed pass through unchanged.
func wrap(id rdf.IRI, op string, err error) error {
	if err == nil {
		return nil
	}
	var ve *Error
	if errors.As(err, &ve) {
		return err
	}
	code := CodeStore
	if errors.Is(err, codec.ErrInvalidObject) || errors.Is(err, event.ErrInvalidEvent) ||
		errors.Is(err, rdf.ErrInvalidStatement) {
		code = CodeValidation
	}
	return &Error{Code: code, Message: op, ID: id, Err: err}
}
