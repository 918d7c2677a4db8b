package app

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/janmejai2002/tedx-outreach-sub000/internal/domain"
)

// ErrLeadNotFound and related errors describe validation and runtime failures.
var (
	ErrLeadNotFound       = errors.New("lead not found")
	ErrRemoteWrite        = errors.New("remote write failed")
	ErrPartialBulkFailure = errors.New("bulk operation partially failed")
	ErrAuthExpired        = errors.New("authorization expired")
	ErrEmptySelection     = errors.New("no leads selected")
	ErrNoTargetUsers      = errors.New("no target users")
	ErrInvalidBulkPatch   = errors.New("patch cannot be applied in bulk")
)

// RemoteError carries the status and server-reported detail of a failed remote call.
type RemoteError struct {
	StatusCode int
	Detail     string
}

// Error implements error.
func (e *RemoteError) Error() string {
	detail := strings.TrimSpace(e.Detail)
	if detail == "" {
		detail = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("remote status %d: %s", e.StatusCode, detail)
}

// Is matches ErrAuthExpired for unauthorized responses.
func (e *RemoteError) Is(target error) bool {
	return target == ErrAuthExpired && e.StatusCode == http.StatusUnauthorized
}

// RemoteWriteError reports a rolled-back optimistic mutation.
type RemoteWriteError struct {
	LeadID domain.LeadID
	Detail string
	Err    error
}

// Error implements error.
func (e *RemoteWriteError) Error() string {
	return fmt.Sprintf("update lead %d: %s", e.LeadID, e.Detail)
}

// Unwrap exposes both the sentinel and the transport cause.
func (e *RemoteWriteError) Unwrap() []error {
	return []error{ErrRemoteWrite, e.Err}
}

// TransitionError reports a stage change rejected by the workflow guard.
type TransitionError struct {
	LeadID domain.LeadID
	Target domain.StageID
	Reason string
}

// Error implements error.
func (e *TransitionError) Error() string {
	return e.Reason
}

// Unwrap returns domain.ErrTransitionBlocked.
func (e *TransitionError) Unwrap() error {
	return domain.ErrTransitionBlocked
}

// ErrorDetail extracts the most user-presentable message from err.
func ErrorDetail(err error) string {
	if err == nil {
		return ""
	}
	var remoteErr *RemoteError
	if errors.As(err, &remoteErr) && strings.TrimSpace(remoteErr.Detail) != "" {
		return strings.TrimSpace(remoteErr.Detail)
	}
	var writeErr *RemoteWriteError
	if errors.As(err, &writeErr) && writeErr.Detail != "" {
		return writeErr.Detail
	}
	return err.Error()
}
