package apperrors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// ErrorKind is the category an error falls into for user-facing reporting.
type ErrorKind string

const (
	KindConnectivity ErrorKind = "connectivity"
	KindAuth         ErrorKind = "authentication"
	KindForbidden    ErrorKind = "authorization"
	KindNotFound     ErrorKind = "not_found"
	KindServer       ErrorKind = "server"
	KindGeneric      ErrorKind = "generic"
)

// Fixed, resource-agnostic messages.
const (
	MsgConnectivity = "You appear to be offline. Your changes were saved locally and will sync when the connection returns."
	MsgAuth         = "Your session has expired. Please sign in again."
	MsgForbidden    = "You do not have permission to perform this action."
	MsgNotFound     = "The requested item could not be found."
	MsgServer       = "Something went wrong on the server. Please try again later."
)

// Classified is the result of classifying a data-layer error.
type Classified struct {
	Kind    ErrorKind
	Message string
}

// Notify reports whether the error should reach the error notification channel.
// Connectivity and authentication failures are reported elsewhere and would only duplicate.
func (c Classified) Notify() bool {
	return c.Kind != KindConnectivity && c.Kind != KindAuth
}

var connectivityHints = []string{
	"network",
	"connection refused",
	"connection reset",
	"no such host",
	"failed to fetch",
	"offline",
	"timeout",
}

// Classify maps an arbitrary error returned by the data layer to a user-facing category and message.
func Classify(err error, resource string) Classified {
	if err == nil {
		return Classified{Kind: KindGeneric, Message: genericMessage(resource)}
	}

	if IsConnectivity(err) {
		return Classified{Kind: KindConnectivity, Message: MsgConnectivity}
	}

	switch statusCode(err) {
	case http.StatusUnauthorized:
		return Classified{Kind: KindAuth, Message: MsgAuth}
	case http.StatusForbidden:
		return Classified{Kind: KindForbidden, Message: MsgForbidden}
	case http.StatusNotFound:
		return Classified{Kind: KindNotFound, Message: MsgNotFound}
	case http.StatusInternalServerError:
		return Classified{Kind: KindServer, Message: MsgServer}
	}

	var appErr *AppError
	if errors.As(err, &appErr) && strings.TrimSpace(appErr.Message) != "" {
		return Classified{Kind: KindGeneric, Message: appErr.Message}
	}
	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return Classified{Kind: KindGeneric, Message: msg}
	}
	return Classified{Kind: KindGeneric, Message: genericMessage(resource)}
}

// IsConnectivity reports whether err signals that the data layer was unreachable.
func IsConnectivity(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrConnectivity) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, hint := range connectivityHints {
		if strings.Contains(msg, hint) {
			return true
		}
	}
	return false
}

func statusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	switch {
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	}
	return 0
}

func genericMessage(resource string) string {
	return fmt.Sprintf("Failed to process %s", resource)
}
