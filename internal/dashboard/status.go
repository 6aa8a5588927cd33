package dashboard

import (
	"errors"
	"fmt"

	"metricsdash/internal/apiclient"
	"metricsdash/internal/format"
	"metricsdash/internal/metrics"
	"metricsdash/internal/session"
)

type StatusKind string

const (
	StatusIdle    StatusKind = "idle"
	StatusInfo    StatusKind = "info"
	StatusSuccess StatusKind = "success"
	StatusWarning StatusKind = "warning"
	StatusError   StatusKind = "error"
	// StatusInvalid marks a request the dashboard refused before calling
	// the API.
	StatusInvalid StatusKind = "invalid"
)

// Status is the message shown above the table.
type Status struct {
	Kind    StatusKind `json:"kind"`
	Message string     `json:"message"`
}

func loginSucceeded(s session.Session) Status {
	return Status{Kind: StatusSuccess, Message: fmt.Sprintf("Login successful! User: %s.", s.DisplayRole())}
}

func loginFailed(err error) Status {
	var apiErr *apiclient.APIError
	switch {
	case errors.Is(err, session.ErrEmptyCredentials):
		return Status{Kind: StatusError, Message: "Please fill in email and password."}
	case errors.As(err, &apiErr):
		detail := apiErr.Detail
		if detail == "" {
			detail = "Invalid credentials."
		}
		return Status{Kind: StatusError, Message: "Login error: " + detail}
	case errors.Is(err, apiclient.ErrDecode):
		return Status{Kind: StatusError, Message: "Login error: unexpected response from the API."}
	default:
		return Status{Kind: StatusError, Message: "Could not reach the API. Check that the server is running."}
	}
}

func metricsLoaded(t metrics.Table) Status {
	rows := "rows"
	if t.RowCount == 1 {
		rows = "row"
	}
	return Status{Kind: StatusSuccess, Message: fmt.Sprintf("Metrics loaded. (%s %s)", format.Count(t.RowCount), rows)}
}

func loadFailed(err error) Status {
	var apiErr *apiclient.APIError
	switch {
	case errors.Is(err, metrics.ErrUnauthenticated):
		return Status{Kind: StatusWarning, Message: "You need to log in first."}
	case errors.As(err, &apiErr):
		detail := apiErr.Detail
		if detail == "" {
			detail = "Communication failure."
		}
		return Status{Kind: StatusError, Message: "Error loading metrics: " + detail}
	default:
		return Status{Kind: StatusError, Message: "Network error while fetching metrics."}
	}
}

func invalidFilter(err error) Status {
	return Status{Kind: StatusInvalid, Message: "Invalid filter: " + err.Error()}
}
