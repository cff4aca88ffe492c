package transport

import (
	"context"
	"errors"
	"net"
	"net/url"
)

// Kind buckets a failure into the recovery policy it deserves.
type Kind string

const (
	KindNetwork    Kind = "network"
	KindAuth       Kind = "auth"
	KindPermission Kind = "permission"
	KindServer     Kind = "server"
	KindClient     Kind = "client"
	KindUnknown    Kind = "unknown"
)

// Classification is the derived verdict for one failure. Message is a fixed
// human-readable string independent of the raw error text, so UI never leaks
// transport internals.
type Classification struct {
	Kind      Kind
	Message   string
	Retryable bool
}

// Classifier maps transport/HTTP failures onto the taxonomy. Online is an
// optional connectivity probe consulted first; when it reports false the
// failure is classified as network regardless of its shape.
type Classifier struct {
	Online func() bool
}

// User-facing messages per classification.
const (
	msgNetwork    = "Please check your internet connection."
	msgAuth       = "Your session has expired. Please sign in again."
	msgPermission = "You don't have permission to do that."
	msgServer     = "The server ran into a problem. Please try again shortly."
	msgUnknown    = "Something went wrong. Please try again."
)

// statusMessages carries per-status detail for client errors.
var statusMessages = map[int]string{
	400: "That request couldn't be processed.",
	404: "The requested resource was not found.",
	408: "The request timed out.",
	429: "Too many requests. Please wait a moment and try again.",
}

func statusMessage(status int) string {
	if m, ok := statusMessages[status]; ok {
		return m
	}
	return msgUnknown
}

// Classify derives the classification for err.
//
// Decision order: connectivity probe, then HTTP status, then response-less
// transport failures, then the optimistic unknown default (retryable, but
// bounded by the pipeline's retry ceiling).
func (c *Classifier) Classify(err error) Classification {
	if c.Online != nil && !c.Online() {
		return Classification{Kind: KindNetwork, Message: msgNetwork, Retryable: true}
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status != 0 {
		switch {
		case apiErr.Status == 401:
			// Not retryable: the same call would fail again. The caller must
			// re-authenticate instead.
			return Classification{Kind: KindAuth, Message: msgAuth, Retryable: false}
		case apiErr.Status == 403:
			return Classification{Kind: KindPermission, Message: msgPermission, Retryable: false}
		case apiErr.Status >= 500:
			return Classification{Kind: KindServer, Message: msgServer, Retryable: true}
		case apiErr.Status == 408 || apiErr.Status == 429:
			return Classification{Kind: KindServer, Message: statusMessage(apiErr.Status), Retryable: true}
		default:
			return Classification{Kind: KindClient, Message: statusMessage(apiErr.Status), Retryable: false}
		}
	}

	// No HTTP status: connection reset, DNS failure, timeout.
	var urlErr *url.Error
	var netErr net.Error
	if errors.As(err, &urlErr) || errors.As(err, &netErr) ||
		errors.Is(err, context.DeadlineExceeded) {
		return Classification{Kind: KindNetwork, Message: msgNetwork, Retryable: true}
	}

	return Classification{Kind: KindUnknown, Message: msgUnknown, Retryable: true}
}
