package webhook

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/mkraev/docintake/internal/infrastructure/resilience"
)

type HTTPStatusError struct {
	Target     string
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	if e == nil {
		return "webhook status error"
	}
	if strings.TrimSpace(e.Body) == "" {
		return fmt.Sprintf("webhook %s status: %s", e.Target, e.Status)
	}
	return fmt.Sprintf("webhook %s status: %s: %s", e.Target, e.Status, strings.TrimSpace(e.Body))
}

// classifyWebhookError feeds the circuit breaker. Nothing is marked
// retryable: action dispatch is single-shot, manual re-trigger only.
func classifyWebhookError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{
			Retryable:     false,
			RecordFailure: true,
		}
	}
	if resilience.IsCircuitOpen(err) {
		return resilience.ErrorClassification{
			Retryable:     false,
			RecordFailure: true,
		}
	}

	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		return resilience.ErrorClassification{
			Retryable:     false,
			RecordFailure: statusErr.StatusCode >= http.StatusInternalServerError,
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return resilience.ErrorClassification{
			Retryable:     false,
			RecordFailure: true,
		}
	}

	return resilience.ErrorClassification{
		Retryable:     false,
		RecordFailure: true,
	}
}
