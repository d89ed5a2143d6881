package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mkraev/docintake/internal/core/domain"
	"github.com/mkraev/docintake/internal/infrastructure/resilience"
)

const defaultDispatchTimeout = 10 * time.Second

// Notifier delivers action dispatches to their webhook targets. There is no
// retry here: a failed action is reported back and simply omitted from
// actions_taken. The optional executor contributes circuit breaking only.
type Notifier struct {
	baseURL    string
	httpClient *http.Client
	executor   *resilience.Executor
}

type Options struct {
	DispatchTimeout    time.Duration
	ResilienceExecutor *resilience.Executor
}

func New(baseURL string, options Options) *Notifier {
	timeout := options.DispatchTimeout
	if timeout <= 0 {
		timeout = defaultDispatchTimeout
	}
	return &Notifier{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		executor:   options.ResilienceExecutor,
	}
}

func (n *Notifier) Notify(ctx context.Context, dispatch domain.ActionDispatch) error {
	if dispatch.Target == "" {
		return fmt.Errorf("no target configured for action %q", dispatch.Action)
	}

	call := func(callCtx context.Context) error {
		return n.post(callCtx, dispatch.Target, dispatch)
	}

	if n.executor != nil {
		return n.executor.Execute(ctx, "webhook."+dispatch.Action, call, classifyWebhookError)
	}
	return call(ctx)
}

// Probe sends a minimal test payload to verify target availability.
func (n *Notifier) Probe(ctx context.Context, action, target string) error {
	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	payload := map[string]any{
		"test":      true,
		"action":    action,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	return n.post(probeCtx, target, payload)
}

func (n *Notifier) post(ctx context.Context, target string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.baseURL+target, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &HTTPStatusError{
			Target:     target,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       strings.TrimSpace(string(raw)),
		}
	}
	return nil
}
