package gemini

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mkraev/docintake/internal/infrastructure/resilience"
)

const generateOperation = "model.generate"

// Client talks to the Gemini generateContent REST endpoint. The model is an
// unreliable text-in/JSON-out oracle; callers get the raw candidate text and
// must tolerate non-JSON output.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	executor   *resilience.Executor
}

type Options struct {
	RequestTimeout     time.Duration
	ResilienceExecutor *resilience.Executor
}

func New(baseURL, apiKey, model string, options Options) *Client {
	timeout := options.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
		executor:   options.ResilienceExecutor,
	}
}

func (c *Client) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	request := map[string]any{
		"contents": []map[string]any{
			{"parts": []map[string]any{{"text": prompt}}},
		},
		"generationConfig": map[string]any{
			"responseMimeType": "application/json",
		},
	}

	var response struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}

	path := fmt.Sprintf("/v1beta/models/%s:generateContent", c.model)
	call := func(callCtx context.Context) error {
		return c.postJSON(callCtx, path, request, &response)
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, generateOperation, call, classifyModelError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return "", wrapTemporaryIfNeeded(generateOperation, err)
	}

	if len(response.Candidates) == 0 || len(response.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini generate: empty candidate list")
	}
	return strings.TrimSpace(response.Candidates[0].Content.Parts[0].Text), nil
}
