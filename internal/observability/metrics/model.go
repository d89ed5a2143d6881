package metrics

import (
	"context"

	"github.com/mkraev/docintake/internal/core/ports"
)

// InstrumentModel wraps a generative model client so every generate call is
// counted per caller with a success/error outcome. Callers stay unaware of
// the metrics plumbing.
func (m *HTTPServerMetrics) InstrumentModel(service, caller string, inner ports.GenerativeModel) ports.GenerativeModel {
	return &instrumentedModel{
		inner: inner,
		record: func(outcome string) {
			m.RecordModelCall(service, caller, outcome)
		},
	}
}

type instrumentedModel struct {
	inner  ports.GenerativeModel
	record func(outcome string)
}

func (m *instrumentedModel) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	answer, err := m.inner.GenerateJSON(ctx, prompt)
	if err != nil {
		m.record("error")
		return answer, err
	}
	m.record("success")
	return answer, nil
}
