package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/fangligamedev/AgentLinkin/internal/notify"
)

const defaultTimeout = 10 * time.Second

type payload struct {
	Event  string        `json:"event"`
	Result notify.Result `json:"result"`
}

// HTTPNotifier posts the session result as JSON to a fixed URL.
type HTTPNotifier struct {
	webhookURL string
	client     *http.Client
}

func NewHTTPNotifier(webhookURL string) *HTTPNotifier {
	return &HTTPNotifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: defaultTimeout},
	}
}

func (s *HTTPNotifier) NotifySessionResult(ctx context.Context, result notify.Result) error {
	if s.webhookURL == "" {
		return nil
	}

	b, err := json.Marshal(payload{Event: "session-ended", Result: result})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if !isHTTPSuccessStatus(resp.StatusCode) {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

func isHTTPSuccessStatus(statusCode int) bool {
	return statusCode >= 200 && statusCode < 300
}
