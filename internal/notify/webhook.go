package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"
	"siteauditor/internal/log"
	"siteauditor/internal/model"
)

const webhookTimeout = 10 * time.Second

type Webhook struct {
	httpClient *http.Client
	url        string
}

func NewWebhook(url string) *Webhook {
	return &Webhook{
		httpClient: &http.Client{Timeout: webhookTimeout},
		url:        url,
	}
}

func (w *Webhook) Enabled() bool {
	return w.url != ""
}

// Send posts the batch outcomes downstream. Best effort: every failure is
// logged and swallowed so the HTTP response already in flight is unaffected.
func (w *Webhook) Send(ctx context.Context, outcomes []model.Outcome) {
	if w.url == "" {
		return
	}

	payload, err := json.Marshal(map[string]interface{}{"results": outcomes})
	if err != nil {
		log.Logger.Warn("webhook payload marshal failed", zap.Error(err))
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(payload))
	if err != nil {
		log.Logger.Warn("webhook request build failed", zap.String("url", w.url), zap.Error(err))
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		log.Logger.Warn("webhook delivery failed", zap.String("url", w.url), zap.Error(err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		log.Logger.Warn("webhook delivery rejected",
			zap.String("url", w.url),
			zap.Int("status_code", resp.StatusCode),
		)
		return
	}

	log.Logger.Info("webhook delivered", zap.String("url", w.url), zap.Int("results", len(outcomes)))
}
