package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Automation endpoint receiving the forwarded calculator payloads.
// Overridable only through ForwarderConfig, for tests.
const defaultTargetURL = "https://hook.us1.make.com/c2h9vq4swd81kml7x2aa6yt3n8f0r5de"

// ForwarderConfig holds forwarder construction values.
type ForwarderConfig struct {
	TargetURL string
	Timeout   time.Duration
}

// Forwarder posts inbound payloads to the automation endpoint and interprets
// its reply.
type Forwarder struct {
	httpClient *http.Client
	targetURL  string
	logger     *zap.Logger
}

// NewForwarder builds the forwarder.
func NewForwarder(cfg ForwarderConfig, logger *zap.Logger) *Forwarder {
	targetURL := cfg.TargetURL
	if targetURL == "" {
		targetURL = defaultTargetURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Forwarder{
		httpClient: &http.Client{Timeout: timeout},
		targetURL:  targetURL,
		logger:     logger,
	}
}

// Forward re-encodes the payload as JSON and posts it to the automation
// endpoint. The upstream body is returned decoded as JSON, or wrapped as
// {message: <raw text>} when it is not JSON. The upstream status code is not
// inspected; its body is relayed regardless.
func (f *Forwarder) Forward(ctx context.Context, payload any) (any, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.targetURL, bytes.NewReader(encoded))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	f.logger.Debug("relayed webhook", zap.Int("upstream_status", resp.StatusCode))

	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return map[string]any{"message": string(raw)}, nil
	}
	return decoded, nil
}
