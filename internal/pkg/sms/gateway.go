package sms

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrGatewayConfig is wrapped by NewHTTPGateway for missing settings.
var ErrGatewayConfig = errors.New("sms: gateway url, user id and sender id are required")

// GatewayConfig holds the provider account and DLT registration values.
type GatewayConfig struct {
	BaseURL       string
	UserID        string
	Password      string
	SenderID      string
	DLTEntityID   string
	DLTTemplateID string
	Timeout       time.Duration
}

// HTTPGateway sends through the provider's GET send endpoint.
type HTTPGateway struct {
	cfg    GatewayConfig
	client *http.Client
}

// NewHTTPGateway validates cfg and builds a gateway with its own client.
func NewHTTPGateway(cfg GatewayConfig) (*HTTPGateway, error) {
	if cfg.BaseURL == "" || cfg.UserID == "" || cfg.SenderID == "" {
		return nil, &Error{Kind: KindConfig, Message: "incomplete gateway config", Cause: ErrGatewayConfig}
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, &Error{Kind: KindConfig, Message: "invalid gateway url", Cause: err}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}

	return &HTTPGateway{cfg: cfg, client: &http.Client{Timeout: cfg.Timeout}}, nil
}

func (g *HTTPGateway) sendURL(phone, text string) string {
	q := url.Values{}
	q.Set("userid", g.cfg.UserID)
	q.Set("password", g.cfg.Password)
	q.Set("sendMethod", "quick")
	q.Set("mobile", phone)
	q.Set("msg", text)
	q.Set("senderid", g.cfg.SenderID)
	q.Set("msgType", "text")
	q.Set("dltEntityId", g.cfg.DLTEntityID)
	q.Set("dltTemplateId", g.cfg.DLTTemplateID)
	q.Set("duplicatecheck", "true")
	q.Set("output", "json")

	sep := "?"
	if strings.Contains(g.cfg.BaseURL, "?") {
		sep = "&"
	}
	return g.cfg.BaseURL + sep + q.Encode()
}

// Send delivers text to phone. The provider reports failures either with a
// non-2xx status or with {"status":"error"} in a 200 body.
func (g *HTTPGateway) Send(ctx context.Context, phone, text string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.sendURL(phone, text), http.NoBody)
	if err != nil {
		return &Error{Kind: KindConfig, Message: "failed to build request", Cause: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return transportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return transportError(err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return &Error{Kind: KindRateLimit, StatusCode: resp.StatusCode, Message: "rate limit exceeded"}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return &Error{Kind: KindProvider, StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}

	var ack struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	}
	if json.Unmarshal(body, &ack) == nil && strings.EqualFold(ack.Status, "error") {
		return &Error{Kind: KindProvider, StatusCode: resp.StatusCode, Message: ack.Reason}
	}

	return nil
}

func transportError(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &Error{Kind: KindTimeout, Message: "gateway did not answer in time", Cause: err}
	}
	return &Error{Kind: KindNetwork, Message: "request failed", Cause: err}
}
