package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

// HTTPGatewayは決済ゲートウェイのRESTクライアント。
// エラーはそのまま返し、業務上の扱い（400系へ変換など）はusecaseに任せる。
type HTTPGateway struct {
	baseURL string
	apiKey  string
	hc      *http.Client
}

func NewHTTPGateway(baseURL, apiKey string, timeout time.Duration) *HTTPGateway {
	return &HTTPGateway{
		baseURL: baseURL,
		apiKey:  apiKey,
		hc:      &http.Client{Timeout: timeout},
	}
}

func (g *HTTPGateway) Charge(ctx context.Context, req ChargeRequest) (ChargeResult, error) {
	return g.post(ctx, "/transactions", req)
}

func (g *HTTPGateway) Capture(ctx context.Context, transactionID string) (ChargeResult, error) {
	path := fmt.Sprintf("/transactions/%s/capture", transactionID)
	return g.post(ctx, path, struct{}{})
}

func (g *HTTPGateway) Refund(ctx context.Context, transactionID string, amount decimal.Decimal) (ChargeResult, error) {
	path := fmt.Sprintf("/transactions/%s/refund", transactionID)
	body := struct {
		Amount decimal.Decimal `json:"amount"`
	}{Amount: amount}
	return g.post(ctx, path, body)
}

func (g *HTTPGateway) post(ctx context.Context, path string, body any) (ChargeResult, error) {
	var out ChargeResult

	payload, err := json.Marshal(body)
	if err != nil {
		return out, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return out, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	res, err := g.hc.Do(req)
	if err != nil {
		return out, fmt.Errorf("gateway request: %w", err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return out, fmt.Errorf("read response: %w", err)
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return out, fmt.Errorf("gateway status %d: %s", res.StatusCode, string(raw))
	}

	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("decode response: %w", err)
	}
	return out, nil
}
