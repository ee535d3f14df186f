package payment

import (
	"context"

	"github.com/Mavimarmara/likeme-back-end-sub002/internal/config"
	"github.com/shopspring/decimal"
)

const (
	StatusAuthorized = "authorized"
	StatusRefused    = "refused"
	StatusCaptured   = "captured"
	StatusRefunded   = "refunded"
)

type CardData struct {
	Number     string `json:"number"`
	HolderName string `json:"holder_name"`
	ExpMonth   string `json:"exp_month"`
	ExpYear    string `json:"exp_year"`
	CVV        string `json:"cvv"`
}

// 分割送金のルール。nilなら通常の単一受取人チャージ。
type SplitRule struct {
	RecipientID string          `json:"recipient_id"`
	Percentage  decimal.Decimal `json:"percentage"`
}

type ChargeRequest struct {
	// 外部送信の直前に2桁へ丸めた値を入れる
	Amount      decimal.Decimal `json:"amount"`
	Method      string          `json:"payment_method"`
	Card        *CardData       `json:"card,omitempty"`
	Split       *SplitRule      `json:"split,omitempty"`
	Description string          `json:"description,omitempty"`
}

type ChargeResult struct {
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
}

// 外部決済ゲートウェイの約束。実装はHTTPクライアント。
type Gateway interface {
	Charge(ctx context.Context, req ChargeRequest) (ChargeResult, error)
	Capture(ctx context.Context, transactionID string) (ChargeResult, error)
	Refund(ctx context.Context, transactionID string, amount decimal.Decimal) (ChargeResult, error)
}

// SplitRuleFromConfigは起動時に検証済みの設定からルールを組み立てる。
// 無効なら nil（通常チャージ）。
func SplitRuleFromConfig(s config.SplitConfig) *SplitRule {
	if !s.Enabled {
		return nil
	}
	return &SplitRule{
		RecipientID: s.RecipientID,
		Percentage:  s.Percentage,
	}
}
