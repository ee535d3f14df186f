package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// 分割送金の設定。起動時に一度だけ検証する（呼び出し時のenv読みはしない）。
type SplitConfig struct {
	Enabled     bool
	RecipientID string
	// (0, 100] のパーセント
	Percentage decimal.Decimal
}

func (s SplitConfig) Validate() error {
	if !s.Enabled {
		return nil
	}
	if s.RecipientID == "" {
		return fmt.Errorf("PAYMENT_SPLIT_RECIPIENT_ID is required when split is enabled")
	}
	if !s.Percentage.IsPositive() || s.Percentage.GreaterThan(decimal.NewFromInt(100)) {
		return fmt.Errorf("PAYMENT_SPLIT_PERCENTAGE must be in (0, 100]")
	}
	return nil
}

// Configはアプリ全体の設定
type Config struct {
	Port string

	DatabaseURL      string // あれば最優先
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresHost     string
	PostgresPort     int
	PostgresSSLMode  string

	JWTSecret string

	GoEnv string

	// 注文金額の計算に使う固定値
	ShippingFee decimal.Decimal // 1注文あたりの送料
	TaxRatePct  decimal.Decimal // 小計に対する税率（%）

	PaymentBaseURL string
	PaymentAPIKey  string
	PaymentTimeout time.Duration
	Split          SplitConfig

	// 未設定なら注文イベント発行は無効
	AMQPURL      string
	AMQPExchange string

	LogFile string
}

// Loadは環境変数から設定を組み立てる。必須が欠けていればエラー（fail fast）。
func Load() (Config, error) {
	cfg := Config{
		Port: os.Getenv("PORT"),

		DatabaseURL:      os.Getenv("DATABASE_URL"),
		PostgresUser:     os.Getenv("POSTGRES_USER"),
		PostgresPassword: os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:       os.Getenv("POSTGRES_DB"),
		PostgresHost:     os.Getenv("POSTGRES_HOST"),
		PostgresSSLMode:  getenv("POSTGRES_SSLMODE", "disable"),

		JWTSecret: os.Getenv("JWT_SECRET"),
		GoEnv:     getenv("GO_ENV", "dev"),

		PaymentBaseURL: os.Getenv("PAYMENT_BASE_URL"),
		PaymentAPIKey:  os.Getenv("PAYMENT_API_KEY"),

		AMQPURL:      os.Getenv("AMQP_URL"),
		AMQPExchange: getenv("AMQP_EXCHANGE", "likeme.orders"),

		LogFile: getenv("LOG_FILE", "./logs/app.log"),
	}

	//必須チェック
	if cfg.Port == "" {
		return Config{}, fmt.Errorf("PORT is required")
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.PaymentBaseURL == "" {
		return Config{}, fmt.Errorf("PAYMENT_BASE_URL is required")
	}

	//DATABASE_URLが無いときは個別項目が必須
	if cfg.DatabaseURL == "" {
		if cfg.PostgresUser == "" {
			return Config{}, fmt.Errorf("POSTGRES_USER is required")
		}
		if cfg.PostgresPassword == "" {
			return Config{}, fmt.Errorf("POSTGRES_PASSWORD is required")
		}
		if cfg.PostgresDB == "" {
			return Config{}, fmt.Errorf("POSTGRES_DB is required")
		}
		if cfg.PostgresHost == "" {
			return Config{}, fmt.Errorf("POSTGRES_HOST is required")
		}
		pgPort, err := mustAtoi("POSTGRES_PORT")
		if err != nil {
			return Config{}, err
		}
		cfg.PostgresPort = pgPort
	}

	var err error
	cfg.ShippingFee, err = decimalEnv("SHIPPING_FEE", "0")
	if err != nil {
		return Config{}, err
	}
	cfg.TaxRatePct, err = decimalEnv("TAX_RATE_PCT", "0")
	if err != nil {
		return Config{}, err
	}
	if cfg.ShippingFee.IsNegative() {
		return Config{}, fmt.Errorf("SHIPPING_FEE must be >= 0")
	}
	if cfg.TaxRatePct.IsNegative() {
		return Config{}, fmt.Errorf("TAX_RATE_PCT must be >= 0")
	}

	cfg.PaymentTimeout, err = durationEnv("PAYMENT_TIMEOUT", 10*time.Second)
	if err != nil {
		return Config{}, err
	}

	//分割送金（PAYMENT_SPLIT_PERCENTAGE が設定されていれば有効）
	if v := os.Getenv("PAYMENT_SPLIT_PERCENTAGE"); v != "" {
		pct, err := decimal.NewFromString(v)
		if err != nil {
			return Config{}, fmt.Errorf("PAYMENT_SPLIT_PERCENTAGE must be number: %w", err)
		}
		cfg.Split = SplitConfig{
			Enabled:     true,
			RecipientID: os.Getenv("PAYMENT_SPLIT_RECIPIENT_ID"),
			Percentage:  pct,
		}
	}
	if err := cfg.Split.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func getenv(key string, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func mustAtoi(key string) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return i, nil
}

func decimalEnv(key string, def string) (decimal.Decimal, error) {
	v := getenv(key, def)
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s must be number: %w", key, err)
	}
	return d, nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be duration: %w", key, err)
	}
	return d, nil
}
