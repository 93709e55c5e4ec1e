package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"tabib_ai/internal/domain/pricing"

	"github.com/shopspring/decimal"
)

const (
	defaultPort            = "8080"
	defaultCompletionMinMS = 5000
	defaultCompletionMaxMS = 8000
	defaultRecipeTopic     = "tabib/resep"
	defaultStatusTopic     = "tabib/status"
	defaultSignalTopic     = "tabib/selesai"
	defaultSignalGroupID   = "tabib-ai"
	defaultMQTTClientID    = "tabib-ai-backend"
	RecipeFallbackEmpty    = "empty"
	RecipeFallbackReject   = "reject"
)

// Config is the service configuration read from the environment (.env is loaded by main).
type Config struct {
	Port    string
	Pricing pricing.Policy

	// CORSOrigins lists allowed browser origins; "*" allows any.
	CORSOrigins []string

	CompletionDelayMin time.Duration
	CompletionDelayMax time.Duration

	// RecipeFallback decides what happens when the model reply has no JSON recipe:
	// "empty" prices an empty recipe (system fee only), "reject" fails the submission.
	RecipeFallback string

	Notify NotifyConfig
}

type NotifyConfig struct {
	// Driver is "kafka", "mqtt" or empty (log only).
	Driver string

	KafkaBrokers string

	MQTTBrokerURL string
	MQTTClientID  string
	MQTTUsername  string
	MQTTPassword  string

	RecipeTopic   string
	StatusTopic   string
	SignalTopic   string
	SignalGroupID string
}

func Load() (Config, error) {
	policy, err := loadPricingPolicy()
	if err != nil {
		return Config{}, err
	}

	minMS, err := getenvInt("COMPLETION_DELAY_MIN_MS", defaultCompletionMinMS)
	if err != nil {
		return Config{}, err
	}
	maxMS, err := getenvInt("COMPLETION_DELAY_MAX_MS", defaultCompletionMaxMS)
	if err != nil {
		return Config{}, err
	}
	if minMS < 0 || maxMS < minMS {
		return Config{}, fmt.Errorf("invalid completion delay range [%d, %d]", minMS, maxMS)
	}

	fallback := strings.ToLower(strings.TrimSpace(getenvDefault("RECIPE_FALLBACK", RecipeFallbackEmpty)))
	if fallback != RecipeFallbackEmpty && fallback != RecipeFallbackReject {
		return Config{}, fmt.Errorf("invalid RECIPE_FALLBACK %q", fallback)
	}

	return Config{
		Port:               getenvDefault("PORT", defaultPort),
		CORSOrigins:        splitCSV(getenvDefault("CORS_ORIGINS", "*")),
		Pricing:            policy,
		CompletionDelayMin: time.Duration(minMS) * time.Millisecond,
		CompletionDelayMax: time.Duration(maxMS) * time.Millisecond,
		RecipeFallback:     fallback,
		Notify: NotifyConfig{
			Driver:        strings.ToLower(strings.TrimSpace(os.Getenv("NOTIFY_DRIVER"))),
			KafkaBrokers:  os.Getenv("KAFKA_BROKERS"),
			MQTTBrokerURL: os.Getenv("MQTT_BROKER_URL"),
			MQTTClientID:  getenvDefault("MQTT_CLIENT_ID", defaultMQTTClientID),
			MQTTUsername:  os.Getenv("MQTT_USERNAME"),
			MQTTPassword:  os.Getenv("MQTT_PASSWORD"),
			RecipeTopic:   getenvDefault("DEVICE_RECIPE_TOPIC", defaultRecipeTopic),
			StatusTopic:   getenvDefault("DEVICE_STATUS_TOPIC", defaultStatusTopic),
			SignalTopic:   getenvDefault("DEVICE_SIGNAL_TOPIC", defaultSignalTopic),
			SignalGroupID: getenvDefault("DEVICE_SIGNAL_GROUP_ID", defaultSignalGroupID),
		},
	}, nil
}

func loadPricingPolicy() (pricing.Policy, error) {
	p := pricing.DefaultPolicy()

	for key, dst := range map[string]*decimal.Decimal{
		"PRICE_PER_GRAM":          &p.PricePerGram,
		"TRANSACTION_FEE_FLAT":    &p.FeeFlat,
		"TRANSACTION_FEE_PERCENT": &p.FeePercent,
		"SYSTEM_FEE":              &p.SystemFee,
	} {
		raw := strings.TrimSpace(os.Getenv(key))
		if raw == "" {
			continue
		}
		v, err := decimal.NewFromString(raw)
		if err != nil {
			return pricing.Policy{}, fmt.Errorf("invalid %s %q: %w", key, raw, err)
		}
		*dst = v
	}

	if raw := strings.TrimSpace(os.Getenv("TRANSACTION_FEE_MODEL")); raw != "" {
		model, err := pricing.ParseFeeModel(raw)
		if err != nil {
			return pricing.Policy{}, err
		}
		p.FeeModel = model
	}
	if raw := strings.TrimSpace(os.Getenv("ROUNDING_MODE")); raw != "" {
		mode, err := pricing.ParseRoundingMode(raw)
		if err != nil {
			return pricing.Policy{}, err
		}
		p.Rounding = mode
	}

	if err := p.Validate(); err != nil {
		return pricing.Policy{}, err
	}
	return p, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return v, nil
}

func splitCSV(input string) []string {
	parts := strings.Split(input, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
