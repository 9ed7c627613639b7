package config

import (
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// CurrencyPerHour is the conversion rate between approved hours and
// spendable credits. CURRENCY_PER_HOUR defaults to 10.
func CurrencyPerHour() decimal.Decimal {
	v := strings.TrimSpace(os.Getenv("CURRENCY_PER_HOUR"))
	if v == "" {
		return decimal.NewFromInt(10)
	}
	d, err := decimal.NewFromString(v)
	if err != nil || d.LessThanOrEqual(decimal.Zero) {
		return decimal.NewFromInt(10)
	}
	return d
}

// SyncInterval is the background sync cadence. SYNC_INTERVAL accepts a
// Go duration string and defaults to 5m.
func SyncInterval() time.Duration {
	v := strings.TrimSpace(os.Getenv("SYNC_INTERVAL"))
	if v == "" {
		return 5 * time.Minute
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 5 * time.Minute
	}
	return d
}
