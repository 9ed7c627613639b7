package workflow_test

import (
	"testing"

	"github.com/reboothq/reboot_backend/workflow"
	"github.com/shopspring/decimal"
)

func TestCreditDelta(t *testing.T) {
	perHour := decimal.NewFromInt(10)

	cases := []struct {
		name     string
		prev     string
		hours    string
		expected string
	}{
		{"first approval credits full amount", "0", "10", "100"},
		{"re-approval credits only the difference", "5", "8", "30"},
		{"correction downward claws back", "10", "7", "-30"},
		{"same hours is a no-op", "6", "6", "0"},
		{"fractional hours", "1.5", "2.25", "7.5"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			prev, _ := decimal.NewFromString(tc.prev)
			hours, _ := decimal.NewFromString(tc.hours)
			expected, _ := decimal.NewFromString(tc.expected)

			got := workflow.CreditDelta(prev, hours, perHour)
			if !got.Equal(expected) {
				t.Fatalf("CreditDelta(%s, %s): expected %s, got %s", tc.prev, tc.hours, tc.expected, got)
			}
		})
	}
}

func TestCreditDeltaUsesRate(t *testing.T) {
	got := workflow.CreditDelta(decimal.NewFromInt(2), decimal.NewFromInt(5), decimal.NewFromInt(3))
	if !got.Equal(decimal.NewFromInt(9)) {
		t.Fatalf("expected 9, got %s", got)
	}
}
