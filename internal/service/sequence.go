package service

import (
	"fmt"
	"time"
)

// CounterPeriod selects how often the order sequence resets
type CounterPeriod string

const (
	PeriodMonthly CounterPeriod = "month"
	PeriodDaily   CounterPeriod = "day"
)

// ParseCounterPeriod maps a config value to a period, defaulting to monthly
func ParseCounterPeriod(s string) CounterPeriod {
	if s == string(PeriodDaily) {
		return PeriodDaily
	}
	return PeriodMonthly
}

// counterKey scopes the counter record to the order date's period
func counterKey(t time.Time, period CounterPeriod) string {
	if period == PeriodDaily {
		return "orders_" + t.Format("20060102")
	}
	return "orders_" + t.Format("200601")
}

// formatOrderNumber renders the human-readable order id, e.g. "20260831-0007"
func formatOrderNumber(t time.Time, seq int) string {
	return fmt.Sprintf("%s-%04d", t.Format("20060102"), seq)
}
