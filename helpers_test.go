package formts

import (
	"testing"
	"time"
)

// waitFor polls a condition until it returns true or timeout is reached.
func waitFor(t *testing.T, timeout time.Duration, condition func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}

func signupSchema() *Schema {
	return NewSchema(
		Prop("name", String()),
		Prop("age", Number()),
	)
}

func orderSchema() *Schema {
	return NewSchema(
		Prop("email", String()),
		Prop("address", Object(
			Prop("street", String()),
			Prop("city", String()),
		)),
		Prop("coupons", Array(Object(
			Prop("code", String()),
			Prop("percent", Number()),
		))),
		Prop("tags", Array(String())),
		Prop("delivery", Date()),
		Prop("plan", Choice("basic", "pro")),
	)
}

func coupon(code string, percent float64) map[string]any {
	return map[string]any{"code": code, "percent": percent}
}
