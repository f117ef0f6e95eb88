package service

import (
	"testing"

	"github.com/dasam-next/internal/constants"
)

func TestIsTransitionAllowed(t *testing.T) {
	cases := []struct {
		from string
		to   string
		want bool
	}{
		{constants.OrderStatusPending, constants.OrderStatusPaid, true},
		{constants.OrderStatusPending, constants.OrderStatusCodConfirmed, true},
		{constants.OrderStatusPaid, constants.OrderStatusShipped, true},
		{constants.OrderStatusCodConfirmed, constants.OrderStatusShipped, true},

		// 不允许跨步或回退
		{constants.OrderStatusPending, constants.OrderStatusShipped, false},
		{constants.OrderStatusPaid, constants.OrderStatusPending, false},
		{constants.OrderStatusShipped, constants.OrderStatusPaid, false},
		{constants.OrderStatusPaid, constants.OrderStatusCodConfirmed, false},

		// 同状态与未知状态
		{constants.OrderStatusPaid, constants.OrderStatusPaid, false},
		{"unknown", constants.OrderStatusPaid, false},
		{constants.OrderStatusPending, "unknown", false},
	}

	for _, tc := range cases {
		if got := isTransitionAllowed(tc.from, tc.to); got != tc.want {
			t.Errorf("isTransitionAllowed(%q, %q) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}
