package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name  string
		total int64
		paid  int64
		want  BillStatus
	}{
		{"untouched", 5000, 0, BillStatusPending},
		{"partial", 5000, 3000, BillStatusPartial},
		{"settled", 5000, 5000, BillStatusPaid},
		{"zero total stays pending", 0, 0, BillStatusPending},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, StatusFor(tc.total, tc.paid))
		})
	}
}
