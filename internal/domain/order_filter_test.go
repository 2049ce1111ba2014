package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderFilterValidate(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		filter  OrderFilter
		wantErr string
	}{
		{
			name:   "zero filter matches everything",
			filter: OrderFilter{},
		},
		{
			name:   "partner filter",
			filter: OrderFilter{PartnerIDs: []uuid.UUID{uuid.New()}},
		},
		{
			name:    "unknown sale type",
			filter:  OrderFilter{Types: []SaleType{"auction"}},
			wantErr: "types",
		},
		{
			name: "created range with both bounds",
			filter: OrderFilter{
				CreatedAt: &TimeRange{
					Before: lo.ToPtr(now),
					After:  lo.ToPtr(now.Add(-time.Hour)),
				},
			},
		},
		{
			name: "created range with no bounds",
			filter: OrderFilter{
				CreatedAt: &TimeRange{},
			},
			wantErr: "createdAt",
		},
		{
			name: "created range inverted",
			filter: OrderFilter{
				CreatedAt: &TimeRange{
					Before: lo.ToPtr(now.Add(-time.Hour)),
					After:  lo.ToPtr(now),
				},
			},
			wantErr: "createdAt",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.filter.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
