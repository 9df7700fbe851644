package auction

import (
	"errors"
	"testing"
	"time"

	"aucto-auction-client/internal/domain/shared"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestDraftValidate(t *testing.T) {
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	valid := func() Draft {
		return Draft{
			Title:       "Vintage camera",
			Description: "Works",
			Category:    "electronics",
			Condition:   "used",
			BasePrice:   decimal.NewFromInt(300),
			StartTime:   now.Add(time.Hour),
			EndTime:     now.Add(48 * time.Hour),
		}
	}

	tests := []struct {
		name   string
		mutate func(d *Draft)
		want   error
	}{
		{name: "valid", mutate: func(d *Draft) {}},
		{name: "blank_title", mutate: func(d *Draft) { d.Title = "  " }, want: shared.ErrTitleRequired},
		{name: "no_description", mutate: func(d *Draft) { d.Description = "" }, want: shared.ErrDescriptionRequired},
		{name: "no_category", mutate: func(d *Draft) { d.Category = "" }, want: shared.ErrCategoryRequired},
		{name: "no_condition", mutate: func(d *Draft) { d.Condition = "" }, want: shared.ErrConditionRequired},
		{name: "zero_price", mutate: func(d *Draft) { d.BasePrice = decimal.Zero }, want: shared.ErrBasePriceInvalid},
		{name: "fractional_price", mutate: func(d *Draft) { d.BasePrice = decimal.RequireFromString("10.5") }, want: shared.ErrBasePriceInvalid},
		{name: "no_start", mutate: func(d *Draft) { d.StartTime = time.Time{} }, want: shared.ErrStartTimeRequired},
		{name: "no_end", mutate: func(d *Draft) { d.EndTime = time.Time{} }, want: shared.ErrEndTimeRequired},
		{name: "end_before_start", mutate: func(d *Draft) { d.EndTime = d.StartTime }, want: shared.ErrInvalidEndTime},
		{name: "start_in_past", mutate: func(d *Draft) { d.StartTime = now.Add(-time.Minute) }, want: shared.ErrInvalidStartTime},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			d := valid()
			tc.mutate(&d)

			err := d.Validate(now)
			if tc.want == nil {
				require.NoError(t, err)
				return
			}
			require.True(t, errors.Is(err, tc.want), "expected %v, got %v", tc.want, err)
			require.True(t, errors.Is(err, shared.ErrValidation))
		})
	}
}

func TestDraftFieldsSetsFloorToBasePrice(t *testing.T) {
	d := Draft{
		Title:     "Lamp",
		BasePrice: decimal.NewFromInt(250),
		StartTime: time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2026, 5, 3, 0, 0, 0, 0, time.UTC),
	}

	fields := d.Fields()
	require.Equal(t, "250", fields["basePrice"])
	require.Equal(t, "250", fields["minAuctionAmount"])
	require.Equal(t, "2026-05-02T00:00:00Z", fields["startTime"])
	_, hasSub := fields["subcategory"]
	require.False(t, hasSub)
}

func TestAuctionHelpers(t *testing.T) {
	end := time.Date(2026, 5, 3, 0, 0, 0, 0, time.UTC)
	a := Auction{
		Seller:  shared.Party{ID: "seller"},
		Winner:  &shared.Party{ID: "winner"},
		EndTime: end,
	}

	require.True(t, a.IsSeller("seller"))
	require.False(t, a.IsSeller(""))
	require.True(t, a.IsWinner("winner"))
	require.False(t, a.IsWinner("seller"))
	require.True(t, a.HasEnded(end))
	require.False(t, a.HasEnded(end.Add(-time.Second)))
	require.True(t, a.AmountDue().IsZero())
}
