package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osvaldobrewjaria/fazumclube/internal/domain"
)

func TestMonthlyRecurringRevenue(t *testing.T) {
	rows := []domain.ActiveRevenue{
		{Interval: domain.BillingMonthly, Amount: 4990 * 3, Subscriptions: 3},
		{Interval: domain.BillingYearly, Amount: 59880, Subscriptions: 1},
	}
	assert.True(t, decimal.RequireFromString("199.60").Equal(MonthlyRecurringRevenue(rows)))
	assert.True(t, MonthlyRecurringRevenue(nil).IsZero())
}

func TestChurnRate(t *testing.T) {
	tests := []struct {
		active, canceled int
		want             string
	}{
		{0, 0, "0"},
		{9, 1, "10"},
		{2, 1, "33.33"},
		{0, 4, "100"},
	}
	for _, tt := range tests {
		got := ChurnRate(tt.active, tt.canceled)
		assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "active=%d canceled=%d got %s", tt.active, tt.canceled, got)
	}
}

func TestDashboard(t *testing.T) {
	env := newTestEnv(t)
	tc := env.addTenant("acme")
	reports := &fakeReportRepo{
		counts:    domain.SubscriptionCounts{Active: 4, Paused: 1, Canceled30d: 1},
		revenue:   []domain.ActiveRevenue{{Interval: domain.BillingMonthly, Amount: 10000, Subscriptions: 2}},
		paid:      12345,
		customers: 7,
	}
	svc := NewReportService(reports)

	stats, err := svc.Dashboard(context.Background(), tc)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Counts.Active)
	assert.Equal(t, "100", stats.MRR.String())
	assert.Equal(t, "1200", stats.ARR.String())
	assert.Equal(t, "20", stats.ChurnRate30d.String())
	assert.Equal(t, "123.45", stats.Revenue30d.String())
	assert.Equal(t, 7, stats.TotalCustomer)
	assert.Equal(t, "BRL", stats.Currency)
}
