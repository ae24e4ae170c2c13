package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/osvaldobrewjaria/fazumclube/internal/domain"
	"github.com/osvaldobrewjaria/fazumclube/internal/repository"
)

const churnWindow = 30 * 24 * time.Hour

var (
	hundred = decimal.NewFromInt(100)
	twelve  = decimal.NewFromInt(12)
)

type ReportService struct {
	reports repository.ReportRepository
	now     func() time.Time
}

func NewReportService(reports repository.ReportRepository) *ReportService {
	return &ReportService{reports: reports, now: time.Now}
}

// Dashboard computes the tenant's subscription counts and revenue figures.
// Money values are in major units.
func (s *ReportService) Dashboard(ctx context.Context, tc domain.TenantContext) (*domain.DashboardStats, error) {
	since := s.now().Add(-churnWindow)

	counts, err := s.reports.SubscriptionCounts(ctx, tc.ID, since)
	if err != nil {
		return nil, err
	}
	revenue, err := s.reports.ActiveRevenue(ctx, tc.ID)
	if err != nil {
		return nil, err
	}
	paid, err := s.reports.PaidRevenue(ctx, tc.ID, since)
	if err != nil {
		return nil, err
	}
	customers, err := s.reports.CountCustomers(ctx, tc.ID)
	if err != nil {
		return nil, err
	}

	mrr := MonthlyRecurringRevenue(revenue)
	return &domain.DashboardStats{
		Counts:        *counts,
		MRR:           mrr.Round(2),
		ARR:           mrr.Mul(twelve).Round(2),
		ChurnRate30d:  ChurnRate(counts.Active, counts.Canceled30d),
		TotalCustomer: customers,
		Revenue30d:    minorToMajor(paid),
		Currency:      "BRL",
	}, nil
}

// MonthlyRecurringRevenue normalizes active revenue to a month. Yearly
// amounts count for a twelfth.
func MonthlyRecurringRevenue(rows []domain.ActiveRevenue) decimal.Decimal {
	total := decimal.Zero
	for _, r := range rows {
		amount := minorToMajor(r.Amount)
		if r.Interval == domain.BillingYearly {
			amount = amount.Div(twelve)
		}
		total = total.Add(amount)
	}
	return total
}

// ChurnRate is the percentage of subscriptions canceled in the window over
// those active now plus those canceled
func ChurnRate(active, canceled int) decimal.Decimal {
	base := active + canceled
	if base == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(canceled)).
		Div(decimal.NewFromInt(int64(base))).
		Mul(hundred).
		Round(2)
}

func minorToMajor(amount int64) decimal.Decimal {
	return decimal.New(amount, -2)
}

func (s *ReportService) Platform(ctx context.Context) (*domain.PlatformStats, error) {
	return s.reports.PlatformStats(ctx)
}
