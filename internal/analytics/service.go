// Package analytics aggregates sales figures from stored tickets.
package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"cafe-pos/internal/logger"
	"cafe-pos/internal/models"

	"github.com/shopspring/decimal"
)

// MaxRangeDays bounds a single report.
const MaxRangeDays = 366

type TicketSource interface {
	ListTickets(ctx context.Context, from, to time.Time, limit int) ([]models.Ticket, error)
}

// DailySales contains metrics for a single day
type DailySales struct {
	Date        string          `json:"date"`
	Revenue     decimal.Decimal `json:"revenue"`
	TicketsSold int             `json:"ticketsSold"`
}

// ProductSales contains metrics for a single product
type ProductSales struct {
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	Revenue     decimal.Decimal `json:"revenue"`
}

// SalesReport summarizes the tickets dated in [From, To).
type SalesReport struct {
	From          time.Time       `json:"from"`
	To            time.Time       `json:"to"`
	TotalRevenue  decimal.Decimal `json:"totalRevenue"`
	TicketsSold   int             `json:"ticketsSold"`
	AverageTicket decimal.Decimal `json:"averageTicket"`
	Daily         []DailySales    `json:"daily"`
	ByProduct     []ProductSales  `json:"byProduct"`
}

// Service handles analytics operations
type Service struct {
	Tickets  TicketSource
	Location *time.Location
	Logger   *logger.Logger
}

func NewService(tickets TicketSource, loc *time.Location, log *logger.Logger) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{Tickets: tickets, Location: loc, Logger: log}
}

// GetSalesReport returns daily revenue and per-product sales between from (inclusive) and
// to (exclusive). Days without sales are included with zero values.
func (s *Service) GetSalesReport(ctx context.Context, from, to time.Time) (*SalesReport, error) {
	if !from.Before(to) {
		return nil, models.NewValidationError("from", "must be before to")
	}
	if to.Sub(from) > MaxRangeDays*24*time.Hour {
		return nil, models.NewValidationError("to", fmt.Sprintf("range is limited to %d days", MaxRangeDays))
	}

	tickets, err := s.Tickets.ListTickets(ctx, from, to, 0)
	if err != nil {
		return nil, fmt.Errorf("load tickets for report: %w", err)
	}

	report := &SalesReport{
		From:          from,
		To:            to,
		TotalRevenue:  decimal.Zero,
		AverageTicket: decimal.Zero,
		Daily:         s.emptyDays(from, to),
		ByProduct:     []ProductSales{},
	}

	dayIndex := make(map[string]int, len(report.Daily))
	for i, d := range report.Daily {
		dayIndex[d.Date] = i
	}
	products := make(map[string]*ProductSales)

	for _, t := range tickets {
		report.TotalRevenue = report.TotalRevenue.Add(t.Total)
		report.TicketsSold++

		if i, ok := dayIndex[t.Date.In(s.Location).Format("2006-01-02")]; ok {
			report.Daily[i].Revenue = report.Daily[i].Revenue.Add(t.Total)
			report.Daily[i].TicketsSold++
		}

		for _, item := range t.Items {
			key := item.ProductID
			if key == "" {
				key = "name:" + item.ProductName
			}
			p, ok := products[key]
			if !ok {
				p = &ProductSales{ProductID: item.ProductID, ProductName: item.ProductName, Revenue: decimal.Zero}
				products[key] = p
			}
			p.Quantity += item.Quantity
			p.Revenue = p.Revenue.Add(item.Subtotal())
		}
	}

	for _, p := range products {
		p.Revenue = p.Revenue.Round(2)
		report.ByProduct = append(report.ByProduct, *p)
	}
	sort.Slice(report.ByProduct, func(i, j int) bool {
		a, b := report.ByProduct[i], report.ByProduct[j]
		if c := a.Revenue.Cmp(b.Revenue); c != 0 {
			return c > 0
		}
		return a.ProductName < b.ProductName
	})

	report.TotalRevenue = report.TotalRevenue.Round(2)
	if report.TicketsSold > 0 {
		report.AverageTicket = report.TotalRevenue.Div(decimal.NewFromInt(int64(report.TicketsSold))).Round(2)
	}
	s.Logger.Debug("ANALYTICS", fmt.Sprintf("Report %s..%s: %d tickets, %s", from.Format("2006-01-02"), to.Format("2006-01-02"), report.TicketsSold, report.TotalRevenue.StringFixed(2)))
	return report, nil
}

func (s *Service) emptyDays(from, to time.Time) []DailySales {
	days := []DailySales{}
	start := from.In(s.Location)
	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, s.Location)
	for day.Before(to) {
		days = append(days, DailySales{Date: day.Format("2006-01-02"), Revenue: decimal.Zero})
		day = day.AddDate(0, 0, 1)
	}
	return days
}

// TopProducts returns at most limit products by revenue.
func (s *Service) TopProducts(ctx context.Context, from, to time.Time, limit int) ([]ProductSales, error) {
	report, err := s.GetSalesReport(ctx, from, to)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(report.ByProduct) > limit {
		return report.ByProduct[:limit], nil
	}
	return report.ByProduct, nil
}
