package usage

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/ragdex/internal/domain"
)

// Period selects the budget window a report covers.
type Period string

const (
	// PeriodDay is the current UTC day.
	PeriodDay Period = "day"
	// PeriodMonth is the current UTC month.
	PeriodMonth Period = "month"
)

// ParsePeriod validates a period name; empty means day.
func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case "", PeriodDay:
		return PeriodDay, nil
	case PeriodMonth:
		return PeriodMonth, nil
	default:
		return "", fmt.Errorf("%w: unknown period %q", domain.ErrInvalidArgument, s)
	}
}

// Report is the embedding token consumption of one window.
// Limit and Remaining are -1 when the window is unlimited.
type Report struct {
	Period    Period
	Start     time.Time
	End       time.Time
	Used      int64
	Limit     int64
	Remaining int64
	Exhausted bool
}

// Service handles usage reporting.
type Service struct {
	br  BudgetReader
	now func() time.Time
}

// New creates a Service. br can be nil (unlimited mode).
func New(br BudgetReader) *Service {
	return &Service{br: br, now: time.Now}
}

// WithClock replaces the time source (tests).
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Report builds a usage report for the given period.
func (s *Service) Report(_ context.Context, period Period) Report {
	now := s.now().UTC()
	r := Report{Period: period, Limit: -1, Remaining: -1}

	switch period {
	case PeriodMonth:
		r.Start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		r.End = r.Start.AddDate(0, 1, 0)
	default:
		r.Period = PeriodDay
		r.Start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		r.End = r.Start.Add(24 * time.Hour)
	}
	if s.br == nil {
		return r
	}

	dl, ml := s.br.Limits()
	du, mu := s.br.Used()
	dr, mr := s.br.Remaining()
	if r.Period == PeriodMonth {
		r.Used = mu
		r.Remaining = mr
		if ml > 0 {
			r.Limit = ml
		}
	} else {
		r.Used = du
		r.Remaining = dr
		if dl > 0 {
			r.Limit = dl
		}
	}
	r.Exhausted = r.Limit > 0 && r.Remaining <= 0
	return r
}
