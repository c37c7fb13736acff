package usage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kailas-cloud/ragdex/internal/domain"
)

// --- Mock ---

type mockBudgetReader struct {
	dailyLimit, monthlyLimit         int64
	dailyUsed, monthlyUsed           int64
	remainingDaily, remainingMonthly int64
}

func (m *mockBudgetReader) Limits() (int64, int64) { return m.dailyLimit, m.monthlyLimit }
func (m *mockBudgetReader) Used() (int64, int64)   { return m.dailyUsed, m.monthlyUsed }
func (m *mockBudgetReader) Remaining() (int64, int64) {
	return m.remainingDaily, m.remainingMonthly
}

func fixedClock() time.Time {
	return time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)
}

// --- Tests ---

func TestReport_DailyPeriod(t *testing.T) {
	br := &mockBudgetReader{
		dailyLimit: 10000, dailyUsed: 3000, remainingDaily: 7000,
		monthlyLimit: 100000, monthlyUsed: 50000, remainingMonthly: 50000,
	}
	r := New(br).WithClock(fixedClock).Report(context.Background(), PeriodDay)

	if r.Period != PeriodDay {
		t.Errorf("expected period %q, got %q", PeriodDay, r.Period)
	}
	wantStart := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	if !r.Start.Equal(wantStart) || !r.End.Equal(wantStart.Add(24*time.Hour)) {
		t.Errorf("unexpected window %v..%v", r.Start, r.End)
	}
	if r.Limit != 10000 || r.Used != 3000 || r.Remaining != 7000 {
		t.Errorf("unexpected numbers: %+v", r)
	}
	if r.Exhausted {
		t.Error("budget should not be exhausted")
	}
}

func TestReport_MonthlyPeriod(t *testing.T) {
	br := &mockBudgetReader{monthlyLimit: 1000, monthlyUsed: 1200, remainingMonthly: 0}
	r := New(br).WithClock(fixedClock).Report(context.Background(), PeriodMonth)

	wantStart := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	if !r.Start.Equal(wantStart) || !r.End.Equal(time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected window %v..%v", r.Start, r.End)
	}
	if r.Used != 1200 {
		t.Errorf("expected used 1200, got %d", r.Used)
	}
	if !r.Exhausted {
		t.Error("budget should be exhausted")
	}
}

func TestReport_UnlimitedWindow(t *testing.T) {
	br := &mockBudgetReader{dailyUsed: 42, remainingDaily: -1}
	r := New(br).WithClock(fixedClock).Report(context.Background(), PeriodDay)

	if r.Limit != -1 || r.Remaining != -1 {
		t.Errorf("expected unlimited window, got %+v", r)
	}
	if r.Exhausted {
		t.Error("unlimited budget cannot be exhausted")
	}
	if r.Used != 42 {
		t.Errorf("expected used 42, got %d", r.Used)
	}
}

func TestReport_NilReader(t *testing.T) {
	r := New(nil).WithClock(fixedClock).Report(context.Background(), PeriodMonth)
	if r.Used != 0 || r.Limit != -1 || r.Exhausted {
		t.Errorf("unexpected report without budget: %+v", r)
	}
}

func TestParsePeriod(t *testing.T) {
	for in, want := range map[string]Period{"": PeriodDay, "day": PeriodDay, "month": PeriodMonth} {
		got, err := ParsePeriod(in)
		if err != nil || got != want {
			t.Errorf("ParsePeriod(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParsePeriod("total"); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}
