package salary

import (
	"fmt"
	"time"

	salaryerrors "go-ems/internal/salary/errors"
)

// Period is a calendar month. All dates are civil dates in UTC.
type Period struct {
	Month int `json:"month"`
	Year  int `json:"year"`
}

func NewPeriod(month, year int) (Period, error) {
	p := Period{Month: month, Year: year}
	if err := p.Validate(); err != nil {
		return Period{}, err
	}
	return p, nil
}

// PeriodOf returns the month containing t.
func PeriodOf(t time.Time) Period {
	t = t.UTC()
	return Period{Month: int(t.Month()), Year: t.Year()}
}

func (p Period) Validate() error {
	if p.Month < 1 || p.Month > 12 || p.Year < 1970 || p.Year > 9999 {
		return salaryerrors.ErrInvalidPeriod
	}
	return nil
}

// Start is the first day of the month.
func (p Period) Start() time.Time {
	return time.Date(p.Year, time.Month(p.Month), 1, 0, 0, 0, 0, time.UTC)
}

// End is the last day of the month, inclusive.
func (p Period) End() time.Time {
	return p.Start().AddDate(0, 1, -1)
}

// Key formats the period as yyyy-mm.
func (p Period) Key() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}
