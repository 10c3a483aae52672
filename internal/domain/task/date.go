package task

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Strob0t/TaskMate/internal/domain"
)

// DateLayout is the wire format of task dates.
const DateLayout = "2006-01-02"

const secondsPerDay = 24 * 60 * 60

// Date is a calendar day in UTC. It encodes as YYYY-MM-DD and accepts either
// YYYY-MM-DD or RFC 3339 on input.
type Date struct {
	time.Time
}

// DateOf truncates t to its UTC calendar day.
func DateOf(t time.Time) Date {
	y, m, d := t.UTC().Date()
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses YYYY-MM-DD or RFC 3339.
func ParseDate(s string) (Date, error) {
	if t, err := time.Parse(DateLayout, s); err == nil {
		return Date{t}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: invalid date %q", domain.ErrValidation, s)
	}
	return DateOf(t), nil
}

// DaysUntil returns the number of whole days from d to other. It is negative
// when other lies before d.
func (d Date) DaysUntil(other Date) int {
	from, to := DateOf(d.Time), DateOf(other.Time)
	// Unix seconds instead of Sub: a time.Duration saturates after ~292 years.
	return int((to.Unix() - from.Unix()) / secondsPerDay)
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// MarshalJSON encodes the date as YYYY-MM-DD, or null when zero.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format(DateLayout))
}

// UnmarshalJSON accepts YYYY-MM-DD, RFC 3339 or null.
func (d *Date) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("%w: date must be a string", domain.ErrValidation)
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
