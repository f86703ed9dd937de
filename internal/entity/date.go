package entity

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the text encoding of a calendar date on disk and on the wire.
const DateLayout = "2006-01-02"

var dateLayouts = []string{
	DateLayout,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
}

// Date is a calendar day with no time-of-day or zone component.
type Date struct {
	t time.Time
}

// NewDate builds a Date from its components.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf drops the time-of-day from t, keeping the calendar day in t's location.
func DateOf(t time.Time) Date {
	if t.IsZero() {
		return Date{}
	}
	return NewDate(t.Year(), t.Month(), t.Day())
}

// Today returns the current calendar day in local time.
func Today() Date {
	return DateOf(time.Now())
}

// ParseDate accepts YYYY-MM-DD and, for legacy rows, full timestamps whose
// time-of-day is discarded.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DateOf(t), nil
		}
	}
	return Date{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
}

// Time returns midnight UTC of the day.
func (d Date) Time() time.Time { return d.t }

// IsZero reports whether the date is unset.
func (d Date) IsZero() bool { return d.t.IsZero() }

// Before reports whether d is strictly earlier than o.
func (d Date) Before(o Date) bool { return d.t.Before(o.t) }

// After reports whether d is strictly later than o.
func (d Date) After(o Date) bool { return d.t.After(o.t) }

// Equal reports whether both values denote the same day.
func (d Date) Equal(o Date) bool { return d.t.Equal(o.t) }

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(DateLayout)
}

// Value stores the date as YYYY-MM-DD text.
func (d Date) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.String(), nil
}

// Scan reads text, byte and time column values.
func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*d = Date{}
		return nil
	case time.Time:
		*d = DateOf(v)
		return nil
	case string:
		return d.scanText(v)
	case []byte:
		return d.scanText(string(v))
	default:
		return fmt.Errorf("entity: cannot scan %T into Date", src)
	}
}

func (d *Date) scanText(s string) error {
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MarshalJSON encodes the date as "YYYY-MM-DD", or null when unset.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts "YYYY-MM-DD", "" or null.
func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	return d.scanText(s)
}

// PaidDate is the day an order's payment was recorded. On disk it is an
// 8-digit YYYYMMDD integer where 0 means unset; the zero value is unset.
type PaidDate struct {
	day Date
}

// UnsetPaidDate is the explicit "not yet paid" value.
var UnsetPaidDate = PaidDate{}

// PaidOn marks payment on the given day.
func PaidOn(d Date) PaidDate {
	return PaidDate{day: d}
}

// PaidDateFromInt decodes the YYYYMMDD integer form; 0 yields UnsetPaidDate.
func PaidDateFromInt(v int64) (PaidDate, error) {
	if v == 0 {
		return UnsetPaidDate, nil
	}
	if v < 0 {
		return UnsetPaidDate, fmt.Errorf("invalid paid date %d: negative", v)
	}
	if v < 10000101 || v > 99991231 {
		return UnsetPaidDate, fmt.Errorf("invalid paid date %d: want YYYYMMDD", v)
	}
	year, month, day := int(v/10000), time.Month(v/100%100), int(v%100)
	d := NewDate(year, month, day)
	if d.t.Year() != year || d.t.Month() != month || d.t.Day() != day {
		return UnsetPaidDate, fmt.Errorf("invalid paid date %d: no such day", v)
	}
	return PaidDate{day: d}, nil
}

// IsSet reports whether a payment day is recorded.
func (p PaidDate) IsSet() bool { return !p.day.IsZero() }

// Date returns the payment day and whether it is set.
func (p PaidDate) Date() (Date, bool) { return p.day, p.IsSet() }

// Int returns the YYYYMMDD encoding, 0 when unset.
func (p PaidDate) Int() int64 {
	if !p.IsSet() {
		return 0
	}
	t := p.day.Time()
	return int64(t.Year()*10000 + int(t.Month())*100 + t.Day())
}

func (p PaidDate) String() string {
	if !p.IsSet() {
		return "unset"
	}
	return p.day.String()
}

// Value stores the YYYYMMDD integer.
func (p PaidDate) Value() (driver.Value, error) {
	return p.Int(), nil
}

// Scan reads the YYYYMMDD integer; NULL is treated as unset.
func (p *PaidDate) Scan(src any) error {
	var raw int64
	switch v := src.(type) {
	case nil:
		*p = UnsetPaidDate
		return nil
	case int64:
		raw = v
	case float64:
		raw = int64(v)
	case []byte:
		return p.scanText(string(v))
	case string:
		return p.scanText(v)
	default:
		return fmt.Errorf("entity: cannot scan %T into PaidDate", src)
	}
	parsed, err := PaidDateFromInt(raw)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

func (p *PaidDate) scanText(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		*p = UnsetPaidDate
		return nil
	}
	raw, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid paid date %q: %w", s, err)
	}
	parsed, err := PaidDateFromInt(raw)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// MarshalJSON encodes a set date as "YYYY-MM-DD" and an unset one as null.
func (p PaidDate) MarshalJSON() ([]byte, error) {
	if !p.IsSet() {
		return []byte("null"), nil
	}
	return json.Marshal(p.day.String())
}

// UnmarshalJSON accepts null, "", "YYYY-MM-DD" or the YYYYMMDD integer.
func (p *PaidDate) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*p = UnsetPaidDate
		return nil
	}
	if len(trimmed) > 0 && trimmed[0] != '"' {
		var raw int64
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return err
		}
		parsed, err := PaidDateFromInt(raw)
		if err != nil {
			return err
		}
		*p = parsed
		return nil
	}
	var day Date
	if err := day.UnmarshalJSON(trimmed); err != nil {
		return err
	}
	*p = PaidDate{day: day}
	return nil
}
