package structs

import (
	"encoding/json"
	"time"
)

//*******************************************
// date
//*******************************************

const DATE_LAYOUT = "2006-01-02"

// Date is a calendar day counted from 1970-01-01.
type Date int32

func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	utc := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return Date(utc.Unix() / 86400)
}

func NewDate(year int, month time.Month, day int) Date {
	return DateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DATE_LAYOUT, s)
	if err != nil {
		return 0, err
	}
	return DateOf(t), nil
}

// ParseCompactDate parses dates of the form 20060102.
func ParseCompactDate(s string) (Date, error) {
	t, err := time.Parse("20060102", s)
	if err != nil {
		return 0, err
	}
	return DateOf(t), nil
}

func (self Date) Time() time.Time {
	return time.Unix(int64(self)*86400, 0).UTC()
}

// Weekday returns the day of the week with Monday = 0.
func (self Date) Weekday() int {
	// 1970-01-01 was a thursday
	return ((int(self)+3)%7 + 7) % 7
}

func (self Date) String() string {
	return self.Time().Format(DATE_LAYOUT)
}
func (self Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(self.String())
}
func (self *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	d, err := ParseDate(s)
	if err != nil {
		return err
	}
	*self = d
	return nil
}
