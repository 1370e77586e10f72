package structs

import (
	"slices"
)

//*******************************************
// calendar
//*******************************************

// Calendar is a service day pattern. Start is inclusive, End exclusive and
// Weekdays starts with monday. Excludes and Includes are kept sorted.
type Calendar struct {
	Start    Date    `json:"start"`
	End      Date    `json:"end"`
	Weekdays [7]bool `json:"weekdays"`
	Excludes []Date  `json:"excludes"`
	Includes []Date  `json:"includes"`
}

func (self *Calendar) IsActive(date Date) bool {
	if _, found := slices.BinarySearch(self.Excludes, date); found {
		return false
	}
	if _, found := slices.BinarySearch(self.Includes, date); found {
		return true
	}
	if date < self.Start || date >= self.End {
		return false
	}
	return self.Weekdays[date.Weekday()]
}

// Normalize sorts and deduplicates the exception dates.
func (self *Calendar) Normalize() {
	slices.Sort(self.Excludes)
	self.Excludes = slices.Compact(self.Excludes)
	slices.Sort(self.Includes)
	self.Includes = slices.Compact(self.Includes)
}

func AllWeekdays() [7]bool {
	return [7]bool{true, true, true, true, true, true, true}
}
