package services

import (
	"math"
	"sort"
)

// percentageTolerance absorbs floating-point rounding when checking that a
// schedule sums to exactly 100%.
const percentageTolerance = 0.01

// PercentageAllocator maintains the mutable set of (week, percentage) pairs
// for one project. The signup percentage is deliberately NOT part of the
// mutable set: it is a fixed share supplied by the project record and is
// added exactly once when computing the grand total. Folding it into the set
// is how the double-counting bugs happen.
type PercentageAllocator struct {
	projectID  uint
	totalWeeks int
	signupPct  float64
	entries    map[int]float64
}

// NewPercentageAllocator creates an allocator for a project with the given
// week count and fixed signup share.
func NewPercentageAllocator(projectID uint, totalWeeks int, signupPct float64) *PercentageAllocator {
	return &PercentageAllocator{
		projectID:  projectID,
		totalWeeks: totalWeeks,
		signupPct:  signupPct,
		entries:    make(map[int]float64),
	}
}

// AddWeek registers a percentage for a week. Week 0 is reserved for the
// signup charge and is rejected here.
func (a *PercentageAllocator) AddWeek(weekNo int, percentage float64) error {
	if err := a.validateWeekNo(weekNo); err != nil {
		return err
	}
	if _, exists := a.entries[weekNo]; exists {
		return &WeekError{ProjectID: a.projectID, WeekNo: weekNo, Value: percentage, Err: ErrDuplicateWeek}
	}
	if err := a.validatePercentage(weekNo, percentage); err != nil {
		return err
	}
	a.entries[weekNo] = percentage
	return nil
}

// UpdateWeek replaces the percentage for an existing week
func (a *PercentageAllocator) UpdateWeek(weekNo int, percentage float64) error {
	if weekNo == 0 {
		return &WeekError{ProjectID: a.projectID, WeekNo: weekNo, Value: percentage, Err: ErrImmutableWeek}
	}
	if _, exists := a.entries[weekNo]; !exists {
		return &WeekError{ProjectID: a.projectID, WeekNo: weekNo, Value: percentage, Err: ErrInvalidWeek}
	}
	if err := a.validatePercentage(weekNo, percentage); err != nil {
		return err
	}
	a.entries[weekNo] = percentage
	return nil
}

// RemoveWeek deletes a week from the set
func (a *PercentageAllocator) RemoveWeek(weekNo int) error {
	if weekNo == 0 {
		return &WeekError{ProjectID: a.projectID, WeekNo: weekNo, Err: ErrImmutableWeek}
	}
	if _, exists := a.entries[weekNo]; !exists {
		return &WeekError{ProjectID: a.projectID, WeekNo: weekNo, Err: ErrInvalidWeek}
	}
	delete(a.entries, weekNo)
	return nil
}

// Has reports whether a week is present in the mutable set
func (a *PercentageAllocator) Has(weekNo int) bool {
	_, ok := a.entries[weekNo]
	return ok
}

// Percentage returns the percentage registered for a week, or 0
func (a *PercentageAllocator) Percentage(weekNo int) float64 {
	return a.entries[weekNo]
}

// WeekNos returns the registered week numbers in ascending order
func (a *PercentageAllocator) WeekNos() []int {
	nos := make([]int, 0, len(a.entries))
	for n := range a.entries {
		nos = append(nos, n)
	}
	sort.Ints(nos)
	return nos
}

// Len returns the number of non-signup weeks registered
func (a *PercentageAllocator) Len() int {
	return len(a.entries)
}

// TotalPercentage returns the sum over all weeks plus the signup share
func (a *PercentageAllocator) TotalPercentage() float64 {
	total := a.signupPct
	for _, pct := range a.entries {
		total += pct
	}
	return total
}

// IsComplete reports whether the total is 100% within tolerance
func (a *PercentageAllocator) IsComplete() bool {
	return math.Abs(a.TotalPercentage()-100) <= percentageTolerance
}

func (a *PercentageAllocator) validateWeekNo(weekNo int) error {
	if weekNo < 1 || weekNo > a.totalWeeks {
		return &WeekError{ProjectID: a.projectID, WeekNo: weekNo, Err: ErrInvalidWeek}
	}
	return nil
}

func (a *PercentageAllocator) validatePercentage(weekNo int, percentage float64) error {
	if percentage < 0 || percentage > 100 {
		return &WeekError{ProjectID: a.projectID, WeekNo: weekNo, Value: percentage, Err: ErrInvalidPercentage}
	}
	return nil
}
