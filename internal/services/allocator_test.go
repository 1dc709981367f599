package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllocatorAddWeek(t *testing.T) {
	a := NewPercentageAllocator(1, 10, 20)

	assert.NoError(t, a.AddWeek(1, 8))
	assert.True(t, a.Has(1))
	assert.Equal(t, 8.0, a.Percentage(1))

	t.Run("week zero is reserved", func(t *testing.T) {
		err := a.AddWeek(0, 5)
		assert.True(t, errors.Is(err, ErrInvalidWeek))
	})

	t.Run("week beyond project length", func(t *testing.T) {
		err := a.AddWeek(11, 5)
		assert.True(t, errors.Is(err, ErrInvalidWeek))
	})

	t.Run("duplicate week", func(t *testing.T) {
		err := a.AddWeek(1, 5)
		assert.True(t, errors.Is(err, ErrDuplicateWeek))
	})

	t.Run("percentage out of range", func(t *testing.T) {
		assert.True(t, errors.Is(a.AddWeek(2, -1), ErrInvalidPercentage))
		assert.True(t, errors.Is(a.AddWeek(2, 100.5), ErrInvalidPercentage))
	})
}

func TestAllocatorUpdateAndRemove(t *testing.T) {
	a := NewPercentageAllocator(1, 10, 20)
	assert.NoError(t, a.AddWeek(3, 8))

	assert.NoError(t, a.UpdateWeek(3, 12))
	assert.Equal(t, 12.0, a.Percentage(3))

	assert.True(t, errors.Is(a.UpdateWeek(0, 10), ErrImmutableWeek))
	assert.True(t, errors.Is(a.RemoveWeek(0), ErrImmutableWeek))
	assert.True(t, errors.Is(a.UpdateWeek(5, 10), ErrInvalidWeek))
	assert.True(t, errors.Is(a.RemoveWeek(5), ErrInvalidWeek))

	assert.NoError(t, a.RemoveWeek(3))
	assert.False(t, a.Has(3))
}

func TestAllocatorTotalIncludesSignupShareOnce(t *testing.T) {
	a := NewPercentageAllocator(1, 10, 20)

	assert.Equal(t, 20.0, a.TotalPercentage(), "signup share counts with no weeks added")

	for week := 1; week <= 10; week++ {
		assert.NoError(t, a.AddWeek(week, 8))
		if week < 10 {
			assert.False(t, a.IsComplete(), "week %d: total %.2f must not be complete", week, a.TotalPercentage())
		}
	}

	assert.InDelta(t, 100.0, a.TotalPercentage(), 1e-9)
	assert.True(t, a.IsComplete())
}

func TestAllocatorCompletenessTolerance(t *testing.T) {
	t.Run("just inside tolerance", func(t *testing.T) {
		a := NewPercentageAllocator(1, 10, 20)
		assert.NoError(t, a.AddWeek(1, 80.005))
		assert.True(t, a.IsComplete())
	})

	t.Run("outside tolerance", func(t *testing.T) {
		a := NewPercentageAllocator(1, 10, 20)
		assert.NoError(t, a.AddWeek(1, 79.5))
		assert.False(t, a.IsComplete())
	})
}

func TestAllocatorWeekNosSorted(t *testing.T) {
	a := NewPercentageAllocator(1, 20, 0)
	for _, n := range []int{7, 2, 13, 1} {
		assert.NoError(t, a.AddWeek(n, 25))
	}
	assert.Equal(t, []int{1, 2, 7, 13}, a.WeekNos())
	assert.Equal(t, 4, a.Len())
}
