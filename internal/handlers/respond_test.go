package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/nestora/studio-api/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondErrorStatusMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{
			name:     "Not Found",
			err:      fmt.Errorf("project 1: %w", services.ErrNotFound),
			expected: http.StatusNotFound,
		},
		{
			name:     "Week Conflict",
			err:      fmt.Errorf("week 2: %w", services.ErrConflictingWeek),
			expected: http.StatusConflict,
		},
		{
			name:     "Terminal State",
			err:      &services.TransitionError{Entity: "invoice", ID: 1, From: "cancelled", Event: "approve", Err: services.ErrTerminalState},
			expected: http.StatusConflict,
		},
		{
			name:     "Invalid Percentage",
			err:      &services.WeekError{ProjectID: 1, WeekNo: 2, Value: 120, Err: services.ErrInvalidPercentage},
			expected: http.StatusUnprocessableEntity,
		},
		{
			name:     "Incomplete Schedule",
			err:      &services.IncompleteScheduleError{ProjectID: 1, Total: 99.5},
			expected: http.StatusUnprocessableEntity,
		},
		{
			name:     "Immutable Signup Week",
			err:      &services.WeekError{ProjectID: 1, WeekNo: 0, Err: services.ErrImmutableWeek},
			expected: http.StatusUnprocessableEntity,
		},
		{
			name:     "Unexpected Error",
			err:      fmt.Errorf("connection reset"),
			expected: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			respondError(c, tt.err)
			assert.Equal(t, tt.expected, w.Code)
		})
	}
}

func TestParseWeekDates(t *testing.T) {
	inv, due, err := parseWeekDates("2025-01-08", nil)
	require.NoError(t, err)
	assert.Equal(t, "2025-01-08", inv.Format("2006-01-02"))
	assert.Nil(t, due, "due date left to the schedule to derive")

	explicit := "2025-01-12"
	inv, due, err = parseWeekDates("2025-01-08", &explicit)
	require.NoError(t, err)
	require.NotNil(t, due)
	assert.Equal(t, "2025-01-12", due.Format("2006-01-02"))
	assert.True(t, inv.Before(*due))

	empty := ""
	_, due, err = parseWeekDates("2025-01-08", &empty)
	require.NoError(t, err)
	assert.Nil(t, due)

	_, _, err = parseWeekDates("08/01/2025", nil)
	assert.Error(t, err)
}

func TestParamHelpers(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("valid ids", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Params = gin.Params{{Key: "project_id", Value: "42"}, {Key: "week_no", Value: "0"}}

		id, ok := paramUint(c, "project_id")
		require.True(t, ok)
		assert.Equal(t, uint(42), id)

		weekNo, ok := paramInt(c, "week_no")
		require.True(t, ok)
		assert.Equal(t, 0, weekNo)
	})

	t.Run("invalid ids respond 400", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Params = gin.Params{{Key: "project_id", Value: "abc"}}

		_, ok := paramUint(c, "project_id")
		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
