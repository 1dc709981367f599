package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWeekStatus(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{WeekStatusPending, WeekStatusPending},
		{WeekStatusPartial, WeekStatusPartial},
		{WeekStatusPaid, WeekStatusPaid},
		// Legacy numeric codes, as strings and as numbers
		{"1", WeekStatusPending},
		{"2", WeekStatusPartial},
		{"3", WeekStatusPaid},
		{1, WeekStatusPending},
		{2, WeekStatusPartial},
		{3, WeekStatusPaid},
		{float64(3), WeekStatusPaid},
	}

	for _, c := range cases {
		got, err := ParseWeekStatus(c.in)
		require.NoError(t, err, "input %v", c.in)
		assert.Equal(t, c.want, got)
	}

	for _, bad := range []any{"0", "4", "done", 0, 4, nil, true} {
		_, err := ParseWeekStatus(bad)
		assert.Error(t, err, "input %v", bad)
	}
}

func TestParseInvoiceStatus(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{InvoiceStatusPending, InvoiceStatusPending},
		{InvoiceStatusApproved, InvoiceStatusApproved},
		{InvoiceStatusPaid, InvoiceStatusPaid},
		{InvoiceStatusCancelled, InvoiceStatusCancelled},
		{"1", InvoiceStatusPending},
		{"2", InvoiceStatusApproved},
		{"3", InvoiceStatusPaid},
		{"4", InvoiceStatusCancelled},
		{4, InvoiceStatusCancelled},
		{float64(2), InvoiceStatusApproved},
	}

	for _, c := range cases {
		got, err := ParseInvoiceStatus(c.in)
		require.NoError(t, err, "input %v", c.in)
		assert.Equal(t, c.want, got)
	}

	for _, bad := range []any{"5", "void", 0, 5, nil} {
		_, err := ParseInvoiceStatus(bad)
		assert.Error(t, err, "input %v", bad)
	}
}

func TestPaymentWeekScheduledAmount(t *testing.T) {
	week := PaymentWeek{Percentage: 8}
	assert.Equal(t, 80000.0, week.ScheduledAmount(1000000))
}

func TestPaymentWeekOverdue(t *testing.T) {
	past := time.Now().AddDate(0, 0, -3)
	future := time.Now().AddDate(0, 0, 3)

	cases := []struct {
		week PaymentWeek
		want bool
	}{
		{PaymentWeek{DueDate: past, Status: WeekStatusPending}, true},
		{PaymentWeek{DueDate: past, Status: WeekStatusPartial}, true},
		{PaymentWeek{DueDate: past, Status: WeekStatusPaid}, false},
		{PaymentWeek{DueDate: future, Status: WeekStatusPending}, false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, c.week.IsOverdue(), "status %s", c.week.Status)
	}
}

func TestInvoiceIsLate(t *testing.T) {
	due := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	onTime := due.AddDate(0, 0, -1)
	late := due.AddDate(0, 0, 5)

	unpaid := Invoice{DueDate: due}
	assert.False(t, unpaid.IsLate(), "unpaid invoice is not late")

	paidOnTime := Invoice{DueDate: due, ActualPaymentDate: &onTime}
	assert.False(t, paidOnTime.IsLate())

	paidLate := Invoice{DueDate: due, ActualPaymentDate: &late}
	assert.True(t, paidLate.IsLate())
}

func TestValidPartyCategory(t *testing.T) {
	for _, cat := range []string{PartyVendor, PartyCompany, PartyCustomer, PartyThirdParty} {
		assert.True(t, ValidPartyCategory(cat))
	}
	assert.False(t, ValidPartyCategory(""))
	assert.False(t, ValidPartyCategory("landlord"))
}
