package statemachine

import (
	"context"
	"fmt"

	"github.com/looplab/fsm"
	"github.com/nestora/studio-api/internal/models"
)

// PaymentWeekFSM wraps a payment week with its state machine.
// The status only advances: pending → partial → paid. There is no
// transition out of paid; corrections are an administrative concern
// outside this machine.
type PaymentWeekFSM struct {
	week *models.PaymentWeek
	fsm  *fsm.FSM
}

// NewPaymentWeekFSM creates a new payment week state machine
func NewPaymentWeekFSM(week *models.PaymentWeek) *PaymentWeekFSM {
	wfsm := &PaymentWeekFSM{
		week: week,
	}

	wfsm.fsm = fsm.NewFSM(
		week.Status,
		fsm.Events{
			// pending → partial (paid amount below the scheduled amount)
			{Name: "record_partial", Src: []string{models.WeekStatusPending}, Dst: models.WeekStatusPartial},

			// pending/partial → paid
			{Name: "record_paid", Src: []string{models.WeekStatusPending, models.WeekStatusPartial}, Dst: models.WeekStatusPaid},
		},
		fsm.Callbacks{},
	)

	return wfsm
}

// RecordPartial transitions the week to partial
func (w *PaymentWeekFSM) RecordPartial(ctx context.Context) error {
	if !w.week.MayRecordPartial() {
		return fmt.Errorf("payment week cannot go partial in current state: %s", w.week.Status)
	}

	if err := w.fsm.Event(ctx, "record_partial"); err != nil {
		return fmt.Errorf("failed to record partial payment: %w", err)
	}

	w.week.Status = w.fsm.Current()
	return nil
}

// RecordPaid transitions the week to paid
func (w *PaymentWeekFSM) RecordPaid(ctx context.Context) error {
	if !w.week.MayRecordPaid() {
		return fmt.Errorf("payment week cannot be marked paid in current state: %s", w.week.Status)
	}

	if err := w.fsm.Event(ctx, "record_paid"); err != nil {
		return fmt.Errorf("failed to record full payment: %w", err)
	}

	w.week.Status = w.fsm.Current()
	return nil
}

// Current returns the current state
func (w *PaymentWeekFSM) Current() string {
	return w.fsm.Current()
}

// Can checks if a transition is possible
func (w *PaymentWeekFSM) Can(event string) bool {
	return w.fsm.Can(event)
}
