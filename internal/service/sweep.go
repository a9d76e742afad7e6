package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/house-rental-booking/internal/booking"
	"github.com/iliyamo/house-rental-booking/internal/metrics"
	"github.com/iliyamo/house-rental-booking/internal/model"
)

// SweepResult counts what one sweeper pass did.
type SweepResult struct {
	Activated int
	Completed int
	Failed    int
}

func systemActor(booking.Booking, model.House) booking.Actor { return booking.ActorSystem }

// Sweep moves APPROVED bookings whose start date has come to ACTIVE, then
// ACTIVE bookings whose end date has come to COMPLETED.  Completion is
// listed after activation so a booking missed for its whole stay goes
// through both steps in one pass.  A failure on one booking is logged
// and counted; only a failed listing aborts the pass.
func (s *BookingService) Sweep(ctx context.Context) (SweepResult, error) {
	start := time.Now()
	var res SweepResult
	defer func() { metrics.SweepDuration.Observe(time.Since(start).Seconds()) }()

	today := booking.Day(s.now())
	due, err := s.store.ListDueForActivation(ctx, today)
	if err != nil {
		metrics.SweepRuns.WithLabelValues("error").Inc()
		return res, fmt.Errorf("list bookings due for activation: %w", err)
	}
	for _, b := range due {
		if s.sweepOne(ctx, b, booking.StatusActive) {
			res.Activated++
		} else {
			res.Failed++
		}
	}

	due, err = s.store.ListDueForCompletion(ctx, today)
	if err != nil {
		metrics.SweepRuns.WithLabelValues("error").Inc()
		return res, fmt.Errorf("list bookings due for completion: %w", err)
	}
	for _, b := range due {
		if s.sweepOne(ctx, b, booking.StatusCompleted) {
			res.Completed++
		} else {
			res.Failed++
		}
	}

	metrics.SweepRuns.WithLabelValues("ok").Inc()
	s.log.WithFields(logrus.Fields{
		"activated": res.Activated,
		"completed": res.Completed,
		"failed":    res.Failed,
	}).Info("sweep finished")
	return res, nil
}

func (s *BookingService) sweepOne(ctx context.Context, b booking.Booking, target booking.Status) bool {
	if _, err := s.transition(ctx, b.ID, target, "", systemActor); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{"booking_id": b.ID, "to": target}).Warn("sweep transition failed")
		return false
	}
	return true
}

// RunSweeper calls Sweep every interval until ctx is done.
func (s *BookingService) RunSweeper(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		if _, err := s.Sweep(ctx); err != nil {
			s.log.WithError(err).Error("sweep failed")
		}
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}
