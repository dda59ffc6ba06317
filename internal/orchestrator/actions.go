package orchestrator

import (
	"context"
	"fmt"

	"github.com/dusk-indust/shopsplit/internal/session"
)

// Confirm passes the human confirmation gate and starts checkout. The state
// check and the confirmed flag are set under the store's lock, so a
// confirmation delivered twice can never start checkout twice: the second
// call sees checking_out and gets ErrDuplicateAction.
func (e *Engine) Confirm(ctx context.Context, sessionID string) error {
	err := e.store.Update(sessionID, func(s *session.Session) error {
		switch s.State {
		case session.StateAwaitingConfirmation:
			s.Confirmed = true
			s.State = session.StateCheckingOut
			return nil
		case session.StateCheckingOut, session.StateCompleted:
			return fmt.Errorf("%w: session %s already confirmed", session.ErrDuplicateAction, sessionID)
		default:
			return fmt.Errorf("%w: cannot confirm in state %s", session.ErrStateConflict, s.State)
		}
	})
	if err != nil {
		return err
	}

	e.logger.Info("order confirmed", "session_id", sessionID)
	e.emit(sessionID, session.EventCheckingOut, nil)

	go e.runCheckout(context.WithoutCancel(ctx), sessionID)
	return nil
}

// Cancel abandons the session. Only allowed while the session sits at the
// confirmation gate; once checkout has started the purchase is in motion and
// cancellation is a conflict.
func (e *Engine) Cancel(ctx context.Context, sessionID string) error {
	err := e.store.Update(sessionID, func(s *session.Session) error {
		switch s.State {
		case session.StateAwaitingConfirmation:
			s.State = session.StateCancelled
			return nil
		case session.StateCancelled:
			return fmt.Errorf("%w: session %s already cancelled", session.ErrDuplicateAction, sessionID)
		default:
			return fmt.Errorf("%w: cannot cancel in state %s", session.ErrStateConflict, s.State)
		}
	})
	if err != nil {
		return err
	}

	e.logger.Info("session cancelled", "session_id", sessionID)
	e.emit(sessionID, session.EventCancelled, nil)
	return nil
}

// runCheckout drives the coordinator and finalizes the session. The
// transition to completed happens regardless of the unified order's business
// status; partial and failed checkouts are outcomes, not pipeline errors.
func (e *Engine) runCheckout(ctx context.Context, sessionID string) {
	sess, err := e.store.Get(sessionID)
	if err != nil || sess.Plan == nil {
		e.fail(sessionID, "no plan to check out")
		return
	}

	order, err := e.coordinator.Checkout(ctx, sessionID, *sess.Plan)
	if err != nil {
		e.fail(sessionID, err.Error())
		return
	}

	if err := e.store.Update(sessionID, func(s *session.Session) error {
		if !s.State.CanTransition(session.StateCompleted) {
			return fmt.Errorf("%w: %s -> completed", session.ErrStateConflict, s.State)
		}
		s.Order = order
		s.State = session.StateCompleted
		return nil
	}); err != nil {
		e.logger.Error("could not complete session", "session_id", sessionID, "error", err)
		return
	}

	e.logger.Info("session completed",
		"session_id", sessionID,
		"overall_status", order.OverallStatus,
		"total_charged", order.TotalCharged.StringFixed(2))
	e.emit(sessionID, session.EventCompleted, map[string]any{
		"overall_status": string(order.OverallStatus),
		"total_charged":  order.TotalCharged.StringFixed(2),
	})
}
