// Package reconcile merges a device's guest cart into the user's server cart
// when the device becomes authenticated.
package reconcile

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/wodoame/smecs/internal/domain/cart"
	domain "github.com/wodoame/smecs/internal/domain/session"
	"github.com/wodoame/smecs/internal/metrics"
	"github.com/wodoame/smecs/internal/session"
	"github.com/wodoame/smecs/internal/store"
)

const (
	TriggerLogin    = "login"
	TriggerPageLoad = "page_load"
)

type Backend interface {
	CreateCart(ctx context.Context, token string, userID int64) (int64, error)
	BatchAdd(ctx context.Context, token string, userID int64, lines []cart.Line) ([]cart.Line, error)
}

type GuestCart interface {
	Lines(ctx context.Context, device string) ([]cart.Line, error)
	Clear(ctx context.Context, device string) error
}

type Sessions interface {
	Active(ctx context.Context, device string) (*domain.Session, error)
	EnsureCart(ctx context.Context, device string, create func(domain.Session) (int64, error)) (int64, error)
	Hub() *session.Hub
}

// Result describes one merge. Merged reports whether the batch call was made;
// it stays false for an empty guest cart and when no server cart could be
// had, in which case the guest cart is kept for the next attempt.
type Result struct {
	Merged bool
	Lines  int
	Err    error
}

type Reconciler struct {
	guest    GuestCart
	backend  Backend
	sessions Sessions
	log      logrus.FieldLogger
	locks    *store.Locks
	buffer   int
}

func New(guest GuestCart, backend Backend, sessions Sessions, log logrus.FieldLogger) *Reconciler {
	return &Reconciler{guest: guest, backend: backend, sessions: sessions, log: log, locks: store.NewLocks(), buffer: 256}
}

// Run consumes session change events until ctx is done. A login merges the
// device's guest cart; a logout pushes nothing back.
func (r *Reconciler) Run(ctx context.Context) {
	events, cancel := r.sessions.Hub().Subscribe("", r.buffer)
	defer cancel()

	r.log.Info("reconciler started")
	for {
		select {
		case <-ctx.Done():
			r.log.Info("reconciler stopped")
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if !ev.LoggedIn() {
				continue
			}
			// the device may have logged out again since the event
			sess, err := r.sessions.Active(ctx, ev.Device)
			if err != nil {
				r.log.WithField("device", ev.Device).WithError(err).Warn("load session for merge")
				continue
			}
			if sess == nil {
				continue
			}
			r.Merge(ctx, ev.Device, *sess, TriggerLogin)
		}
	}
}

// Resume covers a page load that finds a valid session next to a stale
// guest cart left by an earlier anonymous visit.
func (r *Reconciler) Resume(ctx context.Context, device string) (*domain.Session, Result, error) {
	sess, err := r.sessions.Active(ctx, device)
	if err != nil || sess == nil {
		return nil, Result{}, err
	}
	res := r.Merge(ctx, device, *sess, TriggerPageLoad)
	if res.Merged && sess.CartID == nil {
		// the merge may have created the cart
		if fresh, err := r.sessions.Active(ctx, device); err == nil && fresh != nil {
			sess = fresh
		}
	}
	return sess, res, nil
}

// Merge submits the guest lines with one batch call and then clears the
// guest cart whether or not that call succeeded. Merges of one device never
// overlap, so a login event racing a page load submits the lines once.
func (r *Reconciler) Merge(ctx context.Context, device string, sess domain.Session, trigger string) Result {
	unlock := r.locks.Lock(device)
	defer unlock()

	log := r.log.WithFields(logrus.Fields{"device": device, "user_id": sess.UserID, "trigger": trigger})

	lines, err := r.guest.Lines(ctx, device)
	if err != nil {
		log.WithError(err).Warn("read guest cart")
		return Result{Err: err}
	}
	if len(lines) == 0 {
		return Result{}
	}

	res := Result{Lines: len(lines)}
	if err := r.ensureCart(ctx, device, sess); err != nil {
		log.WithError(err).Warn("no server cart; guest cart kept")
		metrics.RecordReconciliation(trigger, false)
		res.Err = err
		return res
	}
	res.Merged = true
	_, res.Err = r.backend.BatchAdd(ctx, sess.Token, sess.UserID, lines)

	if err := r.guest.Clear(ctx, device); err != nil {
		log.WithError(err).Error("clear guest cart")
		res.Err = errors.Join(res.Err, err)
	}

	metrics.RecordReconciliation(trigger, res.Err == nil)
	if res.Err != nil {
		log.WithError(res.Err).WithField("lines", len(lines)).Warn("guest cart merge failed; guest cart discarded")
	} else {
		log.WithField("lines", len(lines)).Info("guest cart merged")
	}
	return res
}

func (r *Reconciler) ensureCart(ctx context.Context, device string, sess domain.Session) error {
	if sess.CartID != nil {
		return nil
	}
	_, err := r.sessions.EnsureCart(ctx, device, func(cur domain.Session) (int64, error) {
		return r.backend.CreateCart(ctx, cur.Token, cur.UserID)
	})
	return err
}
