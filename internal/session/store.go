package session

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"

	domain "github.com/wodoame/smecs/internal/domain/session"
	"github.com/wodoame/smecs/internal/store"
)

// ErrNoSession is returned by EnsureCart for a device that is signed out.
var ErrNoSession = errors.New("no session")

// Store is the single owner of every device's session record. Reads always go
// to the record store; nothing is cached here.
type Store struct {
	records store.Store
	hub     *Hub
	locks   *store.Locks
	now     func() time.Time
	log     logrus.FieldLogger

	// held across cart creation, separate from the record locks
	cartLocks *store.Locks
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(s *Store) { s.log = log }
}

func NewStore(records store.Store, hub *Hub, opts ...Option) *Store {
	s := &Store{
		records:   records,
		hub:       hub,
		locks:     store.NewLocks(),
		now:       time.Now,
		log:       logrus.StandardLogger(),
		cartLocks: store.NewLocks(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Store) Hub() *Hub { return s.hub }

func (s *Store) Login(ctx context.Context, device string, sess domain.Session) error {
	unlock := s.locks.Lock(device)
	err := store.SaveJSON(ctx, s.records, device, store.KeySession, sess)
	unlock()
	if err != nil {
		return err
	}
	cp := sess.Clone()
	s.hub.Publish(Event{Device: device, Session: &cp, At: s.now()})
	return nil
}

func (s *Store) Logout(ctx context.Context, device string) error {
	unlock := s.locks.Lock(device)
	err := s.records.Delete(ctx, device, store.KeySession)
	unlock()
	if err != nil {
		return err
	}
	s.hub.Publish(Event{Device: device, At: s.now()})
	return nil
}

// Current returns the stored session, or nil. A record that cannot be decoded
// reads as no session.
func (s *Store) Current(ctx context.Context, device string) (*domain.Session, error) {
	var sess domain.Session
	found, err := store.LoadJSON(ctx, s.records, device, store.KeySession, &sess)
	if errors.Is(err, store.ErrCorrupt) {
		s.log.WithField("device", device).WithError(err).Warn("ignoring unreadable session record")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &sess, nil
}

// IsValid applies the expiry policy to the stored session.
func (s *Store) IsValid(ctx context.Context, device string) (bool, error) {
	sess, err := s.Current(ctx, device)
	if err != nil || sess == nil {
		return false, err
	}
	return sess.IsValid(s.now()), nil
}

// Active returns the session only if it is valid. An expired session is
// destroyed, which emits the logout signal.
func (s *Store) Active(ctx context.Context, device string) (*domain.Session, error) {
	sess, err := s.Current(ctx, device)
	if err != nil || sess == nil {
		return nil, err
	}
	if sess.IsValid(s.now()) {
		return sess, nil
	}
	s.log.WithField("device", device).Info("session expired")
	if err := s.Logout(ctx, device); err != nil {
		return nil, err
	}
	return nil, nil
}

// SetCartID records a lazily created server cart. It is not a login or
// logout, so no signal is emitted.
func (s *Store) SetCartID(ctx context.Context, device string, cartID int64) error {
	unlock := s.locks.Lock(device)
	defer unlock()

	var sess domain.Session
	found, err := store.LoadJSON(ctx, s.records, device, store.KeySession, &sess)
	if err != nil || !found {
		return err
	}
	sess.CartID = &cartID
	return store.SaveJSON(ctx, s.records, device, store.KeySession, sess)
}

// EnsureCart returns the device's server cart id. create runs only when the
// stored session has none, and callers for one device are serialized, so a
// merge racing a first add-to-cart shares one cart.
func (s *Store) EnsureCart(ctx context.Context, device string, create func(domain.Session) (int64, error)) (int64, error) {
	unlock := s.cartLocks.Lock(device)
	defer unlock()

	sess, err := s.Current(ctx, device)
	if err != nil {
		return 0, err
	}
	if sess == nil {
		return 0, ErrNoSession
	}
	if sess.CartID != nil {
		return *sess.CartID, nil
	}
	id, err := create(*sess)
	if err != nil {
		return 0, err
	}
	if err := s.SetCartID(ctx, device, id); err != nil {
		return 0, err
	}
	return id, nil
}

// ExpiryFromToken reads the exp claim of a JWT bearer token without
// verifying it. Opaque tokens and tokens without exp yield nil.
func ExpiryFromToken(token string) *time.Time {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return nil
	}
	if claims.ExpiresAt == nil {
		return nil
	}
	exp := claims.ExpiresAt.Time
	return &exp
}
