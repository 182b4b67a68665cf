package cart

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/wodoame/smecs/internal/domain/cart"
	domain "github.com/wodoame/smecs/internal/domain/session"
)

// Backend is the server cart API.
type Backend interface {
	CartLines(ctx context.Context, token string, cartID int64) ([]cart.Line, error)
	CreateCart(ctx context.Context, token string, userID int64) (int64, error)
	AddLine(ctx context.Context, token string, userID, cartID, productID int64, qty int) (cart.Line, error)
	UpdateLine(ctx context.Context, token string, lineID int64, qty int) (cart.Line, error)
	DeleteLine(ctx context.Context, token string, lineID int64) error
	ClearCart(ctx context.Context, token string, cartID int64) error
}

type Sessions interface {
	Active(ctx context.Context, device string) (*domain.Session, error)
	EnsureCart(ctx context.Context, device string, create func(domain.Session) (int64, error)) (int64, error)
}

// Service routes cart operations to the guest cart while a device is
// anonymous and to the user's server cart once it holds a valid session.
type Service struct {
	guest    *Repo
	backend  Backend
	sessions Sessions
	log      logrus.FieldLogger
}

func NewService(guest *Repo, backend Backend, sessions Sessions, log logrus.FieldLogger) *Service {
	return &Service{guest: guest, backend: backend, sessions: sessions, log: log}
}

func (s *Service) Get(ctx context.Context, device string) (cart.Cart, error) {
	sess, err := s.sessions.Active(ctx, device)
	if err != nil {
		return cart.Cart{}, err
	}
	if sess == nil {
		lines, err := s.guest.Lines(ctx, device)
		return guestCart(lines), err
	}
	return s.serverCart(ctx, sess)
}

// Add puts line.Quantity units of a product in the cart. A user without a
// server cart gets one created first.
func (s *Service) Add(ctx context.Context, device string, line cart.Line) (cart.Cart, error) {
	if line.Quantity < 1 {
		line.Quantity = 1
	}
	sess, err := s.sessions.Active(ctx, device)
	if err != nil {
		return cart.Cart{}, err
	}
	if sess == nil {
		lines, err := s.guest.Add(ctx, device, line)
		return guestCart(lines), err
	}

	if sess.CartID == nil {
		id, err := s.sessions.EnsureCart(ctx, device, func(cur domain.Session) (int64, error) {
			id, err := s.backend.CreateCart(ctx, cur.Token, cur.UserID)
			if err == nil {
				s.log.WithFields(logrus.Fields{"device": device, "cart_id": id}).Info("server cart created")
			}
			return id, err
		})
		if err != nil {
			return cart.Cart{}, err
		}
		sess.CartID = &id
	}
	if _, err := s.backend.AddLine(ctx, sess.Token, sess.UserID, *sess.CartID, line.ProductID, line.Quantity); err != nil {
		return cart.Cart{}, err
	}
	return s.serverCart(ctx, sess)
}

// SetQuantity ignores qty < 1 and answers with the unchanged cart.
func (s *Service) SetQuantity(ctx context.Context, device string, productID int64, qty int) (cart.Cart, error) {
	if qty < 1 {
		return s.Get(ctx, device)
	}
	sess, err := s.sessions.Active(ctx, device)
	if err != nil {
		return cart.Cart{}, err
	}
	if sess == nil {
		lines, err := s.guest.SetQuantity(ctx, device, productID, qty)
		return guestCart(lines), err
	}
	return s.withServerLine(ctx, sess, productID, func(lineID int64) error {
		_, err := s.backend.UpdateLine(ctx, sess.Token, lineID, qty)
		return err
	})
}

func (s *Service) Remove(ctx context.Context, device string, productID int64) (cart.Cart, error) {
	sess, err := s.sessions.Active(ctx, device)
	if err != nil {
		return cart.Cart{}, err
	}
	if sess == nil {
		lines, err := s.guest.Remove(ctx, device, productID)
		return guestCart(lines), err
	}
	return s.withServerLine(ctx, sess, productID, func(lineID int64) error {
		return s.backend.DeleteLine(ctx, sess.Token, lineID)
	})
}

func (s *Service) Clear(ctx context.Context, device string) (cart.Cart, error) {
	sess, err := s.sessions.Active(ctx, device)
	if err != nil {
		return cart.Cart{}, err
	}
	if sess == nil {
		return guestCart(nil), s.guest.Clear(ctx, device)
	}
	if sess.CartID != nil {
		if err := s.backend.ClearCart(ctx, sess.Token, *sess.CartID); err != nil {
			return cart.Cart{}, err
		}
	}
	return cart.Cart{ID: sess.CartID, Source: cart.SourceServer, Lines: []cart.Line{}}, nil
}

// withServerLine resolves productID to its cart line id from a fresh
// snapshot, applies fn, and returns the cart as it is afterwards. The line
// may change between the snapshot and fn; the last write wins.
func (s *Service) withServerLine(ctx context.Context, sess *domain.Session, productID int64, fn func(lineID int64) error) (cart.Cart, error) {
	current, err := s.serverCart(ctx, sess)
	if err != nil {
		return cart.Cart{}, err
	}
	line, ok := current.Find(productID)
	if !ok || line.LineID == nil {
		return current, nil
	}
	if err := fn(*line.LineID); err != nil {
		return cart.Cart{}, err
	}
	return s.serverCart(ctx, sess)
}

func (s *Service) serverCart(ctx context.Context, sess *domain.Session) (cart.Cart, error) {
	out := cart.Cart{ID: sess.CartID, Source: cart.SourceServer, Lines: []cart.Line{}}
	if sess.CartID == nil {
		return out, nil
	}
	lines, err := s.backend.CartLines(ctx, sess.Token, *sess.CartID)
	if err != nil {
		return cart.Cart{}, err
	}
	out.Lines = append(out.Lines, lines...)
	return out, nil
}

func guestCart(lines []cart.Line) cart.Cart {
	if lines == nil {
		lines = []cart.Line{}
	}
	return cart.Cart{Source: cart.SourceGuest, Lines: lines}
}
