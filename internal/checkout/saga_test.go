package checkout

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/wodoame/smecs/internal/backend"
	"github.com/wodoame/smecs/internal/domain/cart"
	"github.com/wodoame/smecs/internal/domain/order"
	domain "github.com/wodoame/smecs/internal/domain/session"
	"github.com/wodoame/smecs/internal/logging"
)

type fakeBackend struct {
	mu        sync.Mutex
	cart      []cart.Line
	orders    map[int64][]order.Line
	nextID    int64
	calls     []string
	linesErr  error
	clearErr  error
	deleteErr error
	createErr error
	cartErr   error
}

func newFakeBackend(lines ...cart.Line) *fakeBackend {
	return &fakeBackend{cart: lines, orders: map[int64][]order.Line{}, nextID: 500}
}

func (f *fakeBackend) record(call string) {
	f.calls = append(f.calls, call)
}

func (f *fakeBackend) CartLines(context.Context, string, int64) ([]cart.Line, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("cart_lines")
	if f.cartErr != nil {
		return nil, f.cartErr
	}
	return append([]cart.Line(nil), f.cart...), nil
}

func (f *fakeBackend) CreateOrder(_ context.Context, _ string, userID int64) (order.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("create_order")
	if f.createErr != nil {
		return order.Order{}, f.createErr
	}
	f.nextID++
	f.orders[f.nextID] = nil
	return order.Order{ID: f.nextID, UserID: userID, Status: order.StatusPending}, nil
}

func (f *fakeBackend) CreateOrderLines(_ context.Context, _ string, orderID int64, lines []order.Line) ([]order.Line, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("create_order_lines")
	if f.linesErr != nil {
		return nil, f.linesErr
	}
	out := make([]order.Line, 0, len(lines))
	for _, l := range lines {
		f.nextID++
		out = append(out, order.Line{ID: f.nextID, OrderID: orderID, ProductID: l.ProductID, Quantity: l.Quantity, Price: l.Price})
	}
	f.orders[orderID] = append(f.orders[orderID], out...)
	return out, nil
}

func (f *fakeBackend) ClearCart(context.Context, string, int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("clear_cart")
	if f.clearErr != nil {
		return f.clearErr
	}
	f.cart = nil
	return nil
}

func (f *fakeBackend) DeleteOrder(_ context.Context, _ string, orderID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("delete_order")
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.orders, orderID)
	return nil
}

type fakeMailer struct {
	to, subject, body string
	err               error
}

func (m *fakeMailer) Send(_ context.Context, to, subject, body string) error {
	m.to, m.subject, m.body = to, subject, body
	return m.err
}

type SagaTestSuite struct {
	suite.Suite
	be     *fakeBackend
	mailer *fakeMailer
	saga   *Orchestrator
	sess   domain.Session
}

func (s *SagaTestSuite) SetupTest() {
	s.be = newFakeBackend(
		cart.Line{ProductID: 1, Name: "Mug", UnitPrice: 4.5, Quantity: 2},
		cart.Line{ProductID: 2, Name: "Tea", UnitPrice: 3, Quantity: 1},
		cart.Line{ProductID: 3, Name: "Pot", UnitPrice: 20, Quantity: 1},
	)
	s.mailer = &fakeMailer{}
	fixed := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	s.saga = NewOrchestrator(s.be, logging.Discard(),
		WithMailer(s.mailer),
		WithClock(func() time.Time { return fixed }),
	)
	cartID := int64(8)
	s.sess = domain.Session{UserID: 4, Username: "ama", Email: "ama@example.com", Token: "tok", CartID: &cartID}
}

func (s *SagaTestSuite) TestCheckout_Success() {
	res, err := s.saga.Checkout(context.Background(), "dev", s.sess)
	s.Require().NoError(err)

	s.Len(s.be.orders, 1, "exactly one order")
	s.Len(s.be.orders[res.Order.ID], 3, "one order line per cart line")
	s.Empty(s.be.cart, "cart cleared")
	s.Len(res.Lines, 3)
	s.Equal("Mug", res.Lines[0].ProductName)
	s.Equal(2, res.Lines[0].Quantity)
	s.Equal(4.5, res.Lines[0].Price)

	s.Equal(StatusCompleted, res.Execution.Status)
	s.Require().Len(res.Execution.Steps, 3)
	for i, name := range []string{StepCreateOrder, StepSubmitOrderLines, StepClearCart} {
		s.Equal(name, res.Execution.Steps[i].Name)
		s.Equal(StepCompleted, res.Execution.Steps[i].Status)
	}

	s.Equal("ama@example.com", s.mailer.to)
	s.Contains(s.mailer.body, "2 x Mug")
}

func (s *SagaTestSuite) TestCheckout_OrderLinesFailureDeletesOrder() {
	s.be.linesErr = &backend.Error{Op: "order.lines.create", Status: 500, Kind: backend.ErrRejected}

	res, err := s.saga.Checkout(context.Background(), "dev", s.sess)
	s.Require().Error(err)
	s.ErrorIs(err, backend.ErrRejected)

	s.Empty(s.be.orders, "orphaned order was deleted")
	s.Len(s.be.cart, 3, "cart untouched")
	s.Equal([]string{"cart_lines", "create_order", "create_order_lines", "delete_order"}, s.be.calls)

	s.Require().NotNil(res)
	s.Equal(StatusCompensated, res.Execution.Status)
	s.Equal([]string{CompensateDelete}, res.Execution.Compensated)
	s.Equal(StepFailed, res.Execution.Steps[1].Status)
	s.Empty(s.mailer.to, "no receipt")
}

func (s *SagaTestSuite) TestCheckout_ClearCartFailureDeletesOrder() {
	s.be.clearErr = &backend.Error{Op: "cart.clear", Status: 403, Kind: backend.ErrForbidden}

	res, err := s.saga.Checkout(context.Background(), "dev", s.sess)
	s.ErrorIs(err, backend.ErrForbidden)
	s.Empty(s.be.orders)
	s.Equal(StatusCompensated, res.Execution.Status)
	s.Equal(StepClearCart, res.Execution.Steps[2].Name)
}

func (s *SagaTestSuite) TestCheckout_CreateOrderFailureHasNothingToUndo() {
	s.be.createErr = &backend.Error{Op: "order.create", Status: 401, Kind: backend.ErrUnauthenticated}

	res, err := s.saga.Checkout(context.Background(), "dev", s.sess)
	s.ErrorIs(err, backend.ErrUnauthenticated)
	s.Equal(StatusFailed, res.Execution.Status)
	s.Empty(res.Execution.Compensated)
	s.NotContains(s.be.calls, "delete_order")
}

func (s *SagaTestSuite) TestCheckout_FailedCompensationIsReported() {
	s.be.linesErr = errors.New("boom")
	s.be.deleteErr = errors.New("still boom")

	res, err := s.saga.Checkout(context.Background(), "dev", s.sess)
	s.Error(err)
	s.Equal(StatusFailed, res.Execution.Status)
	s.Require().Len(res.Execution.CompensationErrors, 1)
	s.Contains(res.Execution.CompensationErrors[0], CompensateDelete)
}

func (s *SagaTestSuite) TestCheckout_EmptyCart() {
	s.be.cart = nil
	_, err := s.saga.Checkout(context.Background(), "dev", s.sess)
	s.ErrorIs(err, ErrEmptyCart)

	s.sess.CartID = nil
	_, err = s.saga.Checkout(context.Background(), "dev", s.sess)
	s.ErrorIs(err, ErrEmptyCart)
	s.NotContains(s.be.calls, "create_order")
}

func (s *SagaTestSuite) TestCheckout_MailFailureDoesNotFailCheckout() {
	s.mailer.err = errors.New("smtp down")
	res, err := s.saga.Checkout(context.Background(), "dev", s.sess)
	s.NoError(err)
	s.Equal(StatusCompleted, res.Execution.Status)
}

func (s *SagaTestSuite) TestGetExecution() {
	res, err := s.saga.Checkout(context.Background(), "dev", s.sess)
	s.Require().NoError(err)

	exec, err := s.saga.GetExecution(res.Execution.ID)
	s.Require().NoError(err)
	s.Equal(StatusCompleted, exec.Status)
	s.Equal("dev", exec.Device)
	s.Require().NotNil(exec.OrderID)
	s.Equal(res.Order.ID, *exec.OrderID)

	exec.Steps[0].Name = "mutated"
	again, _ := s.saga.GetExecution(res.Execution.ID)
	s.Equal(StepCreateOrder, again.Steps[0].Name, "callers get copies")

	_, err = s.saga.GetExecution("missing")
	s.ErrorIs(err, ErrExecutionNotFound)
}

func (s *SagaTestSuite) TestRetentionEvictsOldest() {
	saga := NewOrchestrator(s.be, logging.Discard(), WithRetention(1))
	first, err := saga.Checkout(context.Background(), "dev", s.sess)
	s.Require().NoError(err)
	s.be.cart = []cart.Line{{ProductID: 1, Quantity: 1}}
	second, err := saga.Checkout(context.Background(), "dev", s.sess)
	s.Require().NoError(err)

	_, err = saga.GetExecution(first.Execution.ID)
	s.ErrorIs(err, ErrExecutionNotFound)
	_, err = saga.GetExecution(second.Execution.ID)
	s.NoError(err)
}

func TestSagaTestSuite(t *testing.T) {
	suite.Run(t, new(SagaTestSuite))
}
