// Package checkout turns a user's server cart into an order. The three
// backend calls run as a saga: once the order exists, a later failure
// deletes it again instead of leaving an orphan behind.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/wodoame/smecs/internal/domain/cart"
	"github.com/wodoame/smecs/internal/domain/order"
	domain "github.com/wodoame/smecs/internal/domain/session"
	"github.com/wodoame/smecs/internal/mail"
	"github.com/wodoame/smecs/internal/metrics"
)

var (
	ErrEmptyCart         = errors.New("cart is empty")
	ErrExecutionNotFound = errors.New("checkout execution not found")
)

type Backend interface {
	CartLines(ctx context.Context, token string, cartID int64) ([]cart.Line, error)
	CreateOrder(ctx context.Context, token string, userID int64) (order.Order, error)
	CreateOrderLines(ctx context.Context, token string, orderID int64, lines []order.Line) ([]order.Line, error)
	ClearCart(ctx context.Context, token string, cartID int64) error
	DeleteOrder(ctx context.Context, token string, orderID int64) error
}

type Status string

const (
	StatusInProgress  Status = "in_progress"
	StatusCompleted   Status = "completed"
	StatusFailed      Status = "failed"
	StatusCompensated Status = "compensated"
)

type StepStatus string

const (
	StepCompleted StepStatus = "completed"
	StepFailed    StepStatus = "failed"
)

const (
	StepCreateOrder      = "create_order"
	StepSubmitOrderLines = "submit_order_lines"
	StepClearCart        = "clear_cart"
	CompensateDelete     = "delete_order"
)

type Step struct {
	Name   string     `json:"name"`
	Status StepStatus `json:"status"`
	Error  string     `json:"error,omitempty"`
}

type compensation struct {
	name   string
	action func(ctx context.Context) error
}

// Execution is the record of one checkout attempt.
type Execution struct {
	ID                 string    `json:"id"`
	Device             string    `json:"-"`
	UserID             int64     `json:"user_id"`
	OrderID            *int64    `json:"order_id,omitempty"`
	Status             Status    `json:"status"`
	Steps              []Step    `json:"steps"`
	Compensated        []string  `json:"compensated,omitempty"`
	CompensationErrors []string  `json:"compensation_errors,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`

	compensations []compensation
}

func (e *Execution) snapshot() *Execution {
	cp := *e
	cp.Steps = append([]Step(nil), e.Steps...)
	cp.Compensated = append([]string(nil), e.Compensated...)
	cp.CompensationErrors = append([]string(nil), e.CompensationErrors...)
	cp.compensations = nil
	if e.OrderID != nil {
		id := *e.OrderID
		cp.OrderID = &id
	}
	return &cp
}

type Result struct {
	Order     order.Order
	Lines     []order.Line
	Execution *Execution
}

type Option func(*Orchestrator)

// WithMailer enables order receipts. Sending is best effort.
func WithMailer(m mail.Mailer) Option {
	return func(o *Orchestrator) { o.mailer = m }
}

func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// WithRetention bounds how many executions stay queryable.
func WithRetention(n int) Option {
	return func(o *Orchestrator) { o.retain = n }
}

type Orchestrator struct {
	backend Backend
	mailer  mail.Mailer
	log     logrus.FieldLogger
	now     func() time.Time
	retain  int

	mu    sync.RWMutex
	execs map[string]*Execution
	order []string
}

func NewOrchestrator(backend Backend, log logrus.FieldLogger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		backend: backend,
		log:     log,
		now:     time.Now,
		retain:  1000,
		execs:   make(map[string]*Execution),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Checkout orders every line of the session's server cart. The returned
// execution is set whenever the saga started, including on failure.
func (o *Orchestrator) Checkout(ctx context.Context, device string, sess domain.Session) (*Result, error) {
	if sess.CartID == nil {
		return nil, ErrEmptyCart
	}
	cartID := *sess.CartID
	lines, err := o.backend.CartLines(ctx, sess.Token, cartID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	now := o.now()
	exec := &Execution{
		ID:        uuid.NewString(),
		Device:    device,
		UserID:    sess.UserID,
		Status:    StatusInProgress,
		Steps:     make([]Step, 0, 3),
		CreatedAt: now,
		UpdatedAt: now,
	}
	o.track(exec)
	log := o.log.WithFields(logrus.Fields{"saga_id": exec.ID, "device": device, "user_id": sess.UserID})

	res := &Result{}

	created, err := o.backend.CreateOrder(ctx, sess.Token, sess.UserID)
	if err != nil {
		return o.fail(ctx, log, exec, StepCreateOrder, err)
	}
	o.complete(exec, StepCreateOrder)
	orderID := created.ID
	exec.OrderID = &orderID
	exec.compensations = append(exec.compensations, compensation{
		name: CompensateDelete,
		action: func(ctx context.Context) error {
			return o.backend.DeleteOrder(ctx, sess.Token, orderID)
		},
	})
	res.Order = created

	orderLines := make([]order.Line, 0, len(lines))
	for _, l := range lines {
		orderLines = append(orderLines, order.Line{
			OrderID:     orderID,
			ProductID:   l.ProductID,
			Quantity:    l.Quantity,
			Price:       l.UnitPrice,
			ProductName: l.Name,
		})
	}
	submitted, err := o.backend.CreateOrderLines(ctx, sess.Token, orderID, orderLines)
	if err != nil {
		return o.fail(ctx, log, exec, StepSubmitOrderLines, err)
	}
	o.complete(exec, StepSubmitOrderLines)
	res.Lines = withNames(submitted, orderLines)

	if err := o.backend.ClearCart(ctx, sess.Token, cartID); err != nil {
		return o.fail(ctx, log, exec, StepClearCart, err)
	}
	o.complete(exec, StepClearCart)

	exec.Status = StatusCompleted
	res.Execution = o.update(exec)
	metrics.RecordCheckout(string(StatusCompleted))
	log.WithFields(logrus.Fields{"order_id": orderID, "lines": len(res.Lines)}).Info("checkout completed")

	o.sendReceipt(ctx, log, sess, res)
	return res, nil
}

// GetExecution returns a copy of a retained execution.
func (o *Orchestrator) GetExecution(id string) (*Execution, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	exec, ok := o.execs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrExecutionNotFound, id)
	}
	return exec.snapshot(), nil
}

func (o *Orchestrator) complete(exec *Execution, name string) {
	exec.Steps = append(exec.Steps, Step{Name: name, Status: StepCompleted})
	o.update(exec)
}

// fail records the failed step and undoes completed steps in reverse order.
func (o *Orchestrator) fail(ctx context.Context, log logrus.FieldLogger, exec *Execution, name string, err error) (*Result, error) {
	exec.Steps = append(exec.Steps, Step{Name: name, Status: StepFailed, Error: err.Error()})
	exec.Status = StatusFailed
	log = log.WithField("step", name)
	log.WithError(err).Warn("checkout step failed")

	if len(exec.compensations) > 0 {
		o.compensate(ctx, log, exec)
	}
	snap := o.update(exec)
	metrics.RecordCheckout(string(snap.Status))
	return &Result{Execution: snap}, fmt.Errorf("checkout %s: %w", name, err)
}

func (o *Orchestrator) compensate(ctx context.Context, log logrus.FieldLogger, exec *Execution) {
	failed := false
	for i := len(exec.compensations) - 1; i >= 0; i-- {
		c := exec.compensations[i]
		if err := c.action(ctx); err != nil {
			failed = true
			exec.CompensationErrors = append(exec.CompensationErrors, fmt.Sprintf("%s: %v", c.name, err))
			log.WithError(err).WithField("compensation", c.name).Error("compensation failed")
			continue
		}
		exec.Compensated = append(exec.Compensated, c.name)
	}
	if !failed {
		exec.Status = StatusCompensated
	}
}

func (o *Orchestrator) track(exec *Execution) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.execs[exec.ID] = exec.snapshot()
	o.order = append(o.order, exec.ID)
	for len(o.order) > o.retain {
		delete(o.execs, o.order[0])
		o.order = o.order[1:]
	}
}

func (o *Orchestrator) update(exec *Execution) *Execution {
	exec.UpdatedAt = o.now()
	snap := exec.snapshot()
	o.mu.Lock()
	if _, ok := o.execs[exec.ID]; ok {
		o.execs[exec.ID] = snap
	}
	o.mu.Unlock()
	return snap.snapshot()
}

func (o *Orchestrator) sendReceipt(ctx context.Context, log logrus.FieldLogger, sess domain.Session, res *Result) {
	if o.mailer == nil || sess.Email == "" {
		return
	}
	subject, body := mail.Receipt(sess.Username, res.Order, res.Lines)
	if err := o.mailer.Send(ctx, sess.Email, subject, body); err != nil {
		log.WithError(err).Warn("order receipt not sent")
	}
}

// withNames copies product names from the submitted lines onto the
// backend's answer, which carries ids and prices only.
func withNames(got, sent []order.Line) []order.Line {
	names := make(map[int64]string, len(sent))
	for _, l := range sent {
		names[l.ProductID] = l.ProductName
	}
	out := make([]order.Line, 0, len(got))
	for _, l := range got {
		if l.ProductName == "" {
			l.ProductName = names[l.ProductID]
		}
		out = append(out, l)
	}
	return out
}
