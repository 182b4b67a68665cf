package cart

import (
	"context"
	"errors"

	"github.com/wodoame/smecs/internal/domain/cart"
	"github.com/wodoame/smecs/internal/store"
)

// Repo is the guest cart of each device. Every mutation reads the whole
// record, changes it, and writes the whole list back under the device lock.
type Repo struct {
	records store.Store
	locks   *store.Locks
}

func NewRepo(records store.Store) *Repo {
	return &Repo{records: records, locks: store.NewLocks()}
}

// Lines returns the guest lines in insertion order. An unreadable record
// reads as an empty cart.
func (r *Repo) Lines(ctx context.Context, device string) ([]cart.Line, error) {
	var lines []cart.Line
	_, err := store.LoadJSON(ctx, r.records, device, store.KeyCart, &lines)
	if err != nil && !errors.Is(err, store.ErrCorrupt) {
		return nil, err
	}
	if lines == nil || err != nil {
		lines = []cart.Line{}
	}
	return lines, nil
}

// Add increments the quantity of an existing line instead of adding a second one.
func (r *Repo) Add(ctx context.Context, device string, line cart.Line) ([]cart.Line, error) {
	if line.Quantity < 1 {
		line.Quantity = 1
	}
	line.LineID = nil
	return r.mutate(ctx, device, func(lines []cart.Line) []cart.Line {
		for i := range lines {
			if lines[i].ProductID == line.ProductID {
				lines[i].Quantity += line.Quantity
				return lines
			}
		}
		return append(lines, line)
	})
}

// SetQuantity ignores qty < 1.
func (r *Repo) SetQuantity(ctx context.Context, device string, productID int64, qty int) ([]cart.Line, error) {
	if qty < 1 {
		return r.Lines(ctx, device)
	}
	return r.mutate(ctx, device, func(lines []cart.Line) []cart.Line {
		for i := range lines {
			if lines[i].ProductID == productID {
				lines[i].Quantity = qty
			}
		}
		return lines
	})
}

func (r *Repo) Remove(ctx context.Context, device string, productID int64) ([]cart.Line, error) {
	return r.mutate(ctx, device, func(lines []cart.Line) []cart.Line {
		out := lines[:0]
		for _, l := range lines {
			if l.ProductID != productID {
				out = append(out, l)
			}
		}
		return out
	})
}

func (r *Repo) Clear(ctx context.Context, device string) error {
	unlock := r.locks.Lock(device)
	defer unlock()
	return r.records.Delete(ctx, device, store.KeyCart)
}

func (r *Repo) mutate(ctx context.Context, device string, fn func([]cart.Line) []cart.Line) ([]cart.Line, error) {
	unlock := r.locks.Lock(device)
	defer unlock()

	lines, err := r.Lines(ctx, device)
	if err != nil {
		return nil, err
	}
	lines = fn(lines)
	if err := store.SaveJSON(ctx, r.records, device, store.KeyCart, lines); err != nil {
		return nil, err
	}
	return lines, nil
}
