package cart

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wodoame/smecs/internal/domain/cart"
	"github.com/wodoame/smecs/internal/store"
)

func TestRepo_AddSameProductTwice(t *testing.T) {
	ctx := context.Background()
	r := NewRepo(store.NewMemory())

	_, err := r.Add(ctx, "dev", cart.Line{ProductID: 1, Name: "Mug", UnitPrice: 4, Quantity: 1})
	require.NoError(t, err)
	lines, err := r.Add(ctx, "dev", cart.Line{ProductID: 1, Name: "Mug", UnitPrice: 4, Quantity: 1})
	require.NoError(t, err)

	require.Len(t, lines, 1)
	assert.Equal(t, 2, lines[0].Quantity)

	stored, err := r.Lines(ctx, "dev")
	require.NoError(t, err)
	assert.Equal(t, lines, stored)
}

func TestRepo_SetQuantityBelowOneIsNoop(t *testing.T) {
	ctx := context.Background()
	r := NewRepo(store.NewMemory())
	_, err := r.Add(ctx, "dev", cart.Line{ProductID: 7, Quantity: 3})
	require.NoError(t, err)

	for _, qty := range []int{0, -1} {
		lines, err := r.SetQuantity(ctx, "dev", 7, qty)
		require.NoError(t, err)
		require.Len(t, lines, 1)
		assert.Equal(t, 3, lines[0].Quantity, "qty %d", qty)
	}

	lines, err := r.SetQuantity(ctx, "dev", 7, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, lines[0].Quantity)
}

func TestRepo_RemoveAndClear(t *testing.T) {
	ctx := context.Background()
	r := NewRepo(store.NewMemory())
	for _, id := range []int64{1, 2, 3} {
		_, err := r.Add(ctx, "dev", cart.Line{ProductID: id, Quantity: 1})
		require.NoError(t, err)
	}

	lines, err := r.Remove(ctx, "dev", 2)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, int64(1), lines[0].ProductID)
	assert.Equal(t, int64(3), lines[1].ProductID)

	require.NoError(t, r.Clear(ctx, "dev"))
	lines, err = r.Lines(ctx, "dev")
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestRepo_DevicesAreIsolated(t *testing.T) {
	ctx := context.Background()
	r := NewRepo(store.NewMemory())
	_, err := r.Add(ctx, "a", cart.Line{ProductID: 1, Quantity: 1})
	require.NoError(t, err)

	lines, err := r.Lines(ctx, "b")
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestRepo_UnreadableRecordIsEmpty(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	require.NoError(t, mem.Save(ctx, "dev", store.KeyCart, []byte(`{not json`)))
	r := NewRepo(mem)

	lines, err := r.Lines(ctx, "dev")
	require.NoError(t, err)
	assert.Empty(t, lines)

	lines, err = r.Add(ctx, "dev", cart.Line{ProductID: 4, Quantity: 2})
	require.NoError(t, err)
	assert.Len(t, lines, 1)
}

func TestRepo_AddNeverStoresLineID(t *testing.T) {
	ctx := context.Background()
	r := NewRepo(store.NewMemory())
	id := int64(99)

	lines, err := r.Add(ctx, "dev", cart.Line{ProductID: 1, LineID: &id, Quantity: 0})
	require.NoError(t, err)
	assert.Nil(t, lines[0].LineID)
	assert.Equal(t, 1, lines[0].Quantity)
}
