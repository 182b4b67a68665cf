package store

import (
	"context"
	"testing"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_SaveLoadDelete(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, err := m.Load(ctx, "dev-1", KeyCart)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, m.Save(ctx, "dev-1", KeyCart, []byte(`[1]`)))
	require.NoError(t, m.Save(ctx, "dev-1", KeyCart, []byte(`[2]`)))

	body, err := m.Load(ctx, "dev-1", KeyCart)
	require.NoError(t, err)
	assert.Equal(t, `[2]`, string(body))

	_, err = m.Load(ctx, "dev-2", KeyCart)
	assert.ErrorIs(t, err, ErrNotFound, "records are scoped per device")

	require.NoError(t, m.Delete(ctx, "dev-1", KeyCart))
	require.NoError(t, m.Delete(ctx, "dev-1", KeyCart))
	_, err = m.Load(ctx, "dev-1", KeyCart)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	in := []byte(`{"a":1}`)
	require.NoError(t, m.Save(ctx, "d", KeySession, in))
	in[2] = 'X'

	out, err := m.Load(ctx, "d", KeySession)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(out))
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	var v map[string]int
	found, err := LoadJSON(ctx, m, "d", KeyCart, &v)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, SaveJSON(ctx, m, "d", KeyCart, map[string]int{"qty": 3}))
	found, err = LoadJSON(ctx, m, "d", KeyCart, &v)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 3, v["qty"])

	require.NoError(t, m.Save(ctx, "d", KeyCart, []byte(`not json`)))
	_, err = LoadJSON(ctx, m, "d", KeyCart, &v)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestRepo_Load(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT body\s+FROM client_records`).
		WithArgs("dev-1", KeySession).
		WillReturnRows(pgxmock.NewRows([]string{"body"}).AddRow([]byte(`{"user_id":7}`)))

	body, err := NewRepo(mock).Load(context.Background(), "dev-1", KeySession)
	require.NoError(t, err)
	assert.JSONEq(t, `{"user_id":7}`, string(body))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepo_LoadMissing(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT body\s+FROM client_records`).
		WithArgs("dev-1", KeyCart).
		WillReturnRows(pgxmock.NewRows([]string{"body"}))

	_, err = NewRepo(mock).Load(context.Background(), "dev-1", KeyCart)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepo_SaveAndDelete(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("INSERT INTO client_records").
		WithArgs("dev-1", KeyCart, []byte(`[]`)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("DELETE FROM client_records").
		WithArgs("dev-1", KeyCart).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	repo := NewRepo(mock)
	require.NoError(t, repo.Save(context.Background(), "dev-1", KeyCart, []byte(`[]`)))
	require.NoError(t, repo.Delete(context.Background(), "dev-1", KeyCart))
	assert.NoError(t, mock.ExpectationsWereMet())
}
