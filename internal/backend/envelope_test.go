package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	ID int `json:"id"`
}

func TestDecodePage_Shapes(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantIDs   []int
		wantPages int
	}{
		{
			name:      "paged envelope",
			raw:       `{"status":"success","data":{"content":[{"id":1},{"id":2}],"page":{"page":1,"size":2,"totalElements":5,"totalPages":3}}}`,
			wantIDs:   []int{1, 2},
			wantPages: 3,
		},
		{
			name:      "list in envelope",
			raw:       `{"status":"success","data":[{"id":4}]}`,
			wantIDs:   []int{4},
			wantPages: 1,
		},
		{
			name:      "paged dto",
			raw:       `{"content":[{"id":7}],"totalElements":9,"totalPages":9,"last":false}`,
			wantIDs:   []int{7},
			wantPages: 9,
		},
		{
			name:      "bare array",
			raw:       `[{"id":1},{"id":2},{"id":3}]`,
			wantIDs:   []int{1, 2, 3},
			wantPages: 1,
		},
		{
			name:      "empty list",
			raw:       `{"data":[]}`,
			wantIDs:   []int{},
			wantPages: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := decodePage[item]("test", []byte(tt.raw))
			require.NoError(t, err)

			ids := make([]int, 0, len(page.Items))
			for _, it := range page.Items {
				ids = append(ids, it.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
			assert.Equal(t, tt.wantPages, page.Info.TotalPages)
		})
	}
}

func TestDecodePage_Malformed(t *testing.T) {
	for _, raw := range []string{
		`{"data":{"id":1}}`,
		`{"status":"success"}`,
		`not json`,
		`{"data":{"content":{"id":1}}}`,
		`[{"id":"x"}]`,
	} {
		_, err := decodePage[item]("test", []byte(raw))
		assert.ErrorIs(t, err, ErrMalformed, raw)
	}
}

func TestDecodePage_MalformedCauses(t *testing.T) {
	_, err := decodePage[item]("test", []byte(`not json`))
	assert.ErrorIs(t, err, errInvalidJSON)

	_, err = decodePage[item]("test", []byte(`{"status":"success"}`))
	assert.ErrorIs(t, err, errListShape)
}

func TestDecodePage_SinglePageInfo(t *testing.T) {
	page, err := decodePage[item]("test", []byte(`[]`))
	require.NoError(t, err)
	assert.NotNil(t, page.Items)
	assert.True(t, page.Info.Empty)
	assert.True(t, page.Info.First)
	assert.True(t, page.Info.Last)
}

func TestPageQuery_Encode(t *testing.T) {
	assert.Equal(t, "", PageQuery{}.encode())
	assert.Equal(t, "?page=2&size=20&sort=createdAt%2Cdesc", PageQuery{Page: 2, Size: 20, Sort: "createdAt,desc"}.encode())
}

func TestWireTime(t *testing.T) {
	var wt wireTime
	require.NoError(t, wt.UnmarshalJSON([]byte(`"2024-05-06T07:08:09Z"`)))
	assert.Equal(t, 7, wt.Hour())

	require.NoError(t, wt.UnmarshalJSON([]byte(`"2024-05-06T07:08:09"`)))
	assert.Equal(t, 6, wt.Day())

	require.NoError(t, wt.UnmarshalJSON([]byte(`null`)))
	assert.True(t, wt.IsZero())

	assert.Error(t, wt.UnmarshalJSON([]byte(`"yesterday"`)))
}
