package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursor(t *testing.T) {
	c := ToCursor(42)
	assert.Len(t, c, 8)
	assert.EqualValues(t, 42, c.ToUint64())
	assert.EqualValues(t, 0, EmptyCursor.ToUint64())
	assert.NotEmpty(t, c.ToBase58())
}

func TestOrdering(t *testing.T) {
	for _, o := range []Ordering{Ascending, Descending} {
		parsed, err := ToOrdering(o.String())
		require.NoError(t, err)
		assert.Equal(t, o, parsed)
	}

	_, err := ToOrdering("sideways")
	assert.Error(t, err)
}

func TestPaginateQuery(t *testing.T) {
	base := "SELECT * FROM t WHERE (creator = $1)"

	for _, tc := range []struct {
		cursor    Cursor
		limit     uint64
		direction Ordering
		expected  string
		args      []interface{}
	}{
		{
			cursor:    EmptyCursor,
			direction: Ascending,
			expected:  base + " ORDER BY id ASC",
			args:      []interface{}{"c"},
		},
		{
			cursor:    ToCursor(7),
			limit:     10,
			direction: Ascending,
			expected:  base + " AND id > $2 ORDER BY id ASC LIMIT $3",
			args:      []interface{}{"c", uint64(7), uint64(10)},
		},
		{
			cursor:    ToCursor(7),
			limit:     5,
			direction: Descending,
			expected:  base + " AND id < $2 ORDER BY id DESC LIMIT $3",
			args:      []interface{}{"c", uint64(7), uint64(5)},
		},
		{
			limit:     5,
			direction: Descending,
			expected:  base + " ORDER BY id DESC LIMIT $2",
			args:      []interface{}{"c", uint64(5)},
		},
	} {
		query, args := PaginateQuery(base, []interface{}{"c"}, tc.cursor, tc.limit, tc.direction)
		assert.Equal(t, tc.expected, query)
		assert.Equal(t, tc.args, args)
	}
}
