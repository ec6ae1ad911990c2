package audit

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "audit.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAppendAssignsIDAndTime(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	rec, err := s.Append(ctx, Record{RuleSet: "classify", Input: "5", Matched: true, ArmIndex: 1, Result: `"small non-negative"`})
	require.NoError(t, err)
	_, err = uuid.Parse(rec.ID)
	assert.NoError(t, err, "id should be a uuid")
	assert.False(t, rec.CreatedAt.IsZero())

	miss, err := s.Append(ctx, Record{RuleSet: "classify", Input: `"x"`, Matched: false, ArmIndex: 3})
	require.NoError(t, err)
	assert.Equal(t, -1, miss.ArmIndex, "unmatched decisions have no arm")
	assert.NotEqual(t, rec.ID, miss.ID)
}

func TestRecentOrderAndFilter(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	for i, set := range []string{"a", "b", "a", "a"} {
		_, err := s.Append(ctx, Record{
			RuleSet:   set,
			Input:     string(rune('0' + i)),
			Matched:   true,
			ArmIndex:  i,
			Result:    "r",
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		})
		require.NoError(t, err)
	}

	recs, err := s.Recent(ctx, "a", 2)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "3", recs[0].Input)
	assert.Equal(t, "2", recs[1].Input)
	assert.True(t, recs[0].CreatedAt.Equal(base.Add(3*time.Second)))
	assert.True(t, recs[0].Matched)
	assert.Equal(t, 3, recs[0].ArmIndex)

	all, err := s.Recent(ctx, "", 10)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	none, err := s.Recent(ctx, "missing", 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestReopenKeepsRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.db")
	ctx := context.Background()

	s, err := Open(ctx, path, nil)
	require.NoError(t, err)
	rec, err := s.Append(ctx, Record{RuleSet: "s", Input: "1", Matched: true, Result: "ok"})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(ctx, path, nil)
	require.NoError(t, err)
	defer s.Close()
	recs, err := s.Recent(ctx, "s", 5)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, rec.ID, recs[0].ID)
}

func TestClosedStore(t *testing.T) {
	s, err := Open(context.Background(), ":memory:", nil)
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, err = s.Append(context.Background(), Record{RuleSet: "s"})
	assert.ErrorIs(t, err, ErrClosed)
	_, err = s.Recent(context.Background(), "s", 1)
	assert.ErrorIs(t, err, ErrClosed)
}
