package history

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "nested", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func fixedClock(times ...time.Time) func() time.Time {
	i := 0
	return func() time.Time {
		t := times[i%len(times)]
		i++
		return t
	}
}

func TestRecordAndGet(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	created := time.Date(2025, 8, 10, 14, 30, 0, 0, time.UTC)
	store.now = fixedClock(created)

	run, err := store.Record(ctx, Run{
		Source:            "cli",
		HoursName:         "hours.csv",
		TipsName:          "tips.csv",
		OutputName:        "report.xlsx",
		Employees:         12,
		TotalHours:        301.25,
		TipsIncluded:      true,
		LunchTips:         decimal.RequireFromString("512.34"),
		DinnerGeneralTips: decimal.RequireFromString("88.2"),
		DinnerServerTips:  decimal.RequireFromString("1010"),
		GrandTotal:        decimal.RequireFromString("1610.54"),
	}, Input{Name: "hours.csv", Data: []byte("First,Last\n")}, &Input{Name: "tips.csv", Data: []byte("tips")})
	require.NoError(t, err)
	require.Len(t, run.ID, 36)
	assert.True(t, created.Equal(run.CreatedAt))

	got, err := store.Get(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)
	assert.True(t, created.Equal(got.CreatedAt))
	assert.Equal(t, "cli", got.Source)
	assert.Equal(t, 12, got.Employees)
	assert.InDelta(t, 301.25, got.TotalHours, 1e-9)
	assert.True(t, got.TipsIncluded)
	assert.Equal(t, "512.34", got.LunchTips.String())
	assert.Equal(t, "1610.54", got.GrandTotal.String())

	byPrefix, err := store.Get(ctx, run.ID[:8])
	require.NoError(t, err)
	assert.Equal(t, run.ID, byPrefix.ID)
}

func TestGetUnknownRun(t *testing.T) {
	store := openTestStore(t)
	_, err := store.Get(context.Background(), "does-not-exist")
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = store.Get(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInputsRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	hoursData := bytes.Repeat([]byte("Ana,Diaz,Server,11:00AM,3:00PM,4\n"), 200)
	run, err := store.Record(ctx, Run{Source: "web", HoursName: "hours.csv"}, Input{Name: "hours.csv", Data: hoursData}, nil)
	require.NoError(t, err)

	hours, tips, err := store.Inputs(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, "hours.csv", hours.Name)
	assert.Equal(t, hoursData, hours.Data)
	assert.Nil(t, tips)

	_, _, err = store.Inputs(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	base := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	store.now = fixedClock(base, base.Add(time.Hour), base.Add(90*time.Millisecond))

	var ids []string
	for _, name := range []string{"first", "second", "third"} {
		run, err := store.Record(ctx, Run{Source: "cli", OutputName: name}, Input{Name: "h.csv"}, nil)
		require.NoError(t, err)
		ids = append(ids, run.ID)
	}

	runs, err := store.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, []string{"second", "third", "first"}, []string{runs[0].OutputName, runs[1].OutputName, runs[2].OutputName})

	runs, err = store.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, ids[1], runs[0].ID)
}

func TestCompressRoundTrip(t *testing.T) {
	data := bytes.Repeat([]byte("hours,"), 1000)
	packed, err := compress(data)
	require.NoError(t, err)
	assert.Less(t, len(packed), len(data))

	unpacked, err := decompress(packed)
	require.NoError(t, err)
	assert.Equal(t, data, unpacked)

	empty, err := compress(nil)
	require.NoError(t, err)
	unpacked, err = decompress(empty)
	require.NoError(t, err)
	assert.Empty(t, unpacked)
}

func TestWithSQLiteRetry(t *testing.T) {
	attempts := 0
	err := withSQLiteRetry(func() error {
		attempts++
		if attempts < 2 {
			return errors.New("database is locked")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)

	attempts = 0
	err = withSQLiteRetry(func() error {
		attempts++
		return errors.New("constraint failed")
	})
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}
