package transaction_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidleathers/fraud-feature-engine/internal/domain/transaction"
	"github.com/davidleathers/fraud-feature-engine/internal/testutil/fixtures"
)

func TestSortEvents_CanonicalOrder(t *testing.T) {
	base := fixtures.BaseTime

	build := func(row int64, entity string, ts time.Time) *transaction.Event {
		return fixtures.NewEventBuilder(t).
			WithRow(row).
			WithEntity(entity).
			WithTimestamp(ts).
			Build()
	}

	events := []*transaction.Event{
		build(0, "C2", base.Add(2*time.Minute)),
		build(1, "C1", base.Add(10*time.Minute)),
		build(2, "C1", base),
		build(3, "C2", base),
		build(4, "C1", base), // same timestamp as row 2, later input position
	}

	transaction.SortEvents(events)

	got := make([][2]interface{}, len(events))
	for i, e := range events {
		got[i] = [2]interface{}{e.EntityID, e.Row}
	}
	want := [][2]interface{}{
		{"C1", int64(2)},
		{"C1", int64(4)},
		{"C1", int64(1)},
		{"C2", int64(3)},
		{"C2", int64(0)},
	}
	assert.Equal(t, want, got)
}

func TestBuildHistories_SplitsPerEntity(t *testing.T) {
	base := fixtures.BaseTime
	events := []*transaction.Event{
		fixtures.NewEventBuilder(t).WithRow(0).WithEntity("C1").WithTimestamp(base).Build(),
		fixtures.NewEventBuilder(t).WithRow(1).WithEntity("C1").WithTimestamp(base.Add(time.Minute)).Build(),
		fixtures.NewEventBuilder(t).WithRow(2).WithEntity("C2").WithTimestamp(base).Build(),
		fixtures.NewEventBuilder(t).WithRow(3).WithEntity("C3").WithTimestamp(base).Build(),
	}

	histories := transaction.BuildHistories(events)

	require.Len(t, histories, 3)
	assert.Equal(t, "C1", histories[0].EntityID)
	assert.Equal(t, 2, histories[0].Len())
	assert.Equal(t, "C2", histories[1].EntityID)
	assert.Equal(t, 1, histories[1].Len())
	assert.Equal(t, "C3", histories[2].EntityID)

	// Histories alias the sorted slice rather than copying it.
	assert.Same(t, events[0], histories[0].Events[0])
	assert.Same(t, events[2], histories[1].Events[0])
}

func TestBuildHistories_Empty(t *testing.T) {
	assert.Empty(t, transaction.BuildHistories(nil))
}

func TestMockClock(t *testing.T) {
	mock := &transaction.MockClock{CurrentTime: fixtures.BaseTime}
	transaction.SetClock(mock)
	defer transaction.ResetClock()

	assert.True(t, transaction.Now().Equal(fixtures.BaseTime))

	mock.Advance(90 * time.Second)
	assert.True(t, transaction.Now().Equal(fixtures.BaseTime.Add(90*time.Second)))
}
