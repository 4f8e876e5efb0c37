package order

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func pendingOrder() *Order {
	return &Order{
		ID:     "o1",
		Status: StatusPending,
		Stage:  StageCreated,
		Timeline: []TimelineEntry{
			{Code: string(StageCreated), Note: "Order placed", At: t0},
		},
	}
}

func TestApplyStatus(t *testing.T) {
	o := pendingOrder()

	changed := ApplyStatus(o, StatusInProgress, "picked up", t0.Add(time.Minute))
	require.True(t, changed)
	assert.Equal(t, StatusInProgress, o.Status)
	require.Len(t, o.Timeline, 2)
	assert.Equal(t, "in progress", o.Timeline[1].Code)
	assert.Equal(t, "picked up", o.Timeline[1].Note)
}

func TestApplyStatus_SameStatusIsNoOp(t *testing.T) {
	o := pendingOrder()

	changed := ApplyStatus(o, StatusPending, "again", t0.Add(time.Minute))
	assert.False(t, changed)
	assert.Len(t, o.Timeline, 1, "no-op must not touch the timeline")
}

func TestApplyStatus_CompletedStampsDeliveredAt(t *testing.T) {
	o := pendingOrder()
	now := t0.Add(time.Hour)

	ApplyStatus(o, StatusCompleted, "done", now)
	require.NotNil(t, o.DeliveredAt)
	assert.True(t, o.DeliveredAt.Equal(now))
}

func TestApplyStatus_CancelledStampsCancelledAt(t *testing.T) {
	o := pendingOrder()
	now := t0.Add(time.Hour)

	ApplyStatus(o, StatusCancelled, "cancelled", now)
	require.NotNil(t, o.CancelledAt)
	assert.True(t, o.CancelledAt.Equal(now))
	assert.Nil(t, o.DeliveredAt)
}

func TestApplyStatus_StampsOnlyOnce(t *testing.T) {
	o := pendingOrder()
	first := t0.Add(time.Hour)

	ApplyStatus(o, StatusCompleted, "done", first)
	ApplyStatus(o, StatusInProgress, "reopened", first.Add(time.Minute))
	ApplyStatus(o, StatusCompleted, "done again", first.Add(2*time.Minute))

	require.NotNil(t, o.DeliveredAt)
	assert.True(t, o.DeliveredAt.Equal(first), "first stamp wins")
}

func TestApplyStage_ShippedStampsShippedAt(t *testing.T) {
	o := pendingOrder()
	now := t0.Add(time.Hour)

	changed := ApplyStage(o, StageShipped, "on the truck", now)
	require.True(t, changed)
	assert.Equal(t, StageShipped, o.Stage)
	require.NotNil(t, o.ShippedAt)
	assert.True(t, o.ShippedAt.Equal(now))
	assert.Equal(t, StatusPending, o.Status, "shipped does not touch status")
}

func TestApplyStage_DeliveredCompletesOrder(t *testing.T) {
	o := pendingOrder()
	now := t0.Add(time.Hour)

	ApplyStage(o, StageDelivered, "at the door", now)

	assert.Equal(t, StageDelivered, o.Stage)
	assert.Equal(t, StatusCompleted, o.Status, "delivered implies completed")
	require.NotNil(t, o.DeliveredAt)
	assert.True(t, o.DeliveredAt.Equal(now))

	// One entry for the stage change, none for the implied status change.
	require.Len(t, o.Timeline, 2)
	assert.Equal(t, "delivered", o.Timeline[1].Code)
}

func TestApplyStage_SameStageIsNoOp(t *testing.T) {
	o := pendingOrder()

	changed := ApplyStage(o, StageCreated, "again", t0.Add(time.Minute))
	assert.False(t, changed)
	assert.Len(t, o.Timeline, 1)
}

func TestTimelineDedup_WithinWindow(t *testing.T) {
	o := pendingOrder()

	appendTimeline(o, "packaging", "packing", t0.Add(time.Minute))
	appendTimeline(o, "packaging", "packing again", t0.Add(time.Minute+10*time.Second))

	assert.Len(t, o.Timeline, 2, "duplicate entry inside the window is dropped")
	assert.Equal(t, "packing", o.Timeline[1].Note, "existing entries are never edited")
}

func TestTimelineDedup_OutsideWindow(t *testing.T) {
	o := pendingOrder()

	appendTimeline(o, "packaging", "packing", t0.Add(time.Minute))
	appendTimeline(o, "packaging", "packing again", t0.Add(time.Minute).Add(TimelineDedupWindow))

	assert.Len(t, o.Timeline, 3, "entries at or past the window are kept")
}

func TestTimelineDedup_DifferentCodesNotDeduped(t *testing.T) {
	o := pendingOrder()

	ApplyStage(o, StagePackaging, "packing", t0.Add(time.Second))
	ApplyStage(o, StageShipped, "shipped", t0.Add(2*time.Second))
	assert.Len(t, o.Timeline, 3)
}

func TestParseStatus(t *testing.T) {
	for _, s := range []string{"pending", "in progress", "completed", "cancelled"} {
		got, err := ParseStatus(s)
		require.NoError(t, err)
		assert.Equal(t, Status(s), got)
	}

	_, err := ParseStatus("shipped")
	require.ErrorIs(t, err, ErrUnknownValue)
	_, err = ParseStatus("")
	require.ErrorIs(t, err, ErrUnknownValue)
}

func TestParseStage(t *testing.T) {
	for _, s := range []string{"created", "packaging", "shipped", "delivered"} {
		got, err := ParseStage(s)
		require.NoError(t, err)
		assert.Equal(t, Stage(s), got)
	}

	// Legacy alias.
	got, err := ParseStage("packing")
	require.NoError(t, err)
	assert.Equal(t, StagePackaging, got)

	_, err = ParseStage("pending")
	require.ErrorIs(t, err, ErrUnknownValue)
}
