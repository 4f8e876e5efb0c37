package order

import "time"

// TimelineDedupWindow suppresses a duplicate timeline entry when the last
// entry carries the same code and is younger than this. The field value is
// still updated; only the audit entry is skipped. This absorbs rapid
// repeated admin clicks without losing the current state.
const TimelineDedupWindow = 30 * time.Second

// ApplyStatus transitions the order's status and appends a timeline entry.
// It reports whether the order changed: setting the current status again is
// an accepted no-op that touches nothing.
//
// Side effects: completed stamps DeliveredAt, cancelled stamps CancelledAt.
func ApplyStatus(o *Order, status Status, note string, now time.Time) bool {
	if o.Status == status {
		return false
	}
	o.Status = status

	switch status {
	case StatusCompleted:
		stamp(&o.DeliveredAt, now)
	case StatusCancelled:
		stamp(&o.CancelledAt, now)
	}

	appendTimeline(o, string(status), note, now)
	return true
}

// ApplyStage transitions the order's fulfillment stage and appends a
// timeline entry, with the same no-op semantics as ApplyStatus.
//
// Side effects: shipped stamps ShippedAt; delivered stamps DeliveredAt and
// forces status to completed in the same write, without a second timeline
// entry for the implied status change.
func ApplyStage(o *Order, stage Stage, note string, now time.Time) bool {
	if o.Stage == stage {
		return false
	}
	o.Stage = stage

	switch stage {
	case StageShipped:
		stamp(&o.ShippedAt, now)
	case StageDelivered:
		stamp(&o.DeliveredAt, now)
		o.Status = StatusCompleted
	}

	appendTimeline(o, string(stage), note, now)
	return true
}

// appendTimeline appends an audit entry unless the last entry has the same
// code and falls inside the de-duplication window. The timeline is
// append-only; existing entries are never edited.
func appendTimeline(o *Order, code, note string, now time.Time) {
	if n := len(o.Timeline); n > 0 {
		last := o.Timeline[n-1]
		if last.Code == code && now.Sub(last.At) < TimelineDedupWindow {
			return
		}
	}
	o.Timeline = append(o.Timeline, TimelineEntry{Code: code, Note: note, At: now})
}

func stamp(at **time.Time, now time.Time) {
	if *at == nil {
		t := now
		*at = &t
	}
}
