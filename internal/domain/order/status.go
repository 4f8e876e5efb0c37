package order

import "github.com/go-faster/errors"

// Status is the coarse customer-facing order state.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// Stage is the finer-grained fulfillment state. It is settable
// independently of Status except that delivered forces completed.
type Stage string

const (
	StageCreated   Stage = "created"
	StagePackaging Stage = "packaging"
	StageShipped   Stage = "shipped"
	StageDelivered Stage = "delivered"
)

// ErrUnknownValue is returned when a status or stage string is outside the
// allowed enum.
var ErrUnknownValue = errors.New("unknown value")

// ParseStatus validates a status string against the enum.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusInProgress, StatusCompleted, StatusCancelled:
		return Status(s), nil
	}
	return "", errors.Wrapf(ErrUnknownValue, "status %q", s)
}

// ParseStage validates a stage string against the enum. The legacy input
// alias "packing" normalizes to packaging.
func ParseStage(s string) (Stage, error) {
	if s == "packing" {
		return StagePackaging, nil
	}
	switch Stage(s) {
	case StageCreated, StagePackaging, StageShipped, StageDelivered:
		return Stage(s), nil
	}
	return "", errors.Wrapf(ErrUnknownValue, "stage %q", s)
}
