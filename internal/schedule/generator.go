package schedule

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var ErrInvalidSlotRequest = errors.New("invalid slot request")

// resolveIntervalDays maps a repeat frequency to its shift in days.
func resolveIntervalDays(r Repeat) (int, error) {
	switch r.Frequency {
	case RepeatWeekly:
		return 7, nil
	case RepeatBiweekly:
		return 14, nil
	case RepeatCustom:
		if r.IntervalDays <= 0 {
			return 0, fmt.Errorf("%w: interval_days must be a positive integer", ErrInvalidSlotRequest)
		}
		return r.IntervalDays, nil
	default:
		return 0, fmt.Errorf("%w: unknown repeat frequency %q", ErrInvalidSlotRequest, r.Frequency)
	}
}

// Expand turns one slot request into concrete slot records. A request
// without a repeat rule yields exactly one slot; with a repeat rule the
// start/end pair is shifted by the resolved interval until the shifted start
// reaches the until boundary (exclusive).
func Expand(req SlotRequest, status SlotStatus, blockType *BlockType, now time.Time) ([]Slot, error) {
	if !req.StartAt.Before(req.EndAt) {
		return nil, fmt.Errorf("%w: start_at_utc must be before end_at_utc", ErrInvalidSlotRequest)
	}

	build := func(start, end time.Time) Slot {
		return Slot{
			ID:        uuid.New(),
			ServiceID: req.ServiceID,
			StartAt:   start,
			EndAt:     end,
			Status:    status,
			Source:    SourceProduct,
			BlockType: blockType,
			Note:      req.Note,
			CreatedAt: now,
			UpdatedAt: now,
		}
	}

	if req.Repeat == nil || req.Repeat.Frequency == RepeatNone {
		return []Slot{build(req.StartAt, req.EndAt)}, nil
	}

	if req.Repeat.Until.IsZero() {
		return nil, fmt.Errorf("%w: until is required for repeating slots", ErrInvalidSlotRequest)
	}

	interval, err := resolveIntervalDays(*req.Repeat)
	if err != nil {
		return nil, err
	}

	shift := time.Duration(interval) * 24 * time.Hour

	var slots []Slot
	for start, end := req.StartAt, req.EndAt; start.Before(req.Repeat.Until); start, end = start.Add(shift), end.Add(shift) {
		slots = append(slots, build(start, end))
	}

	return slots, nil
}

// ExpandBatch expands every request of a batch and concatenates the results.
// Any malformed request aborts the whole batch before anything is returned
// for persistence.
func ExpandBatch(reqs []SlotRequest, status SlotStatus, blockType *BlockType, now time.Time) ([]Slot, error) {
	var all []Slot
	for i, req := range reqs {
		slots, err := Expand(req, status, blockType, now)
		if err != nil {
			return nil, fmt.Errorf("slot request %d: %w", i, err)
		}
		all = append(all, slots...)
	}
	return all, nil
}
