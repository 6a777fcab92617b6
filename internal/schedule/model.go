package schedule

import (
	"time"

	"github.com/google/uuid"
)

type SlotStatus string

const (
	SlotAvailable SlotStatus = "available"
	SlotReserved  SlotStatus = "reserved"
	SlotBlocked   SlotStatus = "blocked"
)

type SlotSource string

const (
	SourceProduct SlotSource = "product"
)

// BlockType classifies a blocked slot: a one-off exception or a recurring
// buffer gap between sessions.
type BlockType string

const (
	BlockException BlockType = "exception"
	BlockBuffer    BlockType = "buffer"
)

type RepeatFrequency string

const (
	RepeatNone     RepeatFrequency = "none"
	RepeatWeekly   RepeatFrequency = "weekly"
	RepeatBiweekly RepeatFrequency = "biweekly"
	RepeatCustom   RepeatFrequency = "custom"
)

// Repeat describes how a slot request expands into a recurring series.
// Until is required for any frequency other than none and is exclusive on
// the shifted start time.
type Repeat struct {
	Frequency    RepeatFrequency
	IntervalDays int
	Until        time.Time
}

// SlotRequest is one entry of a batch slot-creation call, before expansion.
type SlotRequest struct {
	StartAt   time.Time
	EndAt     time.Time
	ServiceID *uuid.UUID
	Note      *string
	Repeat    *Repeat
}

type Slot struct {
	ID        uuid.UUID
	ServiceID *uuid.UUID
	StartAt   time.Time
	EndAt     time.Time
	Status    SlotStatus
	Source    SlotSource
	BlockType *BlockType
	Note      *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SlotFilter narrows admin slot listings.
type SlotFilter struct {
	From      *time.Time
	To        *time.Time
	ServiceID *uuid.UUID
	Status    *SlotStatus
	Source    *SlotSource
}

// SlotUpdate carries the editable fields of a slot. Nil fields are left
// untouched.
type SlotUpdate struct {
	StartAt *time.Time
	EndAt   *time.Time
	Note    *string
}

// Settings is the single-row schedule configuration.
type Settings struct {
	Timezone      string
	BufferMinutes int
	UpdatedAt     time.Time
}
