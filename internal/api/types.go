package api

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/quietpractice/practice-platform/internal/appointment"
	"github.com/quietpractice/practice-platform/internal/interactive"
	"github.com/quietpractice/practice-platform/internal/schedule"
)

type RepeatRequest struct {
	Frequency    string `json:"frequency"`
	IntervalDays int    `json:"interval_days,omitempty"`
	Until        string `json:"until,omitempty"`
}

type SlotRequest struct {
	StartAtUTC string         `json:"start_at_utc"`
	EndAtUTC   string         `json:"end_at_utc"`
	ServiceID  *string        `json:"service_id,omitempty"`
	Note       *string        `json:"note,omitempty"`
	Repeat     *RepeatRequest `json:"repeat,omitempty"`
}

type CreateSlotsRequest struct {
	Slots []SlotRequest `json:"slots"`
}

type CreatedResponse struct {
	Created int `json:"created"`
}

type SlotResponse struct {
	ID        uuid.UUID  `json:"id"`
	ServiceID *uuid.UUID `json:"service_id,omitempty"`
	StartAt   time.Time  `json:"start_at_utc"`
	EndAt     time.Time  `json:"end_at_utc"`
	Status    string     `json:"status"`
	Source    string     `json:"source"`
	BlockType *string    `json:"block_type,omitempty"`
	Note      *string    `json:"note,omitempty"`
}

type UpdateSlotRequest struct {
	StartAtUTC *string `json:"start_at_utc,omitempty"`
	EndAtUTC   *string `json:"end_at_utc,omitempty"`
	Note       *string `json:"note,omitempty"`
}

type DeleteSlotsRequest struct {
	SlotIDs []string `json:"slot_ids"`
}

type BookAppointmentRequest struct {
	ServiceID string `json:"service_id"`
	ClientID  string `json:"client_id"`
	SlotID    string `json:"slot_id"`
	Timezone  string `json:"timezone"`
}

type OutcomeRequest struct {
	Outcome        string  `json:"outcome"`
	ReasonCategory *string `json:"reason_category,omitempty"`
}

type AppointmentResponse struct {
	ID        uuid.UUID  `json:"id"`
	ServiceID uuid.UUID  `json:"service_id"`
	ClientID  uuid.UUID  `json:"client_id"`
	SlotID    *uuid.UUID `json:"slot_id,omitempty"`
	StartAt   time.Time  `json:"start_at_utc"`
	EndAt     time.Time  `json:"end_at_utc"`
	Timezone  string     `json:"timezone"`
	Status    string     `json:"status"`

	Outcome           *string    `json:"outcome,omitempty"`
	OutcomeReason     *string    `json:"reason_category,omitempty"`
	OutcomeRecordedBy *uuid.UUID `json:"outcome_recorded_by,omitempty"`
	OutcomeRecordedAt *time.Time `json:"outcome_recorded_at,omitempty"`
}

type SettingsRequest struct {
	Timezone      string `json:"timezone"`
	BufferMinutes int    `json:"buffer_minutes"`
}

type SettingsResponse struct {
	Timezone      string `json:"timezone"`
	BufferMinutes int    `json:"buffer_minutes"`
}

type DefinitionResponse struct {
	ID               uuid.UUID       `json:"id"`
	Type             string          `json:"type"`
	Slug             string          `json:"slug"`
	Title            string          `json:"title"`
	TopicCode        string          `json:"topic_code"`
	Status           string          `json:"status"`
	Draft            json.RawMessage `json:"draft,omitempty"`
	DraftUpdatedAt   *time.Time      `json:"draft_updated_at,omitempty"`
	PublishedVersion *int            `json:"published_version,omitempty"`
	PublishedAt      *time.Time      `json:"published_at,omitempty"`
}

type VersionResponse struct {
	DefinitionID uuid.UUID       `json:"definition_id"`
	Version      int             `json:"version"`
	Config       json.RawMessage `json:"config"`
	CreatedBy    *uuid.UUID      `json:"created_by,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

type SaveDraftRequest struct {
	Draft json.RawMessage `json:"draft"`
}

type PublishRequest struct {
	Config json.RawMessage `json:"config"`
}

type ValidateRequest struct {
	Config json.RawMessage `json:"config,omitempty"`
}

type ValidateResponse struct {
	Valid  bool     `json:"valid"`
	Issues []string `json:"issues"`
}

type DiffResponse struct {
	Notes []string `json:"notes"`
}

// Converters

func toSlotRequest(dto SlotRequest) (schedule.SlotRequest, error) {
	start, err := time.Parse(time.RFC3339, dto.StartAtUTC)
	if err != nil {
		return schedule.SlotRequest{}, fmt.Errorf("%w: start_at_utc: %v", schedule.ErrInvalidSlotRequest, err)
	}
	end, err := time.Parse(time.RFC3339, dto.EndAtUTC)
	if err != nil {
		return schedule.SlotRequest{}, fmt.Errorf("%w: end_at_utc: %v", schedule.ErrInvalidSlotRequest, err)
	}

	req := schedule.SlotRequest{
		StartAt: start.UTC(),
		EndAt:   end.UTC(),
		Note:    dto.Note,
	}

	if dto.ServiceID != nil {
		id, err := uuid.Parse(*dto.ServiceID)
		if err != nil {
			return schedule.SlotRequest{}, fmt.Errorf("%w: service_id must be a valid UUID", schedule.ErrInvalidSlotRequest)
		}
		req.ServiceID = &id
	}

	if dto.Repeat != nil {
		rep := schedule.Repeat{
			Frequency:    schedule.RepeatFrequency(dto.Repeat.Frequency),
			IntervalDays: dto.Repeat.IntervalDays,
		}
		if dto.Repeat.Until != "" {
			until, err := time.Parse(time.RFC3339, dto.Repeat.Until)
			if err != nil {
				return schedule.SlotRequest{}, fmt.Errorf("%w: repeat.until: %v", schedule.ErrInvalidSlotRequest, err)
			}
			rep.Until = until.UTC()
		}
		req.Repeat = &rep
	}

	return req, nil
}

func toSlotRequests(dtos []SlotRequest) ([]schedule.SlotRequest, error) {
	reqs := make([]schedule.SlotRequest, 0, len(dtos))
	for _, dto := range dtos {
		req, err := toSlotRequest(dto)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, req)
	}
	return reqs, nil
}

func toSlotResponse(s schedule.Slot) SlotResponse {
	resp := SlotResponse{
		ID:        s.ID,
		ServiceID: s.ServiceID,
		StartAt:   s.StartAt,
		EndAt:     s.EndAt,
		Status:    string(s.Status),
		Source:    string(s.Source),
		Note:      s.Note,
	}
	if s.BlockType != nil {
		bt := string(*s.BlockType)
		resp.BlockType = &bt
	}
	return resp
}

func toAppointmentResponse(a *appointment.Appointment) AppointmentResponse {
	resp := AppointmentResponse{
		ID:                a.ID,
		ServiceID:         a.ServiceID,
		ClientID:          a.ClientID,
		SlotID:            a.SlotID,
		StartAt:           a.StartAt,
		EndAt:             a.EndAt,
		Timezone:          a.Timezone,
		Status:            string(a.Status),
		OutcomeRecordedBy: a.OutcomeRecordedBy,
		OutcomeRecordedAt: a.OutcomeRecordedAt,
	}
	if a.Outcome != nil {
		o := string(*a.Outcome)
		resp.Outcome = &o
	}
	if a.OutcomeReason != nil {
		rc := string(*a.OutcomeReason)
		resp.OutcomeReason = &rc
	}
	return resp
}

func toDefinitionResponse(d *interactive.Definition) DefinitionResponse {
	return DefinitionResponse{
		ID:               d.ID,
		Type:             string(d.Type),
		Slug:             d.Slug,
		Title:            d.Title,
		TopicCode:        d.TopicCode,
		Status:           string(d.Status),
		Draft:            d.DraftJSON,
		DraftUpdatedAt:   d.DraftUpdatedAt,
		PublishedVersion: d.PublishedVersion,
		PublishedAt:      d.PublishedAt,
	}
}

func toVersionResponse(v *interactive.Version) VersionResponse {
	return VersionResponse{
		DefinitionID: v.DefinitionID,
		Version:      v.Version,
		Config:       v.ConfigJSON,
		CreatedBy:    v.CreatedBy,
		CreatedAt:    v.CreatedAt,
	}
}
