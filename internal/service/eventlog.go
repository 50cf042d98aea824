package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"geothermal_monitor/internal/logger"
	"geothermal_monitor/internal/models"
	"geothermal_monitor/internal/repository"
)

// LogFilter narrows the control journal.
type LogFilter struct {
	From  time.Time
	To    time.Time
	Type  string
	Limit int
}

// Recorder appends to the control journal without failing the caller.
type Recorder interface {
	Record(ctx context.Context, typ, description string, meta any)
}

const defaultEventLimit = 200

var errInvalidTimeRange = errors.New("invalid time range: from must be <= to")

type EventLogService struct {
	eventRepo repository.EventRepo
	log       *logger.Logger
}

func NewEventLogService(eventRepo repository.EventRepo, log *logger.Logger) *EventLogService {
	if log == nil {
		log = logger.Nop()
	}
	return &EventLogService{eventRepo: eventRepo, log: log}
}

// normalizeToUTC returns t in UTC, preserving zero time values.
func normalizeToUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

func normalizeEventType(s string) string {
	return strings.TrimSpace(strings.ToUpper(s))
}

func normalizeAndValidateFilter(f LogFilter) (LogFilter, error) {
	out := LogFilter{
		From:  normalizeToUTC(f.From),
		To:    normalizeToUTC(f.To),
		Type:  normalizeEventType(f.Type),
		Limit: f.Limit,
	}
	if !out.From.IsZero() && !out.To.IsZero() && out.From.After(out.To) {
		return LogFilter{}, errInvalidTimeRange
	}
	if out.Limit <= 0 {
		out.Limit = defaultEventLimit
	}
	return out, nil
}

func (s *EventLogService) List(ctx context.Context, f LogFilter) ([]models.Event, error) {
	nf, err := normalizeAndValidateFilter(f)
	if err != nil {
		return nil, err
	}
	return s.eventRepo.List(ctx, nf.From, nf.To, nf.Type, nf.Limit)
}

// Record appends an event. Storage errors are logged only.
func (s *EventLogService) Record(ctx context.Context, typ, description string, meta any) {
	err := s.eventRepo.Append(ctx, models.Event{
		Type:        typ,
		Description: description,
		Metadata:    meta,
	})
	if err != nil {
		s.log.Errorw("event_append_failed", "type", typ, "err", err)
	}
}
