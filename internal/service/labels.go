package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"geothermal_monitor/internal/logger"
	"geothermal_monitor/internal/models"
	"geothermal_monitor/internal/repository"
)

var ErrEmptyLabel = errors.New("label must not be empty")

// LabelStore keeps user-defined room names in memory and in the document store.
type LabelStore struct {
	docs    repository.Documents
	journal Recorder
	log     *logger.Logger

	mu     sync.RWMutex
	labels models.RoomLabels
}

func NewLabelStore(docs repository.Documents, journal Recorder, log *logger.Logger) *LabelStore {
	if log == nil {
		log = logger.Nop()
	}
	return &LabelStore{docs: docs, journal: journal, log: log, labels: models.RoomLabels{}}
}

// Load reads persisted labels. A missing document leaves the store empty.
func (s *LabelStore) Load(ctx context.Context) error {
	labels := models.RoomLabels{}
	if _, err := s.docs.Load(ctx, repository.KeyRoomLabels, &labels); err != nil {
		return err
	}
	if labels == nil {
		labels = models.RoomLabels{}
	}
	s.mu.Lock()
	s.labels = labels
	s.mu.Unlock()
	return nil
}

// Label implements nussbaum.LabelProvider.
func (s *LabelStore) Label(controllerID string, roomID int) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	name, ok := s.labels[controllerID][strconv.Itoa(roomID)]
	return name, ok
}

// All returns a copy of every label.
func (s *LabelStore) All() models.RoomLabels {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(models.RoomLabels, len(s.labels))
	for ctrl, rooms := range s.labels {
		cp := make(map[string]string, len(rooms))
		for id, name := range rooms {
			cp[id] = name
		}
		out[ctrl] = cp
	}
	return out
}

// SetLabel stores a trimmed, non-empty name and persists the whole document.
// A failed save is logged; the in-memory label still applies.
func (s *LabelStore) SetLabel(ctx context.Context, controllerID string, roomID int, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyLabel
	}

	s.mu.Lock()
	if s.labels[controllerID] == nil {
		s.labels[controllerID] = map[string]string{}
	}
	s.labels[controllerID][strconv.Itoa(roomID)] = name
	s.mu.Unlock()

	if err := s.docs.Save(ctx, repository.KeyRoomLabels, s.All()); err != nil {
		s.log.Errorw("room_labels_save_failed", "controller", controllerID, "room", roomID, "err", err)
	}
	if s.journal != nil {
		s.journal.Record(ctx, models.EventRoomLabel,
			fmt.Sprintf("%s/%d renamed to %q", controllerID, roomID, name),
			map[string]any{"controllerId": controllerID, "roomId": roomID, "name": name})
	}
	return name, nil
}
