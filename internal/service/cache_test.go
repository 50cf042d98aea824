package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"geothermal_monitor/internal/logger"
	"geothermal_monitor/internal/models"
	"geothermal_monitor/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlot_NilUntilStored(t *testing.T) {
	var s Slot[models.RoomsSnapshot]
	assert.Nil(t, s.Load())

	snap := &models.RoomsSnapshot{Connected: true}
	s.Store(snap)
	assert.Same(t, snap, s.Load())
}

func TestFlusher_LatestWins(t *testing.T) {
	docs := newMemDocs()
	f := NewFlusher(docs, repository.KeyRoomsCache, logger.Nop())

	for i := 1; i <= 5; i++ {
		f.Submit(&models.RoomsSnapshot{Demand: models.DemandSummary{TotalRooms: i}})
	}
	f.Wait()

	var got models.RoomsSnapshot
	found, err := docs.Load(context.Background(), repository.KeyRoomsCache, &got)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 5, got.Demand.TotalRooms)
	assert.LessOrEqual(t, docs.saveCount(repository.KeyRoomsCache), 5)
}

func TestFlusher_SaveErrorIsNotFatal(t *testing.T) {
	docs := newMemDocs()
	docs.err = errors.New("read-only filesystem")
	f := NewFlusher(docs, repository.KeyRoomsCache, logger.Nop())

	f.Submit(&models.RoomsSnapshot{})
	f.Wait()

	docs.err = nil
	f.Submit(&models.RoomsSnapshot{Connected: true})
	f.Wait()
	assert.Equal(t, 1, docs.saveCount(repository.KeyRoomsCache))
}

func TestLoadRoomsCache_SeedsSlot(t *testing.T) {
	docs := newMemDocs()
	require.NoError(t, docs.Save(context.Background(), repository.KeyRoomsCache,
		models.RoomsSnapshot{Rooms: []models.Room{{ID: 1, ControllerID: "rez"}}}))

	var slot Slot[models.RoomsSnapshot]
	require.NoError(t, LoadRoomsCache(context.Background(), docs, &slot, logger.Nop()))
	require.NotNil(t, slot.Load())
	assert.Len(t, slot.Load().Rooms, 1)
}

func TestLoadRoomsCache_EmptyStore(t *testing.T) {
	var slot Slot[models.RoomsSnapshot]
	require.NoError(t, LoadRoomsCache(context.Background(), newMemDocs(), &slot, nil))
	assert.Nil(t, slot.Load())
}

func TestLoadRoomsCache_ServedWhileFirstPollBlocks(t *testing.T) {
	docs := newMemDocs()
	require.NoError(t, docs.Save(context.Background(), repository.KeyRoomsCache,
		models.RoomsSnapshot{Rooms: []models.Room{{ID: 2, ControllerID: "etage"}}}))

	var slot Slot[models.RoomsSnapshot]
	require.NoError(t, LoadRoomsCache(context.Background(), docs, &slot, nil))
	svc := NewRoomsService(&slot, &fakeControllers{}, nil)

	entered := make(chan struct{})
	release := make(chan struct{})
	fresh := &models.RoomsSnapshot{Connected: true}
	p := NewPoller("rooms", time.Hour, &slot, func(context.Context, *models.RoomsSnapshot) (*models.RoomsSnapshot, error) {
		close(entered)
		<-release
		return fresh, nil
	}, nil)

	started := make(chan error, 1)
	go func() { started <- p.Start(context.Background()) }()
	<-entered

	cached := svc.Snapshot()
	require.NotNil(t, cached)
	require.Len(t, cached.Rooms, 1)
	assert.Equal(t, "etage", cached.Rooms[0].ControllerID)

	close(release)
	require.NoError(t, <-started)
	assert.Same(t, fresh, svc.Snapshot())
	p.Stop()
}
