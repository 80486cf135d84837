package service

import (
	"context"
	"errors"
	"testing"

	"stallpick-be/internal/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateStore_AvailabilityRoundTrip(t *testing.T) {
	w := newWorld(t)
	pub := &recordingPublisher{}
	store := NewStateStore(w.factory, pub, testLogger)
	ctx := context.Background()

	open, err := store.LoadAvailability(ctx, w.session.Id)
	require.NoError(t, err)
	assert.Empty(t, open)

	row, err := store.SetAvailability(ctx, w.session.Id, w.stalls[1].Id, true, UpdatedByBuyer)
	require.NoError(t, err)
	assert.Equal(t, int64(1), row.Revision)
	assert.Equal(t, UpdatedByBuyer, row.UpdatedBy)

	row, err = store.SetAvailability(ctx, w.session.Id, w.stalls[1].Id, false, UpdatedByEater)
	require.NoError(t, err)
	assert.Equal(t, int64(2), row.Revision)

	open, err = store.LoadAvailability(ctx, w.session.Id)
	require.NoError(t, err)
	assert.Equal(t, map[uuid.UUID]bool{w.stalls[1].Id: false}, open)

	require.Len(t, pub.availability, 2)
	assert.Equal(t, int64(2), pub.availability[1].Revision)
}

func TestStateStore_ChoiceFieldsAreIndependent(t *testing.T) {
	w := newWorld(t)
	pub := &recordingPublisher{}
	store := NewStateStore(w.factory, pub, testLogger)
	ctx := context.Background()

	_, err := store.SetRequestText(ctx, w.session.Id, "duck rice")
	require.NoError(t, err)

	row, err := store.SetChosenStall(ctx, w.session.Id, w.stalls[0].Id)
	require.NoError(t, err)

	require.NotNil(t, row.StallId)
	assert.Equal(t, w.stalls[0].Id, *row.StallId)
	require.NotNil(t, row.RequestText, "the committed row carries both fields")
	assert.Equal(t, "duck rice", *row.RequestText)

	loaded, err := store.LoadCurrentChoice(ctx, w.session.Id)
	require.NoError(t, err)
	assert.Equal(t, w.stalls[0].Id, *loaded.StallId)
	assert.Equal(t, "duck rice", *loaded.RequestText)
	assert.Equal(t, int64(2), loaded.Revision)

	require.Len(t, pub.choices, 2)
	assert.Equal(t, "duck rice", *pub.choices[1].RequestText)
}

func TestStateStore_LoadCurrentChoiceWithoutRow(t *testing.T) {
	w := newWorld(t)
	store := NewStateStore(w.factory, nil, testLogger)

	row, err := store.LoadCurrentChoice(context.Background(), w.session.Id)

	require.NoError(t, err)
	assert.Equal(t, w.session.Id, row.SessionId)
	assert.Nil(t, row.StallId)
	assert.Nil(t, row.RequestText)
	assert.Zero(t, row.Revision)
}

func TestStateStore_PublishFailureDoesNotFailWrite(t *testing.T) {
	w := newWorld(t)
	pub := &recordingPublisher{err: entity.ErrDeliveryUnavailable}
	store := NewStateStore(w.factory, pub, testLogger)

	row, err := store.SetAvailability(context.Background(), w.session.Id, w.stalls[0].Id, true, UpdatedByBuyer)

	require.NoError(t, err)
	assert.True(t, row.IsOpen)
}

func TestStateStore_PersistenceFailures(t *testing.T) {
	pub := &recordingPublisher{}
	store := NewStateStore(failingFactory{err: errors.New("connection reset")}, pub, testLogger)
	w := newWorld(t)
	ctx := context.Background()

	_, err := store.SetAvailability(ctx, w.session.Id, w.stalls[0].Id, true, UpdatedByBuyer)
	assert.ErrorIs(t, err, entity.ErrPersistenceFailed)

	_, err = store.SetChosenStall(ctx, w.session.Id, w.stalls[0].Id)
	assert.ErrorIs(t, err, entity.ErrPersistenceFailed)

	_, err = store.SetRequestText(ctx, w.session.Id, "laksa")
	assert.ErrorIs(t, err, entity.ErrPersistenceFailed)

	_, err = store.LoadAvailability(ctx, w.session.Id)
	assert.ErrorIs(t, err, entity.ErrPersistenceFailed)

	_, err = store.LoadCurrentChoice(ctx, w.session.Id)
	assert.ErrorIs(t, err, entity.ErrPersistenceFailed)

	assert.Empty(t, pub.availability, "nothing is published for a failed write")
	assert.Empty(t, pub.choices)
}
