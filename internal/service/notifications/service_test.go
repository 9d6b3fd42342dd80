package notifications

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/dairy/internal/domain/models"
)

type countingStore struct {
	*MemoryStore
	puts   int
	getErr error
}

func (c *countingStore) Get(ctx context.Context, id string) (State, bool, error) {
	if c.getErr != nil {
		return State{}, false, c.getErr
	}
	return c.MemoryStore.Get(ctx, id)
}

func (c *countingStore) Put(ctx context.Context, id string, state State) error {
	c.puts++
	return c.MemoryStore.Put(ctx, id, state)
}

type idSet map[string]bool

func (s idSet) Contains(id string) bool { return s[id] }

var t0 = time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

func newService(catalog Catalog) (*Service, *countingStore, *time.Time) {
	store := &countingStore{MemoryStore: NewMemoryStore()}
	now := t0
	svc := NewService(store, catalog, nil).WithClock(func() time.Time { return now })
	return svc, store, &now
}

func TestMarkReadIsIdempotent(t *testing.T) {
	svc, store, _ := newService(nil)
	ctx := context.Background()

	require.NoError(t, svc.MarkRead(ctx, "alt_1"))
	require.NoError(t, svc.MarkRead(ctx, "alt_1"))

	assert.Equal(t, 1, store.puts)
	state, ok, err := store.Get(ctx, "alt_1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, state.Read)
	assert.Equal(t, t0, *state.ReadAt)
}

func TestMarkAllRead(t *testing.T) {
	svc, _, _ := newService(idSet{"a": true, "b": true})
	ctx := context.Background()
	require.NoError(t, svc.MarkRead(ctx, "a"))

	changed, err := svc.MarkAllRead(ctx, []string{"a", "b", "ghost"})

	require.NoError(t, err)
	assert.Equal(t, 1, changed)
}

func TestUnknownAlert(t *testing.T) {
	svc, _, _ := newService(idSet{})
	ctx := context.Background()

	assert.ErrorIs(t, svc.MarkRead(ctx, "alt_x"), ErrAlertNotFound)
	_, err := svc.Snooze(ctx, "alt_x", 2)
	assert.ErrorIs(t, err, ErrAlertNotFound)
}

func TestSnoozeRejectsNonPositive(t *testing.T) {
	svc, store, _ := newService(nil)

	_, err := svc.Snooze(context.Background(), "alt_1", 0)
	assert.ErrorIs(t, err, ErrInvalidSnooze)
	_, err = svc.Snooze(context.Background(), "alt_1", -3)
	assert.ErrorIs(t, err, ErrInvalidSnooze)
	assert.Zero(t, store.puts)
}

func TestSnoozeRoundTrip(t *testing.T) {
	svc, _, _ := newService(nil)
	ctx := context.Background()

	until, err := svc.Snooze(ctx, "alt_1", 24)
	require.NoError(t, err)
	assert.Equal(t, t0.Add(24*time.Hour), until)

	visible, err := svc.IsVisible(ctx, "alt_1", t0.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, visible)

	visible, err = svc.IsVisible(ctx, "alt_1", t0.Add(25*time.Hour))
	require.NoError(t, err)
	assert.True(t, visible)
}

func TestSnoozeKeepsReadFlag(t *testing.T) {
	svc, store, _ := newService(nil)
	ctx := context.Background()
	require.NoError(t, svc.MarkRead(ctx, "alt_1"))

	_, err := svc.Snooze(ctx, "alt_1", 1)
	require.NoError(t, err)

	state, _, _ := store.Get(ctx, "alt_1")
	assert.True(t, state.Read)
	assert.NotNil(t, state.SnoozeUntil)
}

func TestDecorate(t *testing.T) {
	svc, _, _ := newService(nil)
	ctx := context.Background()
	alerts := []models.Alert{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	require.NoError(t, svc.MarkRead(ctx, "a"))
	_, err := svc.Snooze(ctx, "b", 2)
	require.NoError(t, err)

	visible, err := svc.Decorate(ctx, alerts, t0.Add(time.Hour), false)
	require.NoError(t, err)
	require.Len(t, visible, 2)
	assert.True(t, visible[0].Read)
	assert.Equal(t, "c", visible[1].ID)

	all, err := svc.Decorate(ctx, alerts, t0.Add(time.Hour), true)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.True(t, all[1].Snoozed)
	assert.Equal(t, t0.Add(2*time.Hour), *all[1].SnoozeUntil)

	later, err := svc.Decorate(ctx, alerts, t0.Add(3*time.Hour), false)
	require.NoError(t, err)
	assert.Len(t, later, 3)
	assert.False(t, later[1].Snoozed)
	assert.Nil(t, later[1].SnoozeUntil)
}

func TestStoreErrorsPropagate(t *testing.T) {
	store := &countingStore{MemoryStore: NewMemoryStore(), getErr: errors.New("redis down")}
	svc := NewService(store, nil, nil)

	assert.ErrorContains(t, svc.MarkRead(context.Background(), "a"), "redis down")
	_, err := svc.Decorate(context.Background(), []models.Alert{{ID: "a"}}, t0, false)
	assert.Error(t, err)
}
