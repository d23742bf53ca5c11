package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taldoflemis/cassa/domain"
)

func carryoutInfo(t *testing.T) domain.OrderInfo {
	t.Helper()
	info, err := domain.ValidateOrderInfo(domain.UnvalidatedOrderInfo{
		StoreID:       "7890",
		ServiceMethod: domain.Carryout{PickupLocation: domain.PickupInStore},
		Timing:        domain.Now{},
	})
	require.NoError(t, err)
	return info
}

func TestSweepDropsIdleSessions(t *testing.T) {
	// Arrange
	now := time.Date(2025, 3, 14, 18, 0, 0, 0, time.UTC)
	r := NewSessionRegistry(&fakeStore{}, 30*time.Minute)
	r.now = func() time.Time { return now }
	idle, _ := r.Create(carryoutInfo(t))
	busy, _ := r.Create(carryoutInfo(t))

	// Act
	now = now.Add(20 * time.Minute)
	_, ok := r.Get(busy)
	require.True(t, ok)
	now = now.Add(15 * time.Minute)
	removed := r.Sweep()

	// Assert
	assert.Equal(t, 1, removed)
	_, ok = r.Get(idle)
	assert.False(t, ok)
	_, ok = r.Get(busy)
	assert.True(t, ok)
}

func TestDeleteSession(t *testing.T) {
	r := NewSessionRegistry(&fakeStore{}, time.Hour)
	id, _ := r.Create(carryoutInfo(t))

	assert.True(t, r.Delete(id))
	assert.False(t, r.Delete(id))
	assert.Equal(t, 0, r.Len())
}
