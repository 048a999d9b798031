package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOrder(t *testing.T) {
	now := time.Date(2026, time.May, 4, 8, 30, 0, 0, time.UTC)
	ready := now.AddDate(0, 0, 1)

	o, err := NewOrder("  Alice  ", 5, now, ready)
	require.NoError(t, err)

	assert.NotEmpty(t, o.ID)
	assert.Equal(t, "Alice", o.Name)
	assert.Equal(t, 5, o.ClothesCount)
	assert.Equal(t, now, o.DateAdded)
	assert.Equal(t, ready, o.ReadyDate)
	assert.False(t, o.Completed)
	assert.Nil(t, o.CompletedDate)
}

func TestNewOrderRejectsInvalidInput(t *testing.T) {
	now := time.Now()

	cases := []struct {
		name  string
		input string
		count int
		want  error
	}{
		{"empty name", "", 3, ErrInvalidName},
		{"blank name", "   \t", 3, ErrInvalidName},
		{"zero clothes", "Bob", 0, ErrInvalidClothesCount},
		{"negative clothes", "Bob", -1, ErrInvalidClothesCount},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewOrder(tc.input, tc.count, now, now)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.want))
			assert.True(t, errors.Is(err, ErrValidation))
		})
	}
}

func TestNewOrderClampsReadyDate(t *testing.T) {
	now := time.Date(2026, time.May, 4, 8, 30, 0, 0, time.UTC)

	o, err := NewOrder("Alice", 1, now, now.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, now, o.ReadyDate)
}

func TestNewIDUnique(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		id, err := NewID()
		require.NoError(t, err)
		_, dup := seen[id]
		require.False(t, dup, "duplicate id %s", id)
		seen[id] = struct{}{}
	}
}

func TestCompleteIsOneWay(t *testing.T) {
	first := time.Date(2026, time.May, 4, 9, 0, 0, 0, time.UTC)
	o := Order{ID: "a", Name: "Alice", ClothesCount: 2}

	assert.True(t, o.Complete(first))
	assert.True(t, o.Completed)
	require.NotNil(t, o.CompletedDate)
	assert.Equal(t, first, *o.CompletedDate)

	assert.False(t, o.Complete(first.Add(time.Hour)))
	assert.Equal(t, first, *o.CompletedDate)
}

func TestCloneDetachesCompletedDate(t *testing.T) {
	o := Order{ID: "a"}
	o.Complete(time.Date(2026, time.May, 4, 9, 0, 0, 0, time.UTC))

	c := o.Clone()
	*c.CompletedDate = c.CompletedDate.Add(time.Hour)

	assert.NotEqual(t, *o.CompletedDate, *c.CompletedDate)
}
