package reservoir

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_StartsFull(t *testing.T) {
	for _, kind := range Kinds() {
		r, err := New(kind, 500)
		require.NoError(t, err)
		assert.Equal(t, 500, r.Level(), "kind %s", kind)
		assert.Equal(t, 500, r.Capacity())
		assert.Equal(t, kind, r.Kind())
	}
}

func TestNew_Rejects(t *testing.T) {
	tests := []struct {
		name     string
		kind     Kind
		capacity int
		want     error
	}{
		{name: "zero capacity", kind: Water, capacity: 0, want: ErrInvalidCapacity},
		{name: "negative capacity", kind: Milk, capacity: -5, want: ErrInvalidCapacity},
		{name: "unknown kind", kind: UnknownKind, capacity: 100, want: ErrUnknownKind},
		{name: "out of range kind", kind: Kind(42), capacity: 100, want: ErrUnknownKind},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := New(tt.kind, tt.capacity)
			assert.Nil(t, r)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestUse(t *testing.T) {
	r, err := New(Water, 500)
	require.NoError(t, err)

	require.NoError(t, r.Use(100))
	assert.Equal(t, 400, r.Level())

	require.NoError(t, r.Use(0))
	assert.Equal(t, 400, r.Level())
}

func TestUse_ExactAvailableAmount(t *testing.T) {
	r, err := New(Beans, 50)
	require.NoError(t, err)

	require.NoError(t, r.Use(50))
	assert.Equal(t, 0, r.Level())
}

func TestUse_MoreThanAvailable(t *testing.T) {
	r, err := New(Beans, 50)
	require.NoError(t, err)

	err = r.Use(60)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientResource)
	assert.Equal(t, 50, r.Level(), "level must be unchanged after a failed use")

	var insufficient *InsufficientError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, Beans, insufficient.Kind)
	assert.Equal(t, 60, insufficient.Requested)
	assert.Equal(t, 50, insufficient.Available)
	assert.Contains(t, err.Error(), "requested 60g")
}

func TestUse_NegativeAmount(t *testing.T) {
	r, err := New(Milk, 100)
	require.NoError(t, err)

	assert.ErrorIs(t, r.Use(-1), ErrInvalidAmount)
	assert.Equal(t, 100, r.Level())
}

func TestRefill(t *testing.T) {
	tests := []struct {
		name     string
		kind     Kind
		capacity int
		use      int
		refill   int
		want     int
	}{
		{name: "water refill clamps", kind: Water, capacity: 500, use: 100, refill: 200, want: 500},
		{name: "beans refill clamps", kind: Beans, capacity: 100, use: 20, refill: 50, want: 100},
		{name: "milk partial refill", kind: Milk, capacity: 300, use: 150, refill: 100, want: 250},
		{name: "refill full reservoir", kind: Milk, capacity: 200, use: 0, refill: 100, want: 200},
		{name: "refill zero", kind: Water, capacity: 200, use: 50, refill: 0, want: 150},
		{name: "refill from empty", kind: Beans, capacity: 80, use: 80, refill: 30, want: 30},
		{name: "refill exactly to capacity", kind: Water, capacity: 200, use: 70, refill: 70, want: 200},
		{name: "max int on full reservoir", kind: Water, capacity: 200, use: 0, refill: math.MaxInt, want: 200},
		{name: "max int on drained reservoir", kind: Milk, capacity: 1000, use: 600, refill: math.MaxInt, want: 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := New(tt.kind, tt.capacity)
			require.NoError(t, err)
			require.NoError(t, r.Use(tt.use))

			require.NoError(t, r.Refill(tt.refill))
			assert.Equal(t, tt.want, r.Level())
		})
	}
}

func TestRefill_NegativeAmount(t *testing.T) {
	r, err := New(Water, 200)
	require.NoError(t, err)
	require.NoError(t, r.Use(50))

	assert.ErrorIs(t, r.Refill(-10), ErrInvalidAmount)
	assert.Equal(t, 150, r.Level())
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{in: "water", want: Water},
		{in: " Beans ", want: Beans},
		{in: "bean", want: Beans},
		{in: "MILK", want: Milk},
		{in: "sugar", want: UnknownKind, wantErr: true},
		{in: "", want: UnknownKind, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseKind(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownKind)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestKindUnits(t *testing.T) {
	assert.Equal(t, "ml", Water.Unit())
	assert.Equal(t, "g", Beans.Unit())
	assert.Equal(t, "ml", Milk.Unit())
	assert.Equal(t, "", UnknownKind.Unit())
	assert.Equal(t, "unknown", UnknownKind.String())
}

func TestSnapshot(t *testing.T) {
	r, err := New(Water, 2000)
	require.NoError(t, err)
	require.NoError(t, r.Use(200))

	snap := r.Snapshot()
	assert.Equal(t, Snapshot{Kind: Water, Name: "water", Unit: "ml", Level: 1800, Capacity: 2000}, snap)
	assert.Equal(t, "water: 1800/2000ml", snap.String())
}
