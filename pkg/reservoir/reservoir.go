package reservoir

import (
	"errors"
	"fmt"
	"strings"
)

// Kind identifies the consumable held by a reservoir.
type Kind int

const (
	// UnknownKind is the zero value and never valid for a reservoir.
	UnknownKind Kind = iota

	// Water is measured in millilitres.
	Water

	// Beans are measured in grams.
	Beans

	// Milk is measured in millilitres.
	Milk
)

// Kinds returns every valid kind in the order a machine checks them.
func Kinds() []Kind {
	return []Kind{Water, Beans, Milk}
}

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case Water:
		return "water"
	case Beans:
		return "beans"
	case Milk:
		return "milk"
	default:
		return "unknown"
	}
}

// Unit returns the measurement unit for the kind.
func (k Kind) Unit() string {
	switch k {
	case Water, Milk:
		return "ml"
	case Beans:
		return "g"
	default:
		return ""
	}
}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	return k == Water || k == Beans || k == Milk
}

// ParseKind converts a name such as "water" or "Beans" into a Kind.
func ParseKind(s string) (Kind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for _, k := range Kinds() {
		if k.String() == name {
			return k, nil
		}
	}
	// "bean" is common enough at the console to accept.
	if name == "bean" {
		return Beans, nil
	}
	return UnknownKind, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

var (
	// ErrInsufficientResource is matched by every error Use returns when the
	// requested amount exceeds the current level.
	ErrInsufficientResource = errors.New("not enough resources")

	// ErrInvalidAmount is returned for negative amounts.
	ErrInvalidAmount = errors.New("amount must not be negative")

	// ErrInvalidCapacity is returned by New for a non-positive capacity.
	ErrInvalidCapacity = errors.New("capacity must be positive")

	// ErrUnknownKind is returned for kinds outside Water, Beans and Milk.
	ErrUnknownKind = errors.New("unknown reservoir kind")
)

// InsufficientError describes a Use call that asked for more than was left.
type InsufficientError struct {
	Kind      Kind
	Requested int
	Available int
}

// Error implements the error interface.
func (e *InsufficientError) Error() string {
	return fmt.Sprintf("%s (%s: requested %d%s, available %d%s)",
		ErrInsufficientResource, e.Kind, e.Requested, e.Kind.Unit(), e.Available, e.Kind.Unit())
}

// Is makes errors.Is(err, ErrInsufficientResource) hold.
func (e *InsufficientError) Is(target error) bool {
	return target == ErrInsufficientResource
}

// Reservoir is a bounded counter of a single consumable.
// It is not safe for concurrent use; owners serialize access.
type Reservoir struct {
	kind     Kind
	capacity int
	level    int
}

// New creates a full reservoir of the given kind and capacity.
func New(kind Kind, capacity int) (*Reservoir, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, int(kind))
	}
	if capacity <= 0 {
		return nil, fmt.Errorf("%s reservoir: %w, got %d", kind, ErrInvalidCapacity, capacity)
	}
	return &Reservoir{
		kind:     kind,
		capacity: capacity,
		level:    capacity,
	}, nil
}

// Use draws amount from the reservoir. The level is left unchanged on error.
func (r *Reservoir) Use(amount int) error {
	if amount < 0 {
		return fmt.Errorf("%s reservoir: %w, got %d", r.kind, ErrInvalidAmount, amount)
	}
	if amount > r.level {
		return &InsufficientError{
			Kind:      r.kind,
			Requested: amount,
			Available: r.level,
		}
	}
	r.level -= amount
	return nil
}

// Refill adds amount to the reservoir, clamping at capacity.
func (r *Reservoir) Refill(amount int) error {
	if amount < 0 {
		return fmt.Errorf("%s reservoir: %w, got %d", r.kind, ErrInvalidAmount, amount)
	}
	// Compare against the headroom so a huge amount cannot overflow.
	if amount >= r.capacity-r.level {
		r.level = r.capacity
	} else {
		r.level += amount
	}
	return nil
}

// Level returns the current amount held.
func (r *Reservoir) Level() int {
	return r.level
}

// Capacity returns the maximum amount the reservoir can hold.
func (r *Reservoir) Capacity() int {
	return r.capacity
}

// Kind returns the consumable held.
func (r *Reservoir) Kind() Kind {
	return r.kind
}

// Snapshot is a point-in-time copy of a reservoir's state.
type Snapshot struct {
	Kind     Kind   `json:"-" yaml:"-"`
	Name     string `json:"name" yaml:"name"`
	Unit     string `json:"unit" yaml:"unit"`
	Level    int    `json:"level" yaml:"level"`
	Capacity int    `json:"capacity" yaml:"capacity"`
}

// Snapshot captures the current state.
func (r *Reservoir) Snapshot() Snapshot {
	return Snapshot{
		Kind:     r.kind,
		Name:     r.kind.String(),
		Unit:     r.kind.Unit(),
		Level:    r.level,
		Capacity: r.capacity,
	}
}

// String renders the snapshot as "water: 1800/2000ml".
func (s Snapshot) String() string {
	return fmt.Sprintf("%s: %d/%d%s", s.Name, s.Level, s.Capacity, s.Unit)
}
