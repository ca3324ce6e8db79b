package machine

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/openfroyo/barista/pkg/recipe"
	"github.com/openfroyo/barista/pkg/reservoir"
	"github.com/openfroyo/barista/pkg/telemetry"
)

// DefaultName is used when no name is configured.
const DefaultName = "barista"

// Machine brews products from three exclusively owned reservoirs.
// All methods are safe for concurrent use.
type Machine struct {
	mu sync.Mutex

	id   string
	name string

	// indexed by reservoir.Kind; index 0 is unused
	reservoirs [reservoir.Milk + 1]*reservoir.Reservoir

	poweredOn  bool
	brewCounts map[recipe.Product]int

	logger  zerolog.Logger
	metrics *telemetry.Metrics
	tracer  *telemetry.Tracer
	events  *telemetry.EventPublisher
}

// Status is a point-in-time view of a machine.
type Status struct {
	ID         string                 `json:"id" yaml:"id"`
	Name       string                 `json:"name" yaml:"name"`
	PoweredOn  bool                   `json:"powered_on" yaml:"powered_on"`
	Reservoirs []reservoir.Snapshot   `json:"reservoirs" yaml:"reservoirs"`
	BrewCounts map[recipe.Product]int `json:"brew_counts" yaml:"brew_counts"`
}

// New creates a powered-off machine owning the given reservoirs.
// Each reservoir must be non-nil and of the matching kind, which also keeps
// one reservoir from filling two slots.
func New(water, beans, milk *reservoir.Reservoir, opts ...Option) (*Machine, error) {
	m := &Machine{
		id:         uuid.New().String(),
		name:       DefaultName,
		brewCounts: make(map[recipe.Product]int, len(recipe.Products())),
		logger:     zerolog.Nop(),
	}

	given := map[reservoir.Kind]*reservoir.Reservoir{
		reservoir.Water: water,
		reservoir.Beans: beans,
		reservoir.Milk:  milk,
	}
	for _, kind := range reservoir.Kinds() {
		r := given[kind]
		if r == nil {
			return nil, newError(ErrInvalidReservoir, "", fmt.Errorf("%s reservoir is nil", kind))
		}
		if r.Kind() != kind {
			return nil, newError(ErrInvalidReservoir, "",
				fmt.Errorf("%s reservoir passed where %s was expected", r.Kind(), kind))
		}
		m.reservoirs[kind] = r
	}

	for _, p := range recipe.Products() {
		m.brewCounts[p] = 0
	}

	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With().Str("machine", m.name).Logger()

	m.metrics.SetPoweredOn(false)
	for _, kind := range reservoir.Kinds() {
		r := m.reservoirs[kind]
		m.metrics.SetReservoir(kind.String(), r.Level(), r.Capacity())
	}

	return m, nil
}

// ID returns the identifier assigned at construction.
func (m *Machine) ID() string {
	return m.id
}

// Name returns the configured machine name.
func (m *Machine) Name() string {
	return m.name
}

// PowerOn turns the machine on. It is a no-op if already on.
func (m *Machine) PowerOn() {
	m.setPower(true)
}

// PowerOff turns the machine off. It is a no-op if already off.
func (m *Machine) PowerOff() {
	m.setPower(false)
}

func (m *Machine) setPower(on bool) {
	m.mu.Lock()
	changed := m.poweredOn != on
	m.poweredOn = on
	m.mu.Unlock()

	if !changed {
		return
	}

	m.logger.Info().Bool("powered_on", on).Msg("Power state changed")
	m.metrics.SetPoweredOn(on)
	if err := m.events.PublishPowerChanged(m.name, on); err != nil {
		m.logger.Warn().Err(err).Msg("Failed to publish power event")
	}
}

// IsPoweredOn reports the current power state.
func (m *Machine) IsPoweredOn() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.poweredOn
}

// BrewCount returns how many times p has been brewed, or 0 for unknown products.
func (m *Machine) BrewCount(p recipe.Product) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.brewCounts[p]
}

// BrewCounts returns a copy of the per-product counters.
func (m *Machine) BrewCounts() map[recipe.Product]int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return maps.Clone(m.brewCounts)
}

// Reservoir returns a snapshot of the reservoir of the given kind.
func (m *Machine) Reservoir(kind reservoir.Kind) (reservoir.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, err := m.reservoirLocked(kind)
	if err != nil {
		return reservoir.Snapshot{}, err
	}
	return r.Snapshot(), nil
}

// Status returns power state, reservoir levels and counters.
func (m *Machine) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Status{
		ID:         m.id,
		Name:       m.name,
		PoweredOn:  m.poweredOn,
		Reservoirs: m.snapshotsLocked(),
		BrewCounts: maps.Clone(m.brewCounts),
	}
}

// CanBrew reports the error Brew would return for p, without side effects.
func (m *Machine) CanBrew(p recipe.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.checkLocked(p)
}

// Brew validates and fulfils a request for one unit of p.
//
// Checks run in a fixed order: product, power, then water, beans and milk.
// The first failing check determines the returned error and nothing is
// consumed or counted. On success every requirement is drawn from its
// reservoir, the product's counter is incremented and a confirmation such as
// "Your double espresso is ready!" is returned.
func (m *Machine) Brew(ctx context.Context, p recipe.Product) (string, error) {
	ctx, span := m.tracer.StartBrewSpan(ctx, m.name, p.String())
	defer span.End()
	timer := telemetry.NewTimer()

	m.mu.Lock()
	count, err := m.brewLocked(p)
	snapshots := m.snapshotsLocked()
	m.mu.Unlock()

	duration := timer.Duration()
	if err != nil {
		m.observeRejected(ctx, p, err, duration)
		return "", err
	}

	m.metrics.RecordBrew(p.String(), telemetry.BrewStatusSuccess, duration)
	for _, snap := range snapshots {
		m.metrics.SetReservoir(snap.Name, snap.Level, snap.Capacity)
	}
	telemetry.RecordSuccess(span)
	m.logger.Debug().
		Str("product", p.String()).
		Int("count", count).
		Msg("Brewed")
	if err := m.events.PublishBrewCompleted(m.name, p.String(), count, duration); err != nil {
		m.logger.Warn().Err(err).Msg("Failed to publish brew event")
	}

	return fmt.Sprintf("Your %s is ready!", p.Label()), nil
}

func (m *Machine) brewLocked(p recipe.Product) (int, error) {
	if err := m.checkLocked(p); err != nil {
		return 0, err
	}

	required := p.Recipe()
	for _, kind := range reservoir.Kinds() {
		// Cannot fail: checkLocked saw enough of every resource under the same lock.
		if err := m.reservoirs[kind].Use(required.Requirement(kind)); err != nil {
			return 0, fmt.Errorf("consume %s for %s: %w", kind, p, err)
		}
	}

	m.brewCounts[p]++
	return m.brewCounts[p], nil
}

func (m *Machine) checkLocked(p recipe.Product) error {
	if !p.Valid() {
		return newError(ErrUnknownProduct, p.String(),
			fmt.Errorf("%w: %d", recipe.ErrUnknownProduct, int(p)))
	}

	if !m.poweredOn {
		return newError(ErrMachineOff, p.String(), nil)
	}

	required := p.Recipe()
	for _, kind := range reservoir.Kinds() {
		need := required.Requirement(kind)
		if have := m.reservoirs[kind].Level(); have < need {
			return newShortageError(kind, p.String(), need, have)
		}
	}
	return nil
}

func (m *Machine) observeRejected(ctx context.Context, p recipe.Product, err error, duration time.Duration) {
	span := trace.SpanFromContext(ctx)
	code := CodeOf(err)
	resource := ""
	var merr *Error
	if errors.As(err, &merr) {
		resource = merr.Resource
	}

	span.SetAttributes(telemetry.AttrErrorCode.String(string(code)))
	telemetry.RecordError(span, err)
	m.metrics.RecordBrew(p.String(), telemetry.BrewStatusFailed, duration)
	m.metrics.RecordError(string(code))
	entry := m.logger.Warn().
		Err(err).
		Str("product", p.String()).
		Str("code", string(code))
	if traceID := telemetry.TraceID(ctx); traceID != "" {
		entry = entry.Str("trace_id", traceID)
	}
	entry.Msg("Brew rejected")
	if perr := m.events.PublishBrewRejected(m.name, p.String(), resource, string(code), err.Error()); perr != nil {
		m.logger.Warn().Err(perr).Msg("Failed to publish brew event")
	}
}

// Refill tops up the reservoir of the given kind, clamping at capacity.
// Refilling is allowed whether the machine is on or off.
func (m *Machine) Refill(ctx context.Context, kind reservoir.Kind, amount int) (reservoir.Snapshot, error) {
	_, span := m.tracer.StartRefillSpan(ctx, m.name, kind.String(), amount)
	defer span.End()

	m.mu.Lock()
	r, err := m.reservoirLocked(kind)
	if err == nil {
		err = r.Refill(amount)
	}
	var snap reservoir.Snapshot
	if r != nil {
		snap = r.Snapshot()
	}
	m.mu.Unlock()

	if err != nil {
		telemetry.RecordError(span, err)
		return snap, err
	}

	telemetry.AddResourceEvent(span, snap.Name, "reservoir.refilled", snap.Level)
	telemetry.RecordSuccess(span)
	m.metrics.RecordRefill(snap.Name)
	m.metrics.SetReservoir(snap.Name, snap.Level, snap.Capacity)
	m.logger.Info().
		Str("resource", snap.Name).
		Int("amount", amount).
		Int("level", snap.Level).
		Msg("Reservoir refilled")
	if perr := m.events.PublishReservoirRefilled(m.name, snap.Name, amount, snap.Level, snap.Capacity); perr != nil {
		m.logger.Warn().Err(perr).Msg("Failed to publish refill event")
	}
	return snap, nil
}

func (m *Machine) reservoirLocked(kind reservoir.Kind) (*reservoir.Reservoir, error) {
	if !kind.Valid() {
		return nil, newError(ErrInvalidReservoir, "", fmt.Errorf("%w: %s", reservoir.ErrUnknownKind, kind))
	}
	return m.reservoirs[kind], nil
}

func (m *Machine) snapshotsLocked() []reservoir.Snapshot {
	snapshots := make([]reservoir.Snapshot, 0, len(reservoir.Kinds()))
	for _, kind := range reservoir.Kinds() {
		snapshots = append(snapshots, m.reservoirs[kind].Snapshot())
	}
	return snapshots
}
