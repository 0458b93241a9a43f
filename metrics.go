package kcc

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/gekko3d/kcc/movement"
)

const instrumentationName = "github.com/gekko3d/kcc"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

// Metrics counts controller activity on the global meter provider. A nil *Metrics records
// nothing.
type Metrics struct {
	moves    metric.Int64Counter
	attempts metric.Int64Histogram
	contacts metric.Int64Counter
	aborts   metric.Int64Counter
	swaps    metric.Int64Counter
	panics   metric.Int64Counter
}

func NewMetrics() (*Metrics, error) {
	m := meter()
	var (
		out Metrics
		err error
	)
	out.moves, err = m.Int64Counter(
		"kcc.resolver.moves",
		metric.WithDescription("Resolved character moves"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create moves counter: %w", err)
	}
	out.attempts, err = m.Int64Histogram(
		"kcc.resolver.attempts",
		metric.WithDescription("Amendments needed per move"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create attempts histogram: %w", err)
	}
	out.contacts, err = m.Int64Counter(
		"kcc.resolver.contacts",
		metric.WithDescription("Contacts reported by the resolver"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create contacts counter: %w", err)
	}
	out.aborts, err = m.Int64Counter(
		"kcc.resolver.aborts",
		metric.WithDescription("Moves abandoned after the retry ceiling"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create aborts counter: %w", err)
	}
	out.swaps, err = m.Int64Counter(
		"kcc.fsm.swaps",
		metric.WithDescription("Locomotion state changes"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create swaps counter: %w", err)
	}
	out.panics, err = m.Int64Counter(
		"kcc.character.panics",
		metric.WithDescription("Character ticks that panicked"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create panics counter: %w", err)
	}
	return &out, nil
}

func (m *Metrics) Move(res movement.Result, err error) {
	if m == nil {
		return
	}
	ctx := context.Background()
	if errors.Is(err, movement.ErrUnresolvable) {
		m.aborts.Add(ctx, 1)
		return
	}
	m.moves.Add(ctx, 1)
	m.attempts.Record(ctx, int64(res.Attempts))
}

func (m *Metrics) Contact(c movement.Contact) {
	if m == nil {
		return
	}
	m.contacts.Add(context.Background(), 1)
}

func (m *Metrics) Swap(from, to string) {
	if m == nil {
		return
	}
	m.swaps.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("from", from),
		attribute.String("to", to),
	))
}

func (m *Metrics) Panic(actor string) {
	if m == nil {
		return
	}
	m.panics.Add(context.Background(), 1, metric.WithAttributes(attribute.String("actor", actor)))
}

// MetricsModule installs Metrics. Install it before CharacterModule.
type MetricsModule struct{}

func (mod MetricsModule) Install(app *App, cmd *Commands) {
	m, err := NewMetrics()
	if err != nil {
		app.Logger().Errorf("metrics disabled: %v", err)
		return
	}
	cmd.AddResources(m)
}
