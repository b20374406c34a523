package otel

import (
	"context"
	"errors"
	"fmt"

	goAuthClient "github.com/MrEthical07/goAuthClient"
	"github.com/MrEthical07/goAuthClient/metrics/export/internaldefs"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil metrics source")
)

// BoundKey is the attribute carrying a bucket's upper bound.
const BoundKey = "le"

type metricsSource interface {
	MetricsSnapshot() goAuthClient.MetricsSnapshot
	AuditDropped() uint64
}

// reading is one observation made per collection. value reports false
// when there is nothing to record.
type reading struct {
	instrument metric.Int64Observable
	opts       []metric.ObserveOption
	value      func(s goAuthClient.MetricsSnapshot, dropped uint64) (int64, bool)
}

// OTelExporter publishes engine metrics as asynchronous instruments.
// Histogram buckets share one gauge per histogram and are told apart by
// the "le" attribute.
type OTelExporter struct {
	source       metricsSource
	readings     []reading
	registration metric.Registration
}

// NewOTelExporter registers instruments on meter for engine.
func NewOTelExporter(meter metric.Meter, engine *goAuthClient.Engine) (*OTelExporter, error) {
	if engine == nil {
		return nil, ErrNilSource
	}
	return NewOTelExporterFromSource(meter, engine)
}

// NewOTelExporterFromSource registers instruments on meter for any
// snapshot source. Call Close to unregister.
func NewOTelExporterFromSource(meter metric.Meter, source metricsSource) (*OTelExporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	e := &OTelExporter{source: source}
	for _, def := range internaldefs.CounterDefs {
		if err := e.addCounter(meter, def); err != nil {
			return nil, err
		}
	}
	for _, def := range internaldefs.HistogramDefs {
		if err := e.addHistogram(meter, def); err != nil {
			return nil, err
		}
	}

	dropped, err := meter.Int64ObservableCounter("goauthclient_audit_dropped_total",
		metric.WithDescription("Audit events dropped under dispatcher backpressure."))
	if err != nil {
		return nil, fmt.Errorf("audit dropped counter: %w", err)
	}
	e.readings = append(e.readings, reading{
		instrument: dropped,
		value: func(_ goAuthClient.MetricsSnapshot, n uint64) (int64, bool) {
			return int64(n), true
		},
	})

	observables := make([]metric.Observable, 0, len(e.readings))
	seen := make(map[metric.Int64Observable]bool, len(e.readings))
	for _, r := range e.readings {
		if !seen[r.instrument] {
			seen[r.instrument] = true
			observables = append(observables, r.instrument)
		}
	}
	e.registration, err = meter.RegisterCallback(e.observe, observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}
	return e, nil
}

func (e *OTelExporter) addCounter(meter metric.Meter, def internaldefs.CounterDef) error {
	ins, err := meter.Int64ObservableCounter(def.Name, metric.WithDescription(def.Help))
	if err != nil {
		return fmt.Errorf("counter %s: %w", def.Name, err)
	}
	id := def.ID
	e.readings = append(e.readings, reading{
		instrument: ins,
		value: func(s goAuthClient.MetricsSnapshot, _ uint64) (int64, bool) {
			return int64(s.Counters[id]), true
		},
	})
	return nil
}

func (e *OTelExporter) addHistogram(meter metric.Meter, def internaldefs.HistogramDef) error {
	buckets, err := meter.Int64ObservableGauge(def.Name+"_bucket",
		metric.WithDescription("Cumulative bucket counts of "+def.Name+"."))
	if err != nil {
		return fmt.Errorf("bucket gauge %s: %w", def.Name, err)
	}
	count, err := meter.Int64ObservableGauge(def.Name+"_count", metric.WithDescription(def.Help))
	if err != nil {
		return fmt.Errorf("count gauge %s: %w", def.Name, err)
	}

	id := def.ID
	cumulative := func(s goAuthClient.MetricsSnapshot) ([8]uint64, bool) {
		raw, ok := s.Histograms[id]
		if !ok {
			return [8]uint64{}, false
		}
		return internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(raw)), true
	}

	for i, bound := range internaldefs.HistogramBounds {
		i := i
		e.readings = append(e.readings, reading{
			instrument: buckets,
			opts:       []metric.ObserveOption{metric.WithAttributes(attribute.String(BoundKey, bound))},
			value: func(s goAuthClient.MetricsSnapshot, _ uint64) (int64, bool) {
				c, ok := cumulative(s)
				return int64(c[i]), ok
			},
		})
	}
	e.readings = append(e.readings, reading{
		instrument: count,
		value: func(s goAuthClient.MetricsSnapshot, _ uint64) (int64, bool) {
			c, ok := cumulative(s)
			return int64(c[len(c)-1]), ok
		},
	})
	return nil
}

func (e *OTelExporter) observe(_ context.Context, observer metric.Observer) error {
	snapshot := e.source.MetricsSnapshot()
	dropped := e.source.AuditDropped()
	for _, r := range e.readings {
		if v, ok := r.value(snapshot, dropped); ok {
			observer.ObserveInt64(r.instrument, v, r.opts...)
		}
	}
	return nil
}

// Close unregisters the collection callback.
func (e *OTelExporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
