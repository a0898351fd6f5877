// Copyright (C) 2023 Gobalsky Labs Limited
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package metrics

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"code.vegaprotocol.io/marketupdates/logging"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	// Gauge ...
	Gauge instrument = iota
	// Counter ...
	Counter
	// Histogram ...
	Histogram
)

const namespace = "marketupdates"

var (
	// ErrInstrumentNotSupported signals the specified instrument is not yet supported.
	ErrInstrumentNotSupported = errors.New("instrument type unsupported")
	// ErrInstrumentTypeMismatch signal the type of the instrument is not expected.
	ErrInstrumentTypeMismatch = errors.New("instrument is not of the expected type")
)

var (
	setupOnce sync.Once
	setupErr  error

	proposalCounter      *prometheus.CounterVec
	transactionCounter   *prometheus.CounterVec
	queuedTxGauge        prometheus.Gauge
	permissionCheckCount *prometheus.CounterVec
	configUpdateCounter  *prometheus.CounterVec
	roleUpdateCounter    *prometheus.CounterVec
	pausedGauge          *prometheus.GaugeVec
	callTime             *prometheus.HistogramVec
)

// abstract prometheus types
type instrument int

// combine all possible prometheus options + way to differentiate between regular or vector type
type instrumentOpts struct {
	opts    prometheus.Opts
	buckets []float64
	vectors []string
}

type mi struct {
	gaugeV     *prometheus.GaugeVec
	gauge      prometheus.Gauge
	counterV   *prometheus.CounterVec
	histogramV *prometheus.HistogramVec
}

// InstrumentOption - vararg for instrument options setting
type InstrumentOption func(o *instrumentOpts)

// Vectors - configuration used to create a vector of a given interface, slice of label names
func Vectors(labels ...string) InstrumentOption {
	return func(o *instrumentOpts) {
		o.vectors = labels
	}
}

// Help - set the help field on instrument
func Help(help string) InstrumentOption {
	return func(o *instrumentOpts) {
		o.opts.Help = help
	}
}

// Namespace - set namespace
func Namespace(ns string) InstrumentOption {
	return func(o *instrumentOpts) {
		o.opts.Namespace = ns
	}
}

// Buckets - specific to histogram type
func Buckets(b []float64) InstrumentOption {
	return func(o *instrumentOpts) {
		o.buckets = b
	}
}

// AddInstrument configures and registers a new metrics instrument.
func AddInstrument(t instrument, name string, opts ...InstrumentOption) (*mi, error) {
	var col prometheus.Collector
	ret := mi{}
	opt := instrumentOpts{
		opts: prometheus.Opts{
			Name: name,
		},
	}
	// apply options
	for _, o := range opts {
		o(&opt)
	}
	switch t {
	case Gauge:
		o := opt.gauge()
		if len(opt.vectors) == 0 {
			ret.gauge = prometheus.NewGauge(o)
			col = ret.gauge
		} else {
			ret.gaugeV = prometheus.NewGaugeVec(o, opt.vectors)
			col = ret.gaugeV
		}
	case Counter:
		// counters and histograms are always labelled here
		if len(opt.vectors) == 0 {
			return nil, ErrInstrumentNotSupported
		}
		ret.counterV = prometheus.NewCounterVec(opt.counter(), opt.vectors)
		col = ret.counterV
	case Histogram:
		if len(opt.vectors) == 0 {
			return nil, ErrInstrumentNotSupported
		}
		ret.histogramV = prometheus.NewHistogramVec(opt.histogram(), opt.vectors)
		col = ret.histogramV
	default:
		return nil, ErrInstrumentNotSupported
	}
	if err := prometheus.Register(col); err != nil {
		return nil, err
	}
	return &ret, nil
}

// Setup registers every instrument. It is safe to call more than once.
func Setup() error {
	setupOnce.Do(func() {
		setupErr = setupMetrics()
	})
	return setupErr
}

// Start registers the instruments and, if enabled, exposes them over http
// until ctx is done.
func Start(ctx context.Context, log *logging.Logger, conf Config) error {
	if err := Setup(); err != nil {
		return errors.Wrap(err, "could not set up metrics")
	}
	if !conf.Enabled {
		return nil
	}
	log = log.Named(namedLogger)
	log.SetLevel(conf.Level.Get())

	mux := http.NewServeMux()
	mux.Handle(conf.Path, promhttp.Handler())
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", conf.Port),
		Handler:           mux,
		ReadHeaderTimeout: conf.Timeout.Get(),
	}
	go func() {
		log.Info("starting metrics server", logging.Int("port", conf.Port), logging.String("path", conf.Path))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server stopped", logging.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), conf.Timeout.Get())
		defer cancel()
		_ = srv.Shutdown(sctx)
	}()
	return nil
}

func (i instrumentOpts) gauge() prometheus.GaugeOpts {
	return prometheus.GaugeOpts(i.opts)
}

func (i instrumentOpts) counter() prometheus.CounterOpts {
	return prometheus.CounterOpts(i.opts)
}

func (i instrumentOpts) histogram() prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Name:        i.opts.Name,
		Namespace:   i.opts.Namespace,
		Subsystem:   i.opts.Subsystem,
		ConstLabels: i.opts.ConstLabels,
		Help:        i.opts.Help,
		Buckets:     i.buckets,
	}
}

// Gauge returns a prometheus Gauge instrument
func (m mi) Gauge() (prometheus.Gauge, error) {
	if m.gauge == nil {
		return nil, ErrInstrumentTypeMismatch
	}
	return m.gauge, nil
}

// GaugeVec returns a prometheus GaugeVec instrument
func (m mi) GaugeVec() (*prometheus.GaugeVec, error) {
	if m.gaugeV == nil {
		return nil, ErrInstrumentTypeMismatch
	}
	return m.gaugeV, nil
}

// CounterVec returns a prometheus CounterVec instrument
func (m mi) CounterVec() (*prometheus.CounterVec, error) {
	if m.counterV == nil {
		return nil, ErrInstrumentTypeMismatch
	}
	return m.counterV, nil
}

func (m mi) HistogramVec() (*prometheus.HistogramVec, error) {
	if m.histogramV == nil {
		return nil, ErrInstrumentTypeMismatch
	}
	return m.histogramV, nil
}

func setupMetrics() error {
	h, err := AddInstrument(
		Counter,
		"proposals_total",
		Namespace(namespace),
		Vectors("state"),
		Help("Number of market update proposals per state transition"),
	)
	if err != nil {
		return err
	}
	if proposalCounter, err = h.CounterVec(); err != nil {
		return err
	}

	h, err = AddInstrument(
		Counter,
		"timelock_transactions_total",
		Namespace(namespace),
		Vectors("outcome"),
		Help("Number of timelock transactions queued, executed or canceled"),
	)
	if err != nil {
		return err
	}
	if transactionCounter, err = h.CounterVec(); err != nil {
		return err
	}

	h, err = AddInstrument(
		Gauge,
		"timelock_queued_transactions",
		Namespace(namespace),
		Help("Number of transactions currently queued in the timelock"),
	)
	if err != nil {
		return err
	}
	if queuedTxGauge, err = h.Gauge(); err != nil {
		return err
	}

	h, err = AddInstrument(
		Counter,
		"permission_checks_total",
		Namespace(namespace),
		Vectors("outcome"),
		Help("Outcome of the market admin permission checks, denials are counted when they happen and grants once committed"),
	)
	if err != nil {
		return err
	}
	if permissionCheckCount, err = h.CounterVec(); err != nil {
		return err
	}

	h, err = AddInstrument(
		Counter,
		"configuration_updates_total",
		Namespace(namespace),
		Vectors("parameter"),
		Help("Number of market configuration updates per parameter"),
	)
	if err != nil {
		return err
	}
	if configUpdateCounter, err = h.CounterVec(); err != nil {
		return err
	}

	h, err = AddInstrument(
		Counter,
		"role_updates_total",
		Namespace(namespace),
		Vectors("role"),
		Help("Number of role rotations"),
	)
	if err != nil {
		return err
	}
	if roleUpdateCounter, err = h.CounterVec(); err != nil {
		return err
	}

	h, err = AddInstrument(
		Gauge,
		"market_admin_paused",
		Namespace(namespace),
		Vectors("component"),
		Help("1 while the market admin is paused on the component"),
	)
	if err != nil {
		return err
	}
	if pausedGauge, err = h.GaugeVec(); err != nil {
		return err
	}

	h, err = AddInstrument(
		Histogram,
		"call_seconds",
		Namespace(namespace),
		Vectors("contract", "fn"),
		Buckets(prometheus.ExponentialBuckets(0.00005, 2, 14)),
		Help("Time spent in contract calls"),
	)
	if err != nil {
		return err
	}
	callTime, err = h.HistogramVec()
	return err
}

// ProposalCounterInc increments the proposal counter for the given state.
func ProposalCounterInc(state string) {
	if proposalCounter == nil {
		return
	}
	proposalCounter.WithLabelValues(state).Inc()
}

// TransactionCounterInc counts a timelock transaction and keeps the queued
// gauge in line.
func TransactionCounterInc(outcome string) {
	if transactionCounter == nil {
		return
	}
	transactionCounter.WithLabelValues(outcome).Inc()
	switch outcome {
	case "queued":
		queuedTxGauge.Inc()
	case "executed", "canceled":
		queuedTxGauge.Dec()
	}
}

func PermissionCheckInc(outcome string) {
	if permissionCheckCount == nil {
		return
	}
	permissionCheckCount.WithLabelValues(outcome).Inc()
}

func ConfigurationUpdateInc(parameter string) {
	if configUpdateCounter == nil {
		return
	}
	configUpdateCounter.WithLabelValues(parameter).Inc()
}

func RoleUpdateInc(role string) {
	if roleUpdateCounter == nil {
		return
	}
	roleUpdateCounter.WithLabelValues(role).Inc()
}

// MarketAdminPausedSet updates the pause gauge of a component.
func MarketAdminPausedSet(component string, paused bool) {
	if pausedGauge == nil {
		return
	}
	v := 0.
	if paused {
		v = 1
	}
	pausedGauge.WithLabelValues(component).Set(v)
}

// StartCallTimer returns a func to call once the contract call returns.
func StartCallTimer(contract, fn string) func() {
	startTime := time.Now()
	return func() {
		if callTime == nil {
			return
		}
		callTime.WithLabelValues(contract, fn).Observe(time.Since(startTime).Seconds())
	}
}
