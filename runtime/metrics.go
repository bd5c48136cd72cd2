package runtime

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"
)

const metricsNamespace = "wasm_bridge"

type metrics struct {
	compilations          prometheus.Counter
	compileFailures       prometheus.Counter
	instantiations        prometheus.Counter
	instantiationFailures prometheus.Counter
	slotCalls             *prometheus.CounterVec
	callbacks             *prometheus.CounterVec
	liveHandles           prometheus.Gauge
}

func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		compilations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "compilations_total",
			Help:      "number of modules compiled",
		}),
		compileFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "compile_failures_total",
			Help:      "number of compilations rejected",
		}),
		instantiations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "instantiations_total",
			Help:      "number of apps instantiated",
		}),
		instantiationFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "instantiation_failures_total",
			Help:      "number of instantiations rejected",
		}),
		slotCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "slot_calls_total",
			Help:      "number of host import calls by namespace",
		}, []string{"namespace"}),
		callbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "callback_invocations_total",
			Help:      "number of wrapped module callbacks invoked by the host",
		}, []string{"result"}),
		liveHandles: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "live_handles",
			Help:      "number of values currently held in app handle tables",
		}),
	}
	if reg == nil {
		return m, nil
	}
	err := multierr.Combine(
		reg.Register(m.compilations),
		reg.Register(m.compileFailures),
		reg.Register(m.instantiations),
		reg.Register(m.instantiationFailures),
		reg.Register(m.slotCalls),
		reg.Register(m.callbacks),
		reg.Register(m.liveHandles),
	)
	return m, err
}

func (m *metrics) compiled(err error) {
	if err != nil {
		m.compileFailures.Inc()
		return
	}
	m.compilations.Inc()
}

func (m *metrics) instantiated(err error) {
	if err != nil {
		m.instantiationFailures.Inc()
		return
	}
	m.instantiations.Inc()
}

func (m *metrics) callback(_ string, err error) {
	if err != nil {
		m.callbacks.WithLabelValues("error").Inc()
		return
	}
	m.callbacks.WithLabelValues("ok").Inc()
}
