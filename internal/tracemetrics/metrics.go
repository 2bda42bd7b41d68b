// Package tracemetrics provides optional prometheus instrumentation
// for trace readers, writers and the index writer. A nil *Registry is
// always safe to call methods on — every method is a no-op until
// New is used to attach a real prometheus.Registerer.
package tracemetrics

import "github.com/prometheus/client_golang/prometheus"

// Registry bundles the counters this module exposes. Grounded on
// xDarkicex/libravdb's package-level NewCounterVec + registration
// pattern.
type Registry struct {
	cyclesWritten    prometheus.Counter
	cyclesRead       prometheus.Counter
	shardsRolled     prometheus.Counter
	corruptionErrors prometheus.Counter
}

// New registers rvtrace's counters against reg and returns a Registry
// ready to be threaded through writers/readers via functional options.
func New(reg prometheus.Registerer) *Registry {
	r := &Registry{
		cyclesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rvtrace",
			Name:      "cycles_written_total",
			Help:      "Number of cycles appended to a trace writer.",
		}),
		cyclesRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rvtrace",
			Name:      "cycles_read_total",
			Help:      "Number of cycles consumed from a trace reader.",
		}),
		shardsRolled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rvtrace",
			Name:      "shards_rolled_total",
			Help:      "Number of times a TraceIndexWriter rolled to a new shard.",
		}),
		corruptionErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rvtrace",
			Name:      "corruption_errors_total",
			Help:      "Number of corruption errors raised while reading a trace.",
		}),
	}
	reg.MustRegister(r.cyclesWritten, r.cyclesRead, r.shardsRolled, r.corruptionErrors)
	return r
}

func (r *Registry) IncCyclesWritten() {
	if r == nil {
		return
	}
	r.cyclesWritten.Inc()
}

func (r *Registry) IncCyclesRead() {
	if r == nil {
		return
	}
	r.cyclesRead.Inc()
}

func (r *Registry) IncShardsRolled() {
	if r == nil {
		return
	}
	r.shardsRolled.Inc()
}

func (r *Registry) IncCorruptionErrors() {
	if r == nil {
		return
	}
	r.corruptionErrors.Inc()
}
