// Package observability provides Prometheus metrics for the turn pipeline.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/parleykit/parley/pkg/dialog"
)

// Metrics records turn and dialog lifecycle counters.
type Metrics struct {
	turnsTotal    *prometheus.CounterVec
	dialogsBegun  *prometheus.CounterVec
	dialogsEnded  *prometheus.CounterVec
	promptRetries *prometheus.CounterVec
	cancellations prometheus.Counter
}

// New registers the counters on the given registerer. Pass
// prometheus.DefaultRegisterer for the process-wide registry.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		turnsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "parley_turns_total",
				Help: "Total number of processed turns by outcome",
			},
			[]string{"outcome"},
		),
		dialogsBegun: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "parley_dialogs_begun_total",
				Help: "Total number of dialog activations by dialog name",
			},
			[]string{"dialog"},
		),
		dialogsEnded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "parley_dialogs_ended_total",
				Help: "Total number of completed dialogs by dialog name",
			},
			[]string{"dialog"},
		),
		promptRetries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "parley_prompt_retries_total",
				Help: "Total number of prompt validation rejections by prompt name",
			},
			[]string{"prompt"},
		),
		cancellations: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "parley_cancellations_total",
				Help: "Total number of dialog stack cancellations",
			},
		),
	}
}

// ObserveTurn increments the per-outcome turn counter. Wire it into the
// dispatcher via bot.WithTurnHook.
func (m *Metrics) ObserveTurn(outcome string) {
	m.turnsTotal.WithLabelValues(outcome).Inc()
}

// DialogEvents returns runner lifecycle callbacks backed by these counters.
func (m *Metrics) DialogEvents() dialog.Events {
	return dialog.Events{
		DialogBegun: func(name string) {
			m.dialogsBegun.WithLabelValues(name).Inc()
		},
		DialogEnded: func(name string) {
			m.dialogsEnded.WithLabelValues(name).Inc()
		},
		PromptRetried: func(prompt string) {
			m.promptRetries.WithLabelValues(prompt).Inc()
		},
		Cancelled: func(int) {
			m.cancellations.Inc()
		},
	}
}
