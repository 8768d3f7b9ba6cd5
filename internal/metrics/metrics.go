package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	commands = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "codic_slack_commands_total",
		Help: "Slash commands accepted",
	}, []string{"casing"})
	translations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "codic_slack_translations_total",
		Help: "Codic translate calls by outcome",
	}, []string{"outcome"})
	deliveries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "codic_slack_deliveries_total",
		Help: "Messages posted to Slack by kind and outcome",
	}, []string{"kind", "outcome"})
	unregistered = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "codic_slack_unregistered_total",
		Help: "Commands dropped because the team has no delivery target",
	})
)

func init() {
	prometheus.MustRegister(commands, translations, deliveries, unregistered)
}

// Handler exposes the default registry.
func Handler() http.Handler { return promhttp.Handler() }

func IncCommand(casing string) { commands.WithLabelValues(casing).Inc() }

func IncTranslation(outcome string) { translations.WithLabelValues(outcome).Inc() }

func IncDelivery(kind, outcome string) { deliveries.WithLabelValues(kind, outcome).Inc() }

func IncUnregistered() { unregistered.Inc() }
