package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the player registry module.
type Metrics struct {
	PlayersCreated  prometheus.Counter
	AliasesAdded    prometheus.Counter
	PlayersIngested prometheus.Counter
}

// New creates a Metrics instance with all player registry metrics registered.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		PlayersCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "dugout_players_created_total",
			Help: "Total number of players created in the registry",
		}),
		AliasesAdded: factory.NewCounter(prometheus.CounterOpts{
			Name: "dugout_player_aliases_added_total",
			Help: "Total number of player name aliases added",
		}),
		PlayersIngested: factory.NewCounter(prometheus.CounterOpts{
			Name: "dugout_players_ingested_total",
			Help: "Total number of player records applied by batch ingestion",
		}),
	}
}

// IncrementPlayersCreated records a successful player creation.
func (m *Metrics) IncrementPlayersCreated() {
	m.PlayersCreated.Inc()
}

// IncrementAliasesAdded records a successful alias addition.
func (m *Metrics) IncrementAliasesAdded() {
	m.AliasesAdded.Inc()
}

// AddPlayersIngested records records applied by one ingestion batch.
func (m *Metrics) AddPlayersIngested(n int) {
	m.PlayersIngested.Add(float64(n))
}
