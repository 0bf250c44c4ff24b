package repositories

import "github.com/ariahq/aria/domain/entities"

// StatsProvider supplies system utilization readings for display. The
// core never depends on these figures being real.
type StatsProvider interface {
	Sample() entities.SystemStats
}
