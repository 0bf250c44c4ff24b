package system

import (
	"math/rand"
	"sync"
	"time"

	"github.com/ariahq/aria/domain/entities"
)

// Sampler fabricates system utilization readings for display. There is
// no real telemetry behind it; the figures exist so the UI and the
// system-status reply have something fresh to show.
type Sampler struct {
	mu   sync.Mutex
	rand *rand.Rand
}

// NewSampler creates a sampler with its own random source.
func NewSampler() *Sampler {
	return &Sampler{rand: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// Sample implements repositories.StatsProvider. Utilization is 0-99%,
// temperature 45-74°C.
func (s *Sampler) Sample() entities.SystemStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return entities.SystemStats{
		CPU:         s.rand.Intn(100),
		GPU:         s.rand.Intn(100),
		RAM:         s.rand.Intn(100),
		Temperature: 45 + s.rand.Intn(30),
		DiskUsage:   s.rand.Intn(100),
	}
}
