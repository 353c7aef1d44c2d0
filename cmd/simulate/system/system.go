// Package system holds the periodic logic of the simulation.
package system

import (
	"fmt"
	"strconv"
	"time"

	"github.com/argus-labs/component-container/cmd/simulate/component"
	"github.com/argus-labs/component-container/pkg/ecs"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// Movement integrates the position of every entity that has a velocity.
func Movement(c *ecs.Container, step time.Duration) func() error {
	var positions []*component.Position
	var velocities []*component.Velocity
	dt := step.Seconds()

	return func() error {
		positions, velocities = positions[:0], velocities[:0]
		ecs.Intersection2(c, &positions, &velocities)
		for i, p := range positions {
			p.X += velocities[i].DX * dt
			p.Y += velocities[i].DY * dt
		}
		return nil
	}
}

// Decay drains health and deletes the entities that run out of it.
func Decay(c *ecs.Container, log zerolog.Logger) func() error {
	var dead []ecs.Entity

	return func() error {
		dead = dead[:0]
		for _, h := range ecs.Components[component.Health](c).All() {
			h.Value -= h.Decay
			if h.Value <= 0 {
				dead = append(dead, h.Owner())
			}
		}
		// Deleting compacts the buckets, so it can't happen while iterating them.
		for _, e := range dead {
			c.DeleteEntity(e)
		}
		if len(dead) > 0 {
			log.Debug().Int("count", len(dead)).Msg("entities died")
		}
		return nil
	}
}

// Report logs storage statistics and how many decaying entities have left the square of the given
// half-width around the origin.
func Report(c *ecs.Container, bound float64, log zerolog.Logger) func() error {
	b := strconv.FormatFloat(bound, 'f', -1, 64)
	params := ecs.SearchParam{
		Find:  []string{"Position", "Health"},
		Where: fmt.Sprintf("abs(Position.X) > %[1]s || abs(Position.Y) > %[1]s", b),
	}

	return func() error {
		results, err := c.Search(params)
		if err != nil {
			return eris.Wrap(err, "failed to search entities out of bounds")
		}

		stats := ecs.Stats[component.Position](c)
		log.Info().
			Int("positions", stats.Len).
			Int("capacity", stats.Capacity).
			Int("growths", stats.Growths).
			Int("out_of_bounds", len(results)).
			Uint64("memory_in_use", c.MemoryInUse()).
			Msg("simulation report")
		return nil
	}
}
