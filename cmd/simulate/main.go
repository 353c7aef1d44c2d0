// Command simulate moves a population of entities around with the component container and the task
// scheduler, logging storage statistics along the way.
package main

import (
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/argus-labs/component-container/cmd/simulate/component"
	"github.com/argus-labs/component-container/cmd/simulate/system"
	"github.com/argus-labs/component-container/pkg/ecs"
	"github.com/argus-labs/component-container/pkg/task"
	"github.com/argus-labs/component-container/pkg/telemetry"
	"github.com/pkg/profile"
	"github.com/rotisserie/eris"
)

func main() {
	tel, err := telemetry.New(telemetry.Options{ServiceName: "simulate"})
	if err != nil {
		panic(err.Error())
	}
	log := tel.GetLogger("main")

	if err := run(tel); err != nil {
		log.Fatal().Err(err).Msg("simulation failed")
	}
}

func run(tel telemetry.Telemetry) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := tel.GetLogger("main")

	if stop := startProfile(cfg); stop != nil {
		defer stop()
	}

	c, err := ecs.NewContainer(ecs.Options{Logger: &tel.Logger})
	if err != nil {
		return eris.Wrap(err, "failed to create container")
	}
	defer c.Close()

	ecs.Register[component.Position]()
	ecs.Register[component.Velocity]()
	ecs.Register[component.Health]()

	if err := spawn(c, cfg); err != nil {
		return err
	}
	log.Info().Int("entities", cfg.Entities).Msg("entities spawned")

	scheduler := task.NewScheduler(task.WithLogger(tel.Logger))
	scheduler.Add("movement", cfg.Step, system.Movement(c, cfg.Step))
	scheduler.Add("decay", 100*time.Millisecond, system.Decay(c, tel.GetLogger("decay")))
	scheduler.Add("report", time.Second, system.Report(c, cfg.Bound, tel.GetLogger("report")))

	start := time.Now()
	for range cfg.Steps {
		if _, err := scheduler.Update(cfg.Step); err != nil {
			return eris.Wrap(err, "simulation step failed")
		}
	}

	snapshot, err := c.Snapshot()
	if err != nil {
		return eris.Wrap(err, "failed to snapshot container")
	}
	log.Info().
		Int("steps", cfg.Steps).
		Dur("simulated", time.Duration(cfg.Steps)*cfg.Step).
		Dur("wall", time.Since(start)).
		Int("snapshot_bytes", len(snapshot)).
		Msg("simulation finished")
	return nil
}

// spawn creates the initial population. Every entity has a position and a velocity, two thirds of
// them also decay.
func spawn(c *ecs.Container, cfg simulationConfig) error {
	r := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed)) //nolint:gosec // deterministic simulation
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

	for i := range cfg.Entities {
		e := c.CreateEntity()

		pos := ecs.Args{"x": f(r.Float64()*20 - 10), "y": f(r.Float64()*20 - 10)}
		if _, err := ecs.CreateComponent[component.Position](c, e, pos); err != nil {
			return eris.Wrapf(err, "failed to spawn entity %d", e)
		}

		vel := ecs.Args{"dx": f(r.NormFloat64() * 5), "dy": f(r.NormFloat64() * 5)}
		if _, err := ecs.CreateComponent[component.Velocity](c, e, vel); err != nil {
			return eris.Wrapf(err, "failed to spawn entity %d", e)
		}

		if i%3 == 0 {
			continue
		}
		health := ecs.Args{"value": strconv.Itoa(50 + r.IntN(50)), "decay": strconv.Itoa(1 + r.IntN(3))}
		if _, err := ecs.CreateComponent[component.Health](c, e, health); err != nil {
			return eris.Wrapf(err, "failed to spawn entity %d", e)
		}
	}
	return nil
}

// startProfile starts the configured profile and returns the function stopping it, or nil if no
// profile was requested.
func startProfile(cfg simulationConfig) func() {
	var mode func(*profile.Profile)
	switch cfg.Profile {
	case profileCPU:
		mode = profile.CPUProfile
	case profileMem:
		mode = profile.MemProfileAllocs
	default:
		return nil
	}
	p := profile.Start(mode, profile.ProfilePath(cfg.ProfilePath), profile.NoShutdownHook, profile.Quiet)
	return p.Stop
}
