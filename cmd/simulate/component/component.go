package component

import "github.com/argus-labs/component-container/pkg/ecs"

type Position struct {
	ecs.Base
	X, Y float64
}

func (Position) Name() string { return "Position" }

func (p *Position) Init(args ecs.Args) error {
	var err error
	if p.X, err = args.Float64("x"); err != nil {
		return err
	}
	p.Y, err = args.Float64("y")
	return err
}

type Velocity struct {
	ecs.Base
	DX, DY float64
}

func (Velocity) Name() string { return "Velocity" }

func (v *Velocity) Init(args ecs.Args) error {
	var err error
	if v.DX, err = args.Float64("dx"); err != nil {
		return err
	}
	v.DY, err = args.Float64("dy")
	return err
}

type Health struct {
	ecs.Base
	Value int
	Decay int // Lost per decay step
}

func (Health) Name() string { return "Health" }

func (h *Health) Init(args ecs.Args) error {
	var err error
	if h.Value, err = args.Int("value"); err != nil {
		return err
	}
	h.Decay, err = args.Int("decay")
	return err
}
