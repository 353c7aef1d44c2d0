package ecs

// Component fixtures shared by the internal and external tests of this package.

type Position struct {
	Base
	X, Y float64
}

func (Position) Name() string { return "position" }

func (p *Position) Init(args Args) error {
	x, err := args.Float64("x")
	if err != nil {
		return err
	}
	y, err := args.Float64("y")
	if err != nil {
		return err
	}
	p.X, p.Y = x, y
	return nil
}

type Velocity struct {
	Base
	DX, DY float64
}

func (Velocity) Name() string { return "velocity" }

func (v *Velocity) Init(args Args) error {
	dx, err := args.Float64("dx")
	if err != nil {
		return err
	}
	dy, err := args.Float64("dy")
	if err != nil {
		return err
	}
	v.DX, v.DY = dx, dy
	return nil
}

type Health struct {
	Base
	Value int
}

func (Health) Name() string { return "health" }

func (h *Health) Init(args Args) error {
	v, err := args.Int("value")
	if err != nil {
		return err
	}
	h.Value = v
	return nil
}

type Size struct {
	Base
	Width, Height float64
}

func (Size) Name() string { return "size" }

// Tag carries no data and has no initializer.
type Tag struct {
	Base
}

func (Tag) Name() string { return "tag" }

// Tracked counts how often its Destroy hook runs.
type Tracked struct {
	Base
	ID        int
	Destroyed *int `json:"-"`
}

func (Tracked) Name() string { return "tracked" }

func (t *Tracked) Destroy() {
	if t.Destroyed != nil {
		*t.Destroyed++
	}
}
