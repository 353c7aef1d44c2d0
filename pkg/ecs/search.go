package ecs

import (
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/kelindar/bitmap"
	"github.com/rotisserie/eris"
)

// SearchParam contains parameters for a search query.
// The where clause is an expr language expression evaluated against each result, refer to its
// documentation for details: https://expr-lang.org/docs/getting-started.
type SearchParam struct {
	Find  []string    // Names of the component types an entity must have
	Match SearchMatch // How Find is matched, defaults to MatchContains
	Where string      // Optional expr language filter
}

// SearchMatch is the type of match to use for the search.
type SearchMatch string

const (
	// MatchExact matches entities that have exactly the specified components.
	MatchExact SearchMatch = "exact"
	// MatchContains matches entities that have the specified components and possibly others.
	MatchContains SearchMatch = "contains"
)

// validateAndGetFilter validates the search parameters and compiles the where clause. The program
// is nil if there is no where clause.
func (s *SearchParam) validateAndGetFilter() (*vm.Program, error) {
	if len(s.Find) == 0 {
		return nil, eris.New("component list cannot be empty")
	}

	if s.Match == "" {
		s.Match = MatchContains
	}
	if s.Match != MatchExact && s.Match != MatchContains {
		return nil, eris.Errorf("invalid `match` value: must be either '%s' or '%s'", MatchExact, MatchContains)
	}

	if len(s.Where) == 0 {
		return nil, nil //nolint:nilnil // no filter
	}

	filter, err := expr.Compile(s.Where, expr.AsBool())
	if err != nil {
		return nil, eris.Wrap(err, "failed to parse where clause")
	}
	return filter, nil
}

// Search returns one map per matching entity. Each map holds the entity id under "_id" and the
// value of every component the entity has among the searched types, keyed by component name.
// Results are ordered by entity id.
func (c *Container) Search(params SearchParam) ([]map[string]any, error) {
	c.checkOpen()

	filter, err := params.validateAndGetFilter()
	if err != nil {
		return nil, eris.Wrap(err, "invalid search params")
	}

	ids := make([]TypeID, 0, len(params.Find))
	var want bitmap.Bitmap
	for _, name := range params.Find {
		info, ok := types.lookup(name)
		if !ok {
			return nil, eris.Wrapf(ErrUnknownComponent, "component %s", name)
		}
		ids = append(ids, info.id)
		want.Set(info.id)
	}

	results := make([]map[string]any, 0)
	for _, owner := range IntersectionEntities(c, ids...) {
		if params.Match == MatchExact && !sameTypes(c.entities.types(owner), want) {
			continue
		}

		entityMap := c.toMap(owner, want)
		if filter == nil {
			results = append(results, entityMap)
			continue
		}

		output, err := expr.Run(filter, entityMap)
		if err != nil {
			return nil, eris.Wrap(err, "failed to run filter expression")
		}
		// expr can't check field types at compile time without an environment, so the result type
		// is only known here.
		isMatch, ok := output.(bool)
		if !ok {
			return nil, eris.New("invalid where clause")
		}
		if isMatch {
			results = append(results, entityMap)
		}
	}
	return results, nil
}

// toMap converts owner's components of the given types to a map. expr can't compare named integer
// types with literals, so the id is stored as a plain uint32.
func (c *Container) toMap(owner Entity, want bitmap.Bitmap) map[string]any {
	data := make(map[string]any, want.Count()+1)
	data["_id"] = uint32(owner)

	want.Range(func(id uint32) {
		b := c.buckets[id]
		row, ok := b.find(owner)
		if !ok {
			return
		}
		data[b.name()] = b.valueAt(row)
	})
	return data
}

func sameTypes(a, b bitmap.Bitmap) bool {
	if a.Count() != b.Count() {
		return false
	}
	a.And(b)
	return a.Count() == b.Count()
}
