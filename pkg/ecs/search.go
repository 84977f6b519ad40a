package ecs

import (
	"slices"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/rotisserie/eris"
)

// SearchParam selects entities by serialization tag. Where is an optional expr-lang boolean
// expression evaluated against each candidate, see https://expr-lang.org/docs/getting-started.
// Component values are exposed under their tag with their Go field names, e.g. `position.X > 0`.
type SearchParam struct {
	Find  []string    // Component tags the entity must have
	Match SearchMatch // How Find is matched, defaults to MatchContains
	Where string      // Optional filter expression
}

// SearchMatch is the type of match to use for the search.
type SearchMatch string

const (
	// MatchExact matches entities whose registered components are exactly the ones in Find.
	MatchExact SearchMatch = "exact"
	// MatchContains matches entities that have every component in Find and possibly others.
	MatchContains SearchMatch = "contains"
)

// compile validates the parameters and compiles the where clause. A nil program means no filter.
func (p *SearchParam) compile() (*vm.Program, error) {
	if len(p.Find) == 0 {
		return nil, eris.New("component list cannot be empty")
	}

	for i, tag := range p.Find {
		if slices.Contains(p.Find[i+1:], tag) {
			return nil, eris.Errorf("component %s is listed twice", tag)
		}
	}

	switch p.Match {
	case "", MatchContains, MatchExact:
	default:
		return nil, eris.Errorf("invalid `match` value: must be either '%s' or '%s'", MatchExact, MatchContains)
	}

	if p.Where == "" {
		return nil, nil //nolint:nilnil // no filter
	}

	program, err := expr.Compile(p.Where, expr.AsBool())
	if err != nil {
		return nil, eris.Wrap(err, "failed to parse where clause")
	}
	return program, nil
}

// Search returns one map per matching entity, keyed by component tag, plus "_id" and "_version"
// for the entity handle. Results are in ascending entity ID order.
func (w *World) Search(params SearchParam) ([]map[string]any, error) {
	filter, err := params.compile()
	if err != nil {
		return nil, eris.Wrap(err, "invalid search params")
	}

	accesses := make([]Access, len(params.Find))
	for i, tag := range params.Find {
		typ, ok := w.serializers.components.types[tag]
		if !ok {
			return nil, eris.Wrapf(ErrTagNotRegistered, "component %s", tag)
		}
		accesses[i] = Access{typ: typ}
	}

	query := NewQuery(w, accesses...)
	sets, ok := query.resolve()
	if !ok {
		return make([]map[string]any, 0), nil
	}

	results := make([]map[string]any, 0)
	query.each(sets, func(e Entity) bool {
		if params.Match == MatchExact && w.countTagged(e) != len(params.Find) {
			return true
		}

		entityMap := w.toMap(e, params.Find)
		if filter == nil {
			results = append(results, entityMap)
			return true
		}

		// The entity map is the environment, so the program can reach the component data.
		output, innerErr := expr.Run(filter, entityMap)
		if innerErr != nil {
			err = eris.Wrap(innerErr, "failed to run filter expression")
			return false
		}
		// Compile can't type-check field access without an environment, so a non-bool result is
		// only caught here.
		isMatch, ok := output.(bool)
		if !ok {
			err = eris.New("invalid where clause")
			return false
		}
		if isMatch {
			results = append(results, entityMap)
		}
		return true
	})
	if err != nil {
		return nil, err
	}

	return results, nil
}

// countTagged returns how many tagged component sets hold e.
func (w *World) countTagged(e Entity) int {
	n := 0
	for _, typ := range w.serializers.components.types {
		if s, ok := w.components.get(typ); ok && s.has(e) {
			n++
		}
	}
	return n
}

// toMap converts e to a map of its components under the given tags.
func (w *World) toMap(e Entity, tags []string) map[string]any {
	data := make(map[string]any, len(tags)+2)

	// Plain ints so expressions can compare against literals.
	data["_id"] = int(e.ID)
	data["_version"] = int(e.Version)

	for _, tag := range tags {
		s, _ := w.components.get(w.serializers.components.types[tag])
		if value, ok := s.value(e); ok {
			data[tag] = value
		}
	}
	return data
}
