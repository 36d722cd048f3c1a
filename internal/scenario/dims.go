package scenario

import "fmt"

// TopologicalOrder returns dims ordered so every computed dimension appears
// after all dimensions named in its declared Inputs. It fails with an error
// describing the cycle if one exists — §3 requires the engine reject a
// scenario with a dimensional cycle rather than loop or guess an order.
func TopologicalOrder(dims []DimensionDef) ([]DimensionDef, error) {
	byName := make(map[string]DimensionDef, len(dims))
	for _, d := range dims {
		byName[d.Name] = d
	}

	const (
		white = 0 // unvisited
		gray  = 1 // on the current DFS stack
		black = 2 // fully ordered
	)
	state := make(map[string]int, len(dims))
	var ordered []DimensionDef

	var visit func(name string, path []string) error
	visit = func(name string, path []string) error {
		switch state[name] {
		case black:
			return nil
		case gray:
			return fmt.Errorf("scenario: dimensional cycle detected: %v -> %s", path, name)
		}
		d, ok := byName[name]
		if !ok {
			// Input not declared as a dimension in this schema (e.g. a
			// signal/context/memory read) — nothing to order.
			return nil
		}
		state[name] = gray
		if d.Derivation.Source == SourceComputed {
			for _, input := range d.Derivation.Inputs {
				if err := visit(input, append(path, name)); err != nil {
					return err
				}
			}
		}
		state[name] = black
		ordered = append(ordered, d)
		return nil
	}

	for _, d := range dims {
		if err := visit(d.Name, nil); err != nil {
			return nil, err
		}
	}
	return ordered, nil
}
