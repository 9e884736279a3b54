package formula

import (
	"fmt"
	"sort"
)

// Order computes a deterministic evaluation order for a set of formulas.
// deps maps each formula key to the source columns it consumes; a source
// naming another formula key is a chaining dependency and forces that
// formula to be evaluated first. Sources that are plain dataset columns
// are ignored. A dependency cycle is an error.
func Order(deps map[string][]string) ([]string, error) {
	keys := make([]string, 0, len(deps))
	for k := range deps {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(deps))
	order := make([]string, 0, len(deps))

	var visit func(key string, path []string) error
	visit = func(key string, path []string) error {
		switch state[key] {
		case done:
			return nil
		case visiting:
			return fmt.Errorf("formula dependency cycle: %s", cyclePath(path, key))
		}
		state[key] = visiting
		for _, src := range sortedSources(deps[key]) {
			if _, isFormula := deps[src]; isFormula && src != key {
				if err := visit(src, append(path, key)); err != nil {
					return err
				}
			} else if src == key {
				return fmt.Errorf("formula dependency cycle: %s -> %s", key, key)
			}
		}
		state[key] = done
		order = append(order, key)
		return nil
	}

	for _, k := range keys {
		if err := visit(k, nil); err != nil {
			return nil, err
		}
	}
	return order, nil
}

func sortedSources(srcs []string) []string {
	out := make([]string, len(srcs))
	copy(out, srcs)
	sort.Strings(out)
	return out
}

func cyclePath(path []string, key string) string {
	s := ""
	for _, p := range path {
		s += p + " -> "
	}
	return s + key
}
