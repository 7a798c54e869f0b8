package graph

import "github.com/flowgraph/jdm/value"

// mergeFanIn combines a node's predecessor outputs into its input
// context: shallow overwrite in predecessor-topological order, except
// object-valued collisions which are merged recursively; arrays and
// scalars are replaced, never concatenated (spec §4.F, flagged as an
// explicit design choice in SPEC_FULL.md §9).
func mergeFanIn(outputs []value.Value) value.Value {
	if len(outputs) == 0 {
		return value.NewObject()
	}
	acc := outputs[0]
	for _, v := range outputs[1:] {
		acc = mergeTwo(acc, v)
	}
	return acc
}

func mergeTwo(a, b value.Value) value.Value {
	if a.Kind() != value.Object || b.Kind() != value.Object {
		return b
	}
	merged := a
	for _, k := range b.Keys() {
		bv := b.Field(k)
		av := a.Field(k)
		if av.Kind() == value.Object && bv.Kind() == value.Object {
			merged = merged.WithField(k, mergeTwo(av, bv))
		} else {
			merged = merged.WithField(k, bv)
		}
	}
	return merged
}
