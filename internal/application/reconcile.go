package application

// ReconcilePermissions computes the minimal junction mutations that
// turn the current permission set into the desired one:
//
//	toInsert = desired \ current
//	toDelete = current \ desired
//
// It is pure set arithmetic: duplicates in either input collapse, input
// order is irrelevant, and reconciling a set against itself yields two
// empty slices, which makes repeated application of the same desired
// set a no-op.
func ReconcilePermissions(current, desired []string) (toInsert, toDelete []string) {
	cur := make(map[string]struct{}, len(current))
	for _, id := range current {
		cur[id] = struct{}{}
	}
	des := make(map[string]struct{}, len(desired))
	for _, id := range desired {
		des[id] = struct{}{}
	}

	added := make(map[string]struct{}, len(desired))
	for _, id := range desired {
		if _, exists := cur[id]; exists {
			continue
		}
		if _, dup := added[id]; dup {
			continue
		}
		added[id] = struct{}{}
		toInsert = append(toInsert, id)
	}

	removed := make(map[string]struct{}, len(current))
	for _, id := range current {
		if _, wanted := des[id]; wanted {
			continue
		}
		if _, dup := removed[id]; dup {
			continue
		}
		removed[id] = struct{}{}
		toDelete = append(toDelete, id)
	}
	return toInsert, toDelete
}
