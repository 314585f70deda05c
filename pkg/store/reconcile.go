package store

// staleIDs returns the ids present in local but absent from fresh. Both
// slices must be sorted ascending; the scan is a linear merge, so reconciling
// thousands of entities stays cheap.
func staleIDs(local, fresh []int64) []int64 {
	var stale []int64
	i, j := 0, 0
	for i < len(local) {
		switch {
		case j >= len(fresh) || local[i] < fresh[j]:
			stale = append(stale, local[i])
			i++
		case local[i] == fresh[j]:
			i++
			j++
		default: // local[i] > fresh[j]
			j++
		}
	}
	return stale
}
