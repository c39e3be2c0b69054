package thumbnail

// splitWindow partitions the pages of the half-open window [start, end)
// into a priority set, the pages within radius of center, and the
// remaining secondary set. Both sets are ascending, so the combined
// submission order is deterministic for identical inputs. Page numbers are
// 1-based.
func splitWindow(center, start, end, radius int) (priority, secondary []int) {
	if start < 1 {
		start = 1
	}
	if end <= start {
		return nil, nil
	}

	lo := center - radius
	if lo < start {
		lo = start
	}
	hi := center + radius
	if hi > end-1 {
		hi = end - 1
	}

	for p := lo; p <= hi; p++ {
		priority = append(priority, p)
	}
	for p := start; p < end; p++ {
		if p < lo || p > hi {
			secondary = append(secondary, p)
		}
	}
	return priority, secondary
}
