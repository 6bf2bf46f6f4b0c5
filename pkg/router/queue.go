package router

// runQueue feeds the guards of queue to step in order, skipping nil entries.
// step returns false to stall the queue; the remaining guards then never run
// and done is not called. Otherwise done runs once after the last entry.
//
// Guards block, so the queue is a plain loop: no entry starts before the
// previous one has returned.
func runQueue(queue []Guard, step func(Guard) bool, done func()) {
	for _, guard := range queue {
		if guard == nil {
			continue
		}
		if !step(guard) {
			return
		}
	}
	done()
}

// concatGuards flattens guard groups into a single queue.
func concatGuards(groups ...[]Guard) []Guard {
	n := 0
	for _, g := range groups {
		n += len(g)
	}
	out := make([]Guard, 0, n)
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}
