package playback

import "github.com/samber/lo"

// newShuffleOrderLocked returns a uniformly random permutation of [0, n).
// Must be called with mu held; the random source is not safe for concurrent use.
func (c *Controller) newShuffleOrderLocked(n int) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	c.config.Rand.Shuffle(n, func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})
	return order
}

// syncShuffleCursorLocked points the shuffle cursor at the current index.
// Must be called with mu held.
func (c *Controller) syncShuffleCursorLocked() {
	if !c.shuffle {
		return
	}
	c.orderPos = max(lo.IndexOf(c.order, c.index), 0)
}
