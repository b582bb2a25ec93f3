package book

import "container/heap"

// tickHeap tracks the distinct price levels of one side. With high set the
// largest tick is on top (bids); otherwise the smallest (asks).
// Use container/heap to manipulate it.
type tickHeap struct {
	ticks []int64
	high  bool
}

func (h *tickHeap) Len() int { return len(h.ticks) }

func (h *tickHeap) Less(i, j int) bool {
	if h.high {
		return h.ticks[i] > h.ticks[j]
	}
	return h.ticks[i] < h.ticks[j]
}

func (h *tickHeap) Swap(i, j int) { h.ticks[i], h.ticks[j] = h.ticks[j], h.ticks[i] }

func (h *tickHeap) Push(x any) { h.ticks = append(h.ticks, x.(int64)) }

func (h *tickHeap) Pop() any {
	n := len(h.ticks)
	x := h.ticks[n-1]
	h.ticks = h.ticks[:n-1]
	return x
}

func (h *tickHeap) peek() (int64, bool) {
	if len(h.ticks) == 0 {
		return 0, false
	}
	return h.ticks[0], true
}

// drop removes a level that just became empty. O(levels), which stays small
// next to the number of orders.
func (h *tickHeap) drop(tick int64) {
	for i, t := range h.ticks {
		if t == tick {
			heap.Remove(h, i)
			return
		}
	}
}
