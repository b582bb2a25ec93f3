package journal

import "fmt"

// Key schema:
//
//	ord:{id:020}                   → placed order, as last amended
//	trade:{unixnano:020}:{seq:020} → executed trade
//	cxl:{id:020}                   → cancellation
//
// Numbers are zero-padded so that byte order is numeric order.
const (
	prefixOrder  = "ord:"
	prefixTrade  = "trade:"
	prefixCancel = "cxl:"
)

func orderKey(id uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d", prefixOrder, id))
}

func tradeKey(unixNano int64, seq uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d:%020d", prefixTrade, unixNano, seq))
}

func cancelKey(id uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d", prefixCancel, id))
}

// keyUpperBound returns the exclusive upper bound for a prefix scan
func keyUpperBound(prefix []byte) []byte {
	bound := make([]byte, len(prefix))
	copy(bound, prefix)
	bound[len(bound)-1]++
	return bound
}
