package memory

import "github.com/solbridge/solbridge/params"

// ExpansionCost returns the marginal gas of growing memory from its current
// high-water mark to cover newSize bytes, per the quadratic formula
//
//	cost(words) = 3*words + words²/512
//
// charged on the delta of totals. The manager itself never deducts gas; this
// feeds the caller's accounting.
func (m *Memory) ExpansionCost(newSize uint64) uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return expansionCost(m.size, newSize)
}

func expansionCost(current, target uint64) uint64 {
	if target <= current {
		return 0
	}
	return totalCost(toWords(target)) - totalCost(toWords(current))
}

func totalCost(words uint64) uint64 {
	return params.MemoryGasLinear*words + words*words/params.MemoryGasQuadDivisor
}
