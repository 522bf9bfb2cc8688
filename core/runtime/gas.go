package runtime

import (
	"sync/atomic"

	"github.com/solbridge/solbridge/params"
)

// EstimateGasUsed is a best-effort heuristic: fixed overhead plus averaged
// per-operation costs over the subsystems' counters. An approximation for
// fee hints and dashboards, never a metering oracle; hard limits are the
// host VM's job and this figure must not enforce them.
func (r *Runtime) EstimateGasUsed() uint64 {
	reads, writes := r.store.OpCounts()
	gas := uint64(params.EstimateBaseGas)
	gas += r.mem.Words() * params.EstimateMemoryWordGas
	gas += reads * params.EstimateStorageReadGas
	gas += writes * params.EstimateStorageWriteGas
	gas += r.events.Emitted() * params.EstimateLogGas
	gas += atomic.LoadUint64(&r.calls) * params.EstimateCallGas
	return gas
}
