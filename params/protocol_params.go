package params

const (
	// WordSize is the EVM word width in bytes. Every memory word, storage
	// value and ABI head slot is exactly this wide.
	WordSize = 32

	// MemoryPageSize is the allocation unit of the linear memory manager.
	MemoryPageSize = 4096

	// MaxMemorySize caps linear memory growth. Requests past the cap fail
	// with ErrMemoryLimitExceeded rather than truncating.
	MaxMemorySize = 64 * 1024 * 1024

	// MemoryGasLinear and MemoryGasQuadDivisor parameterize the EVM memory
	// expansion formula: cost(words) = MemoryGasLinear*words + words²/MemoryGasQuadDivisor.
	MemoryGasLinear      = 3
	MemoryGasQuadDivisor = 512
)

const (
	// SlotCacheSize bounds the storage mapper's value cache (entries).
	SlotCacheSize = 10000

	// SlotKeyCacheSize bounds the derived host-key LRU. Derivation is a pure
	// keccak, so this cache trades memory for hashing only.
	SlotKeyCacheSize = 4096

	// CompressionThreshold is the minimum count of trailing zero bytes for a
	// storage value to be written in compact [zeroCount][prefix] form.
	CompressionThreshold = WordSize / 2
)

// Coefficients of the best-effort gas estimator. These approximate averaged
// mainnet opcode costs; the host VM remains the only metering authority.
const (
	EstimateBaseGas         = 21000
	EstimateMemoryWordGas   = 3
	EstimateStorageReadGas  = 2100
	EstimateStorageWriteGas = 20000
	EstimateLogGas          = 1875
	EstimateCallGas         = 2600
)

// MaxIndexedValues caps the indexed parameters of one event. The emitted
// log carries indexedCount+1 topics, topic zero being the signature hash.
const MaxIndexedValues = 4
