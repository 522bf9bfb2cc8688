// Package host declares the native-chain primitive interfaces the
// compatibility runtime is layered on. Implementations are thin bindings to
// the host VM's syscall surface; all calls are synchronous and local.
package host

import (
	"github.com/holiman/uint256"

	"github.com/solbridge/solbridge/common"
)

// StorageContext identifies the storage scope of the executing contract, as
// handed out by the host VM. Opaque to this runtime.
type StorageContext []byte

// Storage is the host chain's persistent key/value service.
// Get returns (nil, nil) for an absent key; absence is not an error.
type Storage interface {
	Get(ctx StorageContext, key []byte) ([]byte, error)
	Put(ctx StorageContext, key, value []byte) error
	Delete(ctx StorageContext, key []byte) error
}

// Runtime exposes the host VM's execution-environment queries.
type Runtime interface {
	// CheckWitness reports whether addr has authorized the current
	// invocation (signed the transaction or is a calling contract).
	CheckWitness(addr common.Address) bool

	// CurrentTime returns the timestamp of the block being executed,
	// in seconds since the Unix epoch.
	CurrentTime() uint64

	// CurrentIndex returns the height of the block being executed.
	CurrentIndex() uint64

	// GasLeft returns the remaining execution budget in host units.
	GasLeft() uint64

	// CallingContext returns the script address of the immediate caller.
	// Fails at the top of the call stack (external invocation).
	CallingContext() (common.Address, error)

	// TransactionSigner returns the account that signed the enclosing
	// transaction.
	TransactionSigner() (common.Address, error)
}

// Notifier is the host chain's native notification primitive. Emissions are
// part of the current state transition: a failed emit fails the call.
type Notifier interface {
	Emit(eventName string, payload ...[]byte) error
}

// Contract exposes cross-contract invocation and native token settlement.
type Contract interface {
	Call(addr common.Address, method string, args [][]byte) ([]byte, error)
	NativeTokenBalance(addr common.Address) (*uint256.Int, error)
	NativeTokenTransfer(from, to common.Address, amount *uint256.Int) (bool, error)
}

// Host aggregates the full primitive surface a runtime instance consumes.
type Host interface {
	Storage
	Runtime
	Notifier
	Contract
}
