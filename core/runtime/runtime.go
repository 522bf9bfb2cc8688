// Package runtime is the facade a compiled contract links against. It owns
// one invocation's memory, storage and event subsystems, exposes the EVM
// global views (msg, tx, block) computed from host primitives, and carries
// the require/revert/assert surface.
package runtime

import (
	"sync/atomic"

	"github.com/holiman/uint256"
	"github.com/inconshreveable/log15"
	"github.com/pkg/errors"

	"github.com/solbridge/solbridge/abi"
	"github.com/solbridge/solbridge/common"
	"github.com/solbridge/solbridge/core/event"
	"github.com/solbridge/solbridge/core/memory"
	"github.com/solbridge/solbridge/core/storage"
	"github.com/solbridge/solbridge/host"
)

// Config parameterizes one invocation. Zero-value fields fall back to the
// subsystem defaults.
type Config struct {
	// Self is the executing contract's address.
	Self common.Address

	// StorageContext scopes the contract's host storage.
	StorageContext host.StorageContext

	// Value is the native amount attached to the call (msg.value).
	Value *uint256.Int

	// GasPrice feeds tx.gasprice; zero on chains without a fee market.
	GasPrice *uint256.Int

	// BlockGasLimit feeds block.gaslimit.
	BlockGasLimit uint64

	// Memory and Storage override subsystem tuning when non-nil.
	Memory  *memory.Config
	Storage *storage.Config

	// BackgroundMaintenance starts the subsystems' periodic GC/TTL loops.
	// When false the embedder drives maintenance explicitly through
	// Memory().CollectGarbage and Storage().RunCleanup.
	BackgroundMaintenance bool
}

// Runtime is one contract invocation's execution facade. Per-invocation by
// construction: never share an instance across concurrent calls.
type Runtime struct {
	cfg  Config
	host host.Host

	mem    *memory.Memory
	store  *storage.Store
	events *event.Emitter

	ctx       contextCache
	calls     uint64
	destroyed atomic.Bool
	log       log15.Logger
}

// New assembles a runtime over the given host bindings.
func New(h host.Host, cfg Config) *Runtime {
	memCfg := memory.DefaultConfig()
	if cfg.Memory != nil {
		memCfg = *cfg.Memory
	}
	storeCfg := storage.DefaultConfig()
	if cfg.Storage != nil {
		storeCfg = *cfg.Storage
	}
	r := &Runtime{
		cfg:    cfg,
		host:   h,
		mem:    memory.NewWithConfig(memCfg),
		store:  storage.NewWithConfig(h, cfg.StorageContext, storeCfg),
		events: event.NewEmitter(h, cfg.Self),
		log:    log15.New("module", "runtime", "self", cfg.Self),
	}
	if cfg.BackgroundMaintenance {
		r.mem.StartMaintenance()
		r.store.StartMaintenance()
	}
	return r
}

// Memory returns the invocation's linear memory.
func (r *Runtime) Memory() *memory.Memory { return r.mem }

// Storage returns the invocation's slot mapper.
func (r *Runtime) Storage() *storage.Store { return r.store }

// Events returns the invocation's log emitter.
func (r *Runtime) Events() *event.Emitter { return r.events }

// Self returns the executing contract's address.
func (r *Runtime) Self() common.Address { return r.cfg.Self }

// Require returns nil when condition holds, otherwise the revert carrying
// message. The contract propagates it up; nothing is thrown.
func (r *Runtime) Require(condition bool, message string) error {
	if condition {
		return nil
	}
	return &RevertError{Reason: message}
}

// Revert unconditionally fails the call with reason.
func (r *Runtime) Revert(reason string) error {
	return &RevertError{Reason: reason}
}

// Assert returns ErrInvariantViolated when condition fails: programmer
// error, distinct from user-input reverts, no recovery expected.
func (r *Runtime) Assert(condition bool) error {
	if condition {
		return nil
	}
	return ErrInvariantViolated
}

// CheckWitness reports whether addr authorized the current invocation.
func (r *Runtime) CheckWitness(addr common.Address) bool {
	return r.host.CheckWitness(addr)
}

// GasLeft returns the remaining host execution budget.
func (r *Runtime) GasLeft() uint64 { return r.host.GasLeft() }

// Balance returns addr's native token balance.
func (r *Runtime) Balance(addr common.Address) (*uint256.Int, error) {
	return r.host.NativeTokenBalance(addr)
}

// Transfer moves native tokens from the executing contract to recipient.
// Graceful by contract: host failures and insufficient balance both report
// false rather than propagating.
func (r *Runtime) Transfer(to common.Address, amount *uint256.Int) bool {
	ok, err := r.host.NativeTokenTransfer(r.cfg.Self, to, amount)
	if err != nil {
		r.log.Debug("native transfer failed", "to", to, "err", err)
		return false
	}
	return ok
}

// SelfDestruct sends the contract's remaining native balance to recipient
// and returns the terminal DestroyedError. The caller must stop executing;
// subsequent operations on this runtime are undefined.
func (r *Runtime) SelfDestruct(recipient common.Address) error {
	balance, err := r.host.NativeTokenBalance(r.cfg.Self)
	if err != nil {
		return errors.Wrap(err, "self-destruct balance query")
	}
	if !balance.IsZero() {
		ok, err := r.host.NativeTokenTransfer(r.cfg.Self, recipient, balance)
		if err != nil {
			return errors.Wrap(err, "self-destruct sweep")
		}
		if !ok {
			return errors.New("self-destruct sweep refused")
		}
	}
	r.destroyed.Store(true)
	return &DestroyedError{Beneficiary: recipient}
}

// Destroyed reports whether SelfDestruct completed on this runtime.
func (r *Runtime) Destroyed() bool { return r.destroyed.Load() }

// Call invokes a method on another contract: calldata is built with the ABI
// codec and handed to the host's invocation primitive.
func (r *Runtime) Call(addr common.Address, signature string, args []abi.Value) ([]byte, error) {
	calldata, err := abi.EncodeCall(signature, args)
	if err != nil {
		return nil, err
	}
	name, _, err := abi.ParseSignature(signature)
	if err != nil {
		return nil, err
	}
	atomic.AddUint64(&r.calls, 1)
	ret, err := r.host.Call(addr, name, [][]byte{calldata})
	if err != nil {
		return nil, errors.Wrapf(err, "call %s on %s", signature, addr)
	}
	return ret, nil
}

// CallAndDecode invokes a method and decodes its return data against the
// declared types.
func (r *Runtime) CallAndDecode(addr common.Address, signature string, returns []abi.Type, args []abi.Value) ([]abi.Value, error) {
	ret, err := r.Call(addr, signature, args)
	if err != nil {
		return nil, err
	}
	return abi.DecodeParameters(returns, ret)
}

// Dispose tears the invocation down: background loops stop and caches are
// released. Mandatory on every invocation boundary in a long-lived host
// process; leaked tickers accumulate otherwise.
func (r *Runtime) Dispose() {
	r.mem.Close()
	r.store.Close()
	r.mem.Clear()
	r.store.ClearCache()
}
