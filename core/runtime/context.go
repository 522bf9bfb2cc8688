package runtime

import (
	"sync"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/solbridge/solbridge/common"
)

// BlockDifficulty is fixed: the host chain has no proof-of-work equivalent,
// so contracts reading block.difficulty observe a constant.
const BlockDifficulty = 1

// Msg mirrors Solidity's msg global for the current call.
type Msg struct {
	Sender common.Address
	Value  *uint256.Int
}

// Tx mirrors Solidity's tx global for the enclosing transaction.
type Tx struct {
	Origin   common.Address
	GasPrice *uint256.Int
}

// Block mirrors Solidity's block global, resolved once per invocation.
type Block struct {
	Timestamp  uint64
	Number     uint64
	Difficulty uint64
	GasLimit   uint64
}

// Contexts resolve lazily on first access and memoize for the call's
// lifetime, so the view stays consistent even if host state could change
// underneath. Each group has its own once.
type contextCache struct {
	msgOnce sync.Once
	msg     Msg
	msgErr  error

	txOnce sync.Once
	tx     Tx
	txErr  error

	blockOnce sync.Once
	block     Block
}

// Msg resolves the message context. Sender resolution order: the calling
// script context first (cross-contract call), then the transaction signer
// (top-level external call).
func (r *Runtime) Msg() (Msg, error) {
	r.ctx.msgOnce.Do(func() {
		sender, err := r.host.CallingContext()
		if err != nil {
			sender, err = r.host.TransactionSigner()
			if err != nil {
				r.ctx.msgErr = errors.Wrap(err, "resolve msg.sender")
				return
			}
		}
		value := r.cfg.Value
		if value == nil {
			value = new(uint256.Int)
		}
		r.ctx.msg = Msg{Sender: sender, Value: value}
	})
	return r.ctx.msg, r.ctx.msgErr
}

// Tx resolves the transaction context.
func (r *Runtime) Tx() (Tx, error) {
	r.ctx.txOnce.Do(func() {
		origin, err := r.host.TransactionSigner()
		if err != nil {
			r.ctx.txErr = errors.Wrap(err, "resolve tx.origin")
			return
		}
		gasPrice := r.cfg.GasPrice
		if gasPrice == nil {
			gasPrice = new(uint256.Int)
		}
		r.ctx.tx = Tx{Origin: origin, GasPrice: gasPrice}
	})
	return r.ctx.tx, r.ctx.txErr
}

// Block resolves the block context. Never fails: every field has a defined
// fallback on a chain that lacks the notion.
func (r *Runtime) Block() Block {
	r.ctx.blockOnce.Do(func() {
		r.ctx.block = Block{
			Timestamp:  r.host.CurrentTime(),
			Number:     r.host.CurrentIndex(),
			Difficulty: BlockDifficulty,
			GasLimit:   r.cfg.BlockGasLimit,
		}
	})
	return r.ctx.block
}
