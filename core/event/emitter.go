// Package event converts contract events into the topics+data layout
// Ethereum tooling expects and dispatches them through the host chain's
// native notification primitive.
package event

import (
	"github.com/pkg/errors"

	"github.com/solbridge/solbridge/abi"
	"github.com/solbridge/solbridge/common"
	"github.com/solbridge/solbridge/crypto"
	"github.com/solbridge/solbridge/host"
	"github.com/solbridge/solbridge/params"
)

// ErrTooManyIndexed is returned when an emission carries more than four
// indexed values.
var ErrTooManyIndexed = errors.New("event: more than 4 indexed parameters")

// Log is one assembled event record. The emitter hands it to the host and
// retains nothing; retrieval is a chain-query concern outside this runtime.
type Log struct {
	Address   common.Address
	Topics    []common.Hash
	Data      []byte
	Signature string
}

// Emitter builds and dispatches logs for one contract.
type Emitter struct {
	notify  host.Notifier
	address common.Address

	emitted uint64
}

// NewEmitter returns an emitter bound to the contract at address.
func NewEmitter(notify host.Notifier, address common.Address) *Emitter {
	return &Emitter{notify: notify, address: address}
}

// Emit assembles the log for the given canonical event signature and hands
// it to the host notification primitive synchronously. No buffering and no
// retry: a failed emit fails the call, atomicity is the host's transaction
// model. The assembled log is returned for tracing.
func (e *Emitter) Emit(signature string, indexed []abi.Value, nonIndexed []abi.Value) (*Log, error) {
	if len(indexed) > params.MaxIndexedValues {
		return nil, errors.Wrapf(ErrTooManyIndexed, "got %d", len(indexed))
	}
	if _, _, err := abi.ParseSignature(signature); err != nil {
		return nil, err
	}

	topics := make([]common.Hash, 0, len(indexed)+1)
	topics = append(topics, crypto.Keccak256Hash([]byte(signature)))
	for i, v := range indexed {
		topic, err := indexedTopic(v)
		if err != nil {
			return nil, errors.Wrapf(err, "indexed parameter %d", i)
		}
		topics = append(topics, topic)
	}

	data, err := abi.EncodeParameters(nonIndexed)
	if err != nil {
		return nil, errors.Wrap(err, "event data")
	}

	log := &Log{
		Address:   e.address,
		Topics:    topics,
		Data:      data,
		Signature: signature,
	}
	payload := make([][]byte, 0, len(topics)+1)
	for _, t := range topics {
		payload = append(payload, t.Bytes())
	}
	payload = append(payload, data)
	if err := e.notify.Emit(signature, payload...); err != nil {
		return nil, errors.Wrap(err, "host notify")
	}
	e.emitted++
	return log, nil
}

// Emitted returns how many logs were dispatched, for gas estimation.
func (e *Emitter) Emitted() uint64 { return e.emitted }

// indexedTopic renders one indexed value as a 32-byte topic. Static values
// encode as their head word; dynamic values are keccak-hashed, so the
// original is not recoverable from the topic. Ethereum behaves the same
// way, and compatibility requires matching it.
func indexedTopic(v abi.Value) (common.Hash, error) {
	switch v.Kind() {
	case abi.KindString, abi.KindBytes:
		return crypto.Keccak256Hash(v.Bytes()), nil
	case abi.KindArray, abi.KindTuple:
		enc, err := abi.EncodeParameters(v.Elems())
		if err != nil {
			return common.Hash{}, err
		}
		return crypto.Keccak256Hash(enc), nil
	default:
		return abi.EncodeWord(v)
	}
}
