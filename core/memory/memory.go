// Package memory implements the byte-addressable scratch memory contracts
// compiled for the EVM expect: zero-filled on first touch, grown implicitly
// by access, priced by the quadratic expansion formula.
//
// Memory is backed by fixed-size pages allocated lazily, so a sparse store at
// a high offset does not commit the whole range. A garbage collector reclaims
// pages that fell beyond the high-water mark or went cold.
package memory

import (
	"errors"
	"sync"
	"time"

	"github.com/holiman/uint256"
	"github.com/inconshreveable/log15"

	"github.com/solbridge/solbridge/common"
	"github.com/solbridge/solbridge/params"
)

// ErrMemoryLimitExceeded is returned when an access would grow memory past
// the configured ceiling. The request is never truncated.
var ErrMemoryLimitExceeded = errors.New("memory limit exceeded")

// Config tunes one memory instance. The zero value is not usable; start from
// DefaultConfig.
type Config struct {
	MaxSize     uint64        // hard growth ceiling in bytes
	PageTTL     time.Duration // idle time before a page counts as cold
	AccessFloor uint64        // pages at or above this access count are never cold
	GCInterval  time.Duration // background collection period
}

// DefaultConfig matches mainnet-compatible limits.
func DefaultConfig() Config {
	return Config{
		MaxSize:     params.MaxMemorySize,
		PageTTL:     30 * time.Second,
		AccessFloor: 16,
		GCInterval:  10 * time.Second,
	}
}

type page struct {
	data        []byte
	lastAccess  time.Time
	accessCount uint64
}

func (p *page) touch() {
	p.lastAccess = time.Now()
	p.accessCount++
}

func (p *page) isZero() bool {
	for _, b := range p.data {
		if b != 0 {
			return false
		}
	}
	return true
}

// Memory is one invocation's linear memory. Not shared across invocations;
// safe for concurrent use by the owning call and its maintenance goroutine.
type Memory struct {
	mu    sync.RWMutex
	cfg   Config
	pages map[uint64]*page
	size  uint64 // high-water mark, always a multiple of the word size

	stop    chan struct{}
	stopped sync.Once
	log     log15.Logger
}

// New returns an empty memory with DefaultConfig.
func New() *Memory {
	return NewWithConfig(DefaultConfig())
}

// NewWithConfig returns an empty memory with the given limits.
func NewWithConfig(cfg Config) *Memory {
	return &Memory{
		cfg:   cfg,
		pages: make(map[uint64]*page),
		log:   log15.New("module", "memory"),
	}
}

// Len returns the current high-water mark in bytes.
func (m *Memory) Len() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.size
}

// Words returns the high-water mark in 32-byte words, the unit the gas
// estimator charges on.
func (m *Memory) Words() uint64 {
	return toWords(m.Len())
}

// Resize grows memory to cover at least size bytes, rounded up to a whole
// word. Shrinking is not performed here; see Shrink.
func (m *Memory) Resize(size uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.expand(size)
}

// expand grows the high-water mark; callers hold the write lock. Pages are
// not allocated here, only on first write, so zero-touch growth stays cheap.
func (m *Memory) expand(size uint64) error {
	if size <= m.size {
		return nil
	}
	if size > m.cfg.MaxSize {
		return ErrMemoryLimitExceeded
	}
	m.size = toWords(size) * params.WordSize
	return nil
}

// Set writes data starting at offset, growing memory to cover the access.
func (m *Memory) Set(offset uint64, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	end, err := accessEnd(offset, uint64(len(data)), m.cfg.MaxSize)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.expand(end); err != nil {
		return err
	}
	m.write(offset, data)
	return nil
}

// Set32 writes val as a big-endian 32-byte word at offset.
func (m *Memory) Set32(offset uint64, val *uint256.Int) error {
	word := val.Bytes32()
	return m.Set(offset, word[:])
}

// SetWord writes a raw 32-byte word at offset.
func (m *Memory) SetWord(offset uint64, word common.Hash) error {
	return m.Set(offset, word[:])
}

// Get32 reads the 32-byte word at offset. Reads past the high-water mark
// grow memory and yield zero, never an error short of the size ceiling.
func (m *Memory) Get32(offset uint64) (*uint256.Int, error) {
	word, err := m.GetWord(offset)
	if err != nil {
		return nil, err
	}
	return new(uint256.Int).SetBytes32(word[:]), nil
}

// GetWord reads the raw 32-byte word at offset.
func (m *Memory) GetWord(offset uint64) (common.Hash, error) {
	var word common.Hash
	end, err := accessEnd(offset, params.WordSize, m.cfg.MaxSize)
	if err != nil {
		return word, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.expand(end); err != nil {
		return word, err
	}
	m.read(word[:], offset)
	return word, nil
}

// GetCopy reads length bytes starting at offset into a fresh slice.
func (m *Memory) GetCopy(offset, length uint64) ([]byte, error) {
	if length == 0 {
		return nil, nil
	}
	end, err := accessEnd(offset, length, m.cfg.MaxSize)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.expand(end); err != nil {
		return nil, err
	}
	buf := make([]byte, length)
	m.read(buf, offset)
	return buf, nil
}

// write copies data into the covering pages, allocating them as needed.
// Callers hold the write lock and have already grown the high-water mark.
func (m *Memory) write(offset uint64, data []byte) {
	for len(data) > 0 {
		idx := offset / params.MemoryPageSize
		pgOff := offset % params.MemoryPageSize
		p, ok := m.pages[idx]
		if !ok {
			p = &page{data: make([]byte, params.MemoryPageSize)}
			m.pages[idx] = p
		}
		n := copy(p.data[pgOff:], data)
		p.touch()
		data = data[n:]
		offset += uint64(n)
	}
}

// read fills buf from the covering pages; missing pages read as zero.
func (m *Memory) read(buf []byte, offset uint64) {
	for len(buf) > 0 {
		idx := offset / params.MemoryPageSize
		pgOff := offset % params.MemoryPageSize
		span := params.MemoryPageSize - pgOff
		if span > uint64(len(buf)) {
			span = uint64(len(buf))
		}
		if p, ok := m.pages[idx]; ok {
			copy(buf[:span], p.data[pgOff:pgOff+span])
			p.touch()
		} else {
			for i := uint64(0); i < span; i++ {
				buf[i] = 0
			}
		}
		buf = buf[span:]
		offset += span
	}
}

// Shrink lowers the high-water mark, logically discarding everything above
// newSize. Dropped ranges become collectable; a later read regrows them as
// zero fill.
func (m *Memory) Shrink(newSize uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	newSize = toWords(newSize) * params.WordSize
	if newSize < m.size {
		m.size = newSize
	}
}

// Clear resets all state. Testing and invocation-reset use only.
func (m *Memory) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pages = make(map[uint64]*page)
	m.size = 0
}

// Close stops the maintenance loop if one was started. Idempotent.
func (m *Memory) Close() {
	m.stopped.Do(func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.stop != nil {
			close(m.stop)
		}
	})
}

func toWords(size uint64) uint64 {
	return (size + params.WordSize - 1) / params.WordSize
}

// accessEnd bounds-checks offset+length without overflow and returns the
// exclusive end of the access.
func accessEnd(offset, length, max uint64) (uint64, error) {
	if offset > max || length > max-offset {
		return 0, ErrMemoryLimitExceeded
	}
	return offset + length, nil
}
