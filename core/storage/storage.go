// Package storage maps 256-bit EVM storage slots onto the host chain's
// key/value service with Solidity-compatible layout rules, fronted by a
// write-through cache.
package storage

import (
	"sync"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	lru "github.com/hashicorp/golang-lru"
	"github.com/holiman/uint256"
	"github.com/inconshreveable/log15"
	"github.com/pkg/errors"

	"github.com/solbridge/solbridge/common"
	"github.com/solbridge/solbridge/crypto"
	"github.com/solbridge/solbridge/host"
	"github.com/solbridge/solbridge/params"
)

// ErrInvalidValueSize is returned when a raw value is not exactly one word,
// or when a persisted representation fails to decompress to one.
var ErrInvalidValueSize = errors.New("storage value must be exactly 32 bytes")

// slotKeyPrefix namespaces emulated-EVM slots inside the contract's host
// storage context. Part of the persisted key format; never change it.
var slotKeyPrefix = []byte("es")

// Config tunes one Store instance.
type Config struct {
	CacheSize       int           // bound on cached slot entries
	CacheTTL        time.Duration // idle time before a clean entry is droppable
	CleanupInterval time.Duration // background TTL sweep period
	Compression     bool          // trailing-zero compaction of host writes
}

// DefaultConfig returns the production cache policy.
func DefaultConfig() Config {
	return Config{
		CacheSize:       params.SlotCacheSize,
		CacheTTL:        5 * time.Minute,
		CleanupInterval: time.Minute,
		Compression:     true,
	}
}

type cacheEntry struct {
	value       common.Hash
	lastAccess  time.Time
	accessCount uint64
	dirty       bool // written this invocation; pinned in cache
}

func (e *cacheEntry) touch() {
	e.lastAccess = time.Now()
	e.accessCount++
}

// Store is one invocation's view of emulated contract storage. Writes go
// through to the host synchronously; the cache only ever absorbs reads.
type Store struct {
	mu  sync.Mutex
	db  host.Storage
	ctx host.StorageContext
	cfg Config

	cache    map[common.Hash]*cacheEntry
	keyCache *lru.Cache // derived host keys; pure function of the slot
	modified mapset.Set[common.Hash]

	reads, writes uint64

	stop    chan struct{}
	stopped sync.Once
	log     log15.Logger
}

// New builds a Store over the given host storage scope with DefaultConfig.
func New(db host.Storage, ctx host.StorageContext) *Store {
	return NewWithConfig(db, ctx, DefaultConfig())
}

// NewWithConfig builds a Store with an explicit cache policy.
func NewWithConfig(db host.Storage, ctx host.StorageContext, cfg Config) *Store {
	keyCache, _ := lru.New(params.SlotKeyCacheSize)
	return &Store{
		db:       db,
		ctx:      ctx,
		cfg:      cfg,
		cache:    make(map[common.Hash]*cacheEntry),
		keyCache: keyCache,
		modified: mapset.NewThreadUnsafeSet[common.Hash](),
		log:      log15.New("module", "storage"),
	}
}

// SlotKey derives the host storage key for an EVM slot:
// keccak256(prefix || pad32(slot)). Pure and stable across restarts; compat
// tooling recomputes it off-host.
func SlotKey(slot *uint256.Int) []byte {
	word := slot.Bytes32()
	return crypto.Keccak256(slotKeyPrefix, word[:])
}

func (s *Store) hostKey(slot *uint256.Int) []byte {
	id := common.Hash(slot.Bytes32())
	if key, ok := s.keyCache.Get(id); ok {
		return key.([]byte)
	}
	key := SlotKey(slot)
	s.keyCache.Add(id, key)
	return key
}

// Load reads one slot. Slots never written (or written back to zero) read as
// the zero word, never an error.
func (s *Store) Load(slot *uint256.Int) (common.Hash, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(slot)
}

func (s *Store) loadLocked(slot *uint256.Int) (common.Hash, error) {
	s.reads++
	id := common.Hash(slot.Bytes32())
	if entry, ok := s.cache[id]; ok {
		entry.touch()
		return entry.value, nil
	}
	raw, err := s.db.Get(s.ctx, s.hostKey(slot))
	if err != nil {
		return common.Hash{}, errors.Wrap(err, "host storage read")
	}
	value, err := decompressValue(raw)
	if err != nil {
		return common.Hash{}, err
	}
	// Negative caching included: absent keys populate a zero entry.
	s.insertLocked(id, value, false)
	return value, nil
}

// Store writes one slot, updating the cache and issuing the host write in
// the same call. An all-zero value deletes the host key instead.
func (s *Store) Store(slot *uint256.Int, value common.Hash) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.storeLocked(slot, value)
}

func (s *Store) storeLocked(slot *uint256.Int, value common.Hash) error {
	s.writes++
	key := s.hostKey(slot)
	if value.IsZero() {
		if err := s.db.Delete(s.ctx, key); err != nil {
			return errors.Wrap(err, "host storage delete")
		}
	} else {
		raw := value.Bytes()
		if s.cfg.Compression {
			raw = compressValue(value)
		}
		if err := s.db.Put(s.ctx, key, raw); err != nil {
			return errors.Wrap(err, "host storage write")
		}
	}
	id := common.Hash(slot.Bytes32())
	s.insertLocked(id, value, true)
	s.modified.Add(id)
	return nil
}

// insertLocked places or refreshes a cache entry, evicting the least
// recently used clean entry if the bound is hit. Dirty entries are pinned;
// when everything is dirty the cache temporarily runs over its bound.
func (s *Store) insertLocked(id common.Hash, value common.Hash, dirty bool) {
	if entry, ok := s.cache[id]; ok {
		entry.value = value
		entry.dirty = entry.dirty || dirty
		entry.touch()
		return
	}
	if len(s.cache) >= s.cfg.CacheSize {
		s.evictOneLocked()
	}
	entry := &cacheEntry{value: value, dirty: dirty}
	entry.touch()
	s.cache[id] = entry
}

func (s *Store) evictOneLocked() {
	var (
		victim common.Hash
		oldest time.Time
		found  bool
	)
	for id, entry := range s.cache {
		if entry.dirty {
			continue
		}
		if !found || entry.lastAccess.Before(oldest) {
			victim, oldest, found = id, entry.lastAccess, true
		}
	}
	if found {
		delete(s.cache, victim)
	}
}

// StoreBytes writes a raw word. Anything other than exactly 32 bytes is a
// programmer error.
func (s *Store) StoreBytes(slot *uint256.Int, value []byte) error {
	if len(value) != common.HashLength {
		return errors.Wrapf(ErrInvalidValueSize, "got %d bytes", len(value))
	}
	return s.Store(slot, common.BytesToHash(value))
}

// LoadInt reads a slot as an unsigned 256-bit integer.
func (s *Store) LoadInt(slot *uint256.Int) (*uint256.Int, error) {
	value, err := s.Load(slot)
	if err != nil {
		return nil, err
	}
	return value.Uint256(), nil
}

// StoreInt writes an unsigned 256-bit integer to a slot.
func (s *Store) StoreInt(slot, value *uint256.Int) error {
	return s.Store(slot, common.Uint256ToHash(value))
}

// BatchLoad reads several slots under one lock acquisition. The result is
// keyed by the slot's 32-byte word form.
func (s *Store) BatchLoad(slots []*uint256.Int) (map[common.Hash]common.Hash, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[common.Hash]common.Hash, len(slots))
	for _, slot := range slots {
		value, err := s.loadLocked(slot)
		if err != nil {
			return nil, err
		}
		out[common.Hash(slot.Bytes32())] = value
	}
	return out, nil
}

// BatchStore writes several slots under one lock acquisition. Write-through
// still happens per slot; a failed host write aborts the batch midway, which
// the host's transaction model rolls back with everything else.
func (s *Store) BatchStore(values map[common.Hash]common.Hash) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for slotWord, value := range values {
		if err := s.storeLocked(slotWord.Uint256(), value); err != nil {
			return err
		}
	}
	return nil
}

// ModifiedSlots returns the slots written since the last cache clear, for
// change auditing. Persistence never depends on it; writes already went
// through.
func (s *Store) ModifiedSlots() []common.Hash {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.modified.ToSlice()
}

// OpCounts reports reads and writes issued so far, for gas estimation.
func (s *Store) OpCounts() (reads, writes uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads, s.writes
}

// CachedEntryCount returns the live cache size.
func (s *Store) CachedEntryCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cache)
}

// ClearCache drops all cached entries and the modified-slot set. Host state
// is untouched; writes were synchronous.
func (s *Store) ClearCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = make(map[common.Hash]*cacheEntry)
	s.modified = mapset.NewThreadUnsafeSet[common.Hash]()
	s.reads, s.writes = 0, 0
}

// Close stops the maintenance loop if one was started. Idempotent.
func (s *Store) Close() {
	s.stopped.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.stop != nil {
			close(s.stop)
		}
	})
}
