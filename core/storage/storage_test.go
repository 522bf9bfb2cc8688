package storage

import (
	"math/rand"
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/solbridge/solbridge/common"
	"github.com/solbridge/solbridge/crypto"
	"github.com/solbridge/solbridge/host"
)

func newTestStore(t *testing.T) (*Store, *host.MockHost) {
	t.Helper()
	mock := host.NewMockHost()
	s := New(mock, host.StorageContext("contract-a"))
	t.Cleanup(s.Close)
	return s, mock
}

func TestZeroDefault(t *testing.T) {
	s, _ := newTestStore(t)

	value, err := s.Load(uint256.NewInt(42))
	require.NoError(t, err)
	require.Equal(t, common.Hash{}, value)
}

func TestStoreLoadRoundTrip(t *testing.T) {
	s, _ := newTestStore(t)
	slot := uint256.NewInt(7)
	value := common.HexToHash("0x00000000000000000000000000000000000000000000000000000000000003e8")

	require.NoError(t, s.Store(slot, value))

	got, err := s.Load(slot)
	require.NoError(t, err)
	require.Equal(t, value, got)

	// Survives a cache clear: the write went through to the host.
	s.ClearCache()
	got, err = s.Load(slot)
	require.NoError(t, err)
	require.Equal(t, value, got)
}

func TestZeroValueDeletesHostKey(t *testing.T) {
	s, mock := newTestStore(t)
	slot := uint256.NewInt(1)

	require.NoError(t, s.Store(slot, common.HexToHash("0xff")))
	require.Equal(t, 1, mock.StoredKeyCount())

	require.NoError(t, s.Store(slot, common.Hash{}))
	require.Zero(t, mock.StoredKeyCount(), "zero store must delete, not write zeroes")

	// Indistinguishable from a slot never written.
	s.ClearCache()
	got, err := s.Load(slot)
	require.NoError(t, err)
	require.Equal(t, common.Hash{}, got)
}

func TestLoadStoreInt(t *testing.T) {
	s, _ := newTestStore(t)
	slot := uint256.NewInt(3)

	require.NoError(t, s.StoreInt(slot, uint256.NewInt(123456789)))
	got, err := s.LoadInt(slot)
	require.NoError(t, err)
	require.Equal(t, uint256.NewInt(123456789), got)
}

func TestStoreBytesSize(t *testing.T) {
	s, _ := newTestStore(t)

	err := s.StoreBytes(uint256.NewInt(0), []byte{1, 2, 3})
	require.ErrorIs(t, err, ErrInvalidValueSize)

	require.NoError(t, s.StoreBytes(uint256.NewInt(0), make([]byte, 32)))
}

func TestSlotKeyStable(t *testing.T) {
	slot := uint256.NewInt(99)
	require.Equal(t, SlotKey(slot), SlotKey(slot))

	word := slot.Bytes32()
	require.Equal(t, crypto.Keccak256([]byte("es"), word[:]), SlotKey(slot))
}

func TestArrayElementSlot(t *testing.T) {
	base := uint256.NewInt(2)
	word := base.Bytes32()
	root := new(uint256.Int).SetBytes(crypto.Keccak256(word[:]))

	require.Equal(t, root, ArrayElementSlot(base, 0))
	require.Equal(t, new(uint256.Int).AddUint64(root, 5), ArrayElementSlot(base, 5))

	// Pure: identical inputs, identical outputs.
	require.Equal(t, ArrayElementSlot(base, 5), ArrayElementSlot(base, 5))
}

func TestMappingElementSlot(t *testing.T) {
	base := uint256.NewInt(5)
	key := common.HexToHash("0x01")

	baseWord := base.Bytes32()
	want := new(uint256.Int).SetBytes(crypto.Keccak256(key[:], baseWord[:]))
	require.Equal(t, want, MappingElementSlot(base, key))
}

func TestSlotDerivationCollisions(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	seen := make(map[common.Hash]struct{}, 20000)

	for i := 0; i < 10000; i++ {
		base := uint256.NewInt(rng.Uint64())
		slot := ArrayElementSlot(base, rng.Uint64()%1000)
		id := common.Hash(slot.Bytes32())
		_, dup := seen[id]
		require.False(t, dup, "array slot collision at pair %d", i)
		seen[id] = struct{}{}
	}
	for i := 0; i < 10000; i++ {
		var key common.Hash
		rng.Read(key[:])
		slot := MappingElementSlot(uint256.NewInt(rng.Uint64()), key)
		id := common.Hash(slot.Bytes32())
		_, dup := seen[id]
		require.False(t, dup, "mapping slot collision at pair %d", i)
		seen[id] = struct{}{}
	}
}

func TestBatchLoadStore(t *testing.T) {
	s, _ := newTestStore(t)

	values := map[common.Hash]common.Hash{
		common.Hash(uint256.NewInt(1).Bytes32()): common.HexToHash("0x0a"),
		common.Hash(uint256.NewInt(2).Bytes32()): common.HexToHash("0x0b"),
		common.Hash(uint256.NewInt(3).Bytes32()): common.HexToHash("0x0c"),
	}
	require.NoError(t, s.BatchStore(values))

	got, err := s.BatchLoad([]*uint256.Int{uint256.NewInt(1), uint256.NewInt(2), uint256.NewInt(3)})
	require.NoError(t, err)
	require.Equal(t, values, got)
}

func TestModifiedSlots(t *testing.T) {
	s, _ := newTestStore(t)

	require.NoError(t, s.Store(uint256.NewInt(10), common.HexToHash("0x01")))
	require.NoError(t, s.Store(uint256.NewInt(20), common.HexToHash("0x02")))
	_, err := s.Load(uint256.NewInt(30)) // reads don't count
	require.NoError(t, err)

	modified := s.ModifiedSlots()
	require.Len(t, modified, 2)
	require.ElementsMatch(t, []common.Hash{
		common.Hash(uint256.NewInt(10).Bytes32()),
		common.Hash(uint256.NewInt(20).Bytes32()),
	}, modified)

	s.ClearCache()
	require.Empty(t, s.ModifiedSlots())
}

func TestCacheEvictionPrefersClean(t *testing.T) {
	mock := host.NewMockHost()
	cfg := DefaultConfig()
	cfg.CacheSize = 4
	s := NewWithConfig(mock, host.StorageContext("c"), cfg)
	defer s.Close()

	// Two dirty entries, then fill with clean reads past the bound.
	require.NoError(t, s.Store(uint256.NewInt(1), common.HexToHash("0x01")))
	require.NoError(t, s.Store(uint256.NewInt(2), common.HexToHash("0x02")))
	for i := uint64(100); i < 110; i++ {
		_, err := s.Load(uint256.NewInt(i))
		require.NoError(t, err)
	}
	require.LessOrEqual(t, s.CachedEntryCount(), cfg.CacheSize)

	// Dirty entries survived every eviction round.
	modified := s.ModifiedSlots()
	require.Len(t, modified, 2)
	got, err := s.Load(uint256.NewInt(1))
	require.NoError(t, err)
	require.Equal(t, common.HexToHash("0x01"), got)
}

func TestCleanupSkipsDirty(t *testing.T) {
	mock := host.NewMockHost()
	cfg := DefaultConfig()
	cfg.CacheTTL = time.Nanosecond
	s := NewWithConfig(mock, host.StorageContext("c"), cfg)
	defer s.Close()

	require.NoError(t, s.Store(uint256.NewInt(1), common.HexToHash("0x01")))
	_, err := s.Load(uint256.NewInt(2))
	require.NoError(t, err)
	time.Sleep(time.Millisecond)

	require.Equal(t, 1, s.RunCleanup(), "only the clean entry expires")
	require.Equal(t, 1, s.CachedEntryCount())
}

func TestCompressionRoundTrip(t *testing.T) {
	tests := []common.Hash{
		{},
		common.HexToHash("0x01"),
		common.HexToHash("0xff00000000000000000000000000000000000000000000000000000000000000"),
		common.HexToHash("0xdeadbeef00000000000000000000000000000000000000000000000000000000"),
		common.HexToHash("0x0000000000000000000000000000000000000000000000000000000000000001"),
		common.HexToHash("0x1111111111111111111111111111111111111111111111111111111111111111"),
	}
	for _, value := range tests {
		raw := compressValue(value)
		got, err := decompressValue(raw)
		require.NoError(t, err)
		require.Equal(t, value, got, "value %s", value)
	}

	// Left-aligned short values must actually shrink.
	require.Less(t, len(compressValue(common.HexToHash("0xff00000000000000000000000000000000000000000000000000000000000000"))), 32)

	// Readers accept raw words even when compression is enabled.
	got, err := decompressValue(common.HexToHash("0x0102").Bytes())
	require.NoError(t, err)
	require.Equal(t, common.HexToHash("0x0102"), got)
}

func TestDecompressCorrupt(t *testing.T) {
	_, err := decompressValue(make([]byte, 40))
	require.ErrorIs(t, err, ErrInvalidValueSize)

	_, err = decompressValue([]byte{200, 0xff}) // zero count past word size
	require.ErrorIs(t, err, ErrInvalidValueSize)
}

func TestCompressedHostRepresentation(t *testing.T) {
	s, mock := newTestStore(t)
	slot := uint256.NewInt(8)
	value := common.HexToHash("0xabcd000000000000000000000000000000000000000000000000000000000000")

	require.NoError(t, s.Store(slot, value))

	raw, err := mock.Get(host.StorageContext("contract-a"), SlotKey(slot))
	require.NoError(t, err)
	require.Equal(t, []byte{30, 0xab, 0xcd}, raw)

	s.ClearCache()
	got, err := s.Load(slot)
	require.NoError(t, err)
	require.Equal(t, value, got)
}

func TestWriteThroughFailure(t *testing.T) {
	s, mock := newTestStore(t)
	mock.FailPuts = true

	err := s.Store(uint256.NewInt(1), common.HexToHash("0x01"))
	require.Error(t, err)
}

func TestOpCounts(t *testing.T) {
	s, _ := newTestStore(t)

	require.NoError(t, s.Store(uint256.NewInt(1), common.HexToHash("0x01")))
	_, err := s.Load(uint256.NewInt(1))
	require.NoError(t, err)
	_, err = s.Load(uint256.NewInt(2))
	require.NoError(t, err)

	reads, writes := s.OpCounts()
	require.Equal(t, uint64(2), reads)
	require.Equal(t, uint64(1), writes)
}
