package host

import (
	"sync"

	"github.com/VictoriaMetrics/fastcache"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/solbridge/solbridge/common"
)

// ErrNoCallingContext is returned by MockHost.CallingContext for top-level
// invocations, mirroring the host VM's behavior when the call stack has no
// parent script.
var ErrNoCallingContext = errors.New("no calling context")

// Notification is one recorded Notifier.Emit call.
type Notification struct {
	Name    string
	Payload [][]byte
}

// MockHost is an in-memory implementation of the complete Host surface, used
// throughout the test suites. Storage bytes live in a fastcache ring with a
// side index for existence, so absent and empty values stay distinguishable.
type MockHost struct {
	mu   sync.RWMutex
	kv   *fastcache.Cache
	keys map[string]struct{}

	Notifications []Notification

	Witnesses map[common.Address]bool
	Signer    common.Address
	Caller    *common.Address // nil means top-level invocation
	Time      uint64
	Index     uint64
	Gas       uint64

	Balances map[common.Address]*uint256.Int

	// CallFn, when set, scripts cross-contract calls.
	CallFn func(addr common.Address, method string, args [][]byte) ([]byte, error)

	// FailPuts forces storage writes to fail, for error-path tests.
	FailPuts bool

	// RefuseTransfers makes NativeTokenTransfer report false without
	// touching balances, for refusal-path tests.
	RefuseTransfers bool
}

// NewMockHost returns an empty mock with a 32 MiB storage ring.
func NewMockHost() *MockHost {
	return &MockHost{
		kv:        fastcache.New(32 * 1024 * 1024),
		keys:      make(map[string]struct{}),
		Witnesses: make(map[common.Address]bool),
		Balances:  make(map[common.Address]*uint256.Int),
		Gas:       10_000_000,
	}
}

func (m *MockHost) Get(ctx StorageContext, key []byte) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	full := string(ctx) + string(key)
	if _, ok := m.keys[full]; !ok {
		return nil, nil
	}
	return m.kv.Get(nil, []byte(full)), nil
}

func (m *MockHost) Put(ctx StorageContext, key, value []byte) error {
	if m.FailPuts {
		return errors.New("mock: put failure injected")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	full := string(ctx) + string(key)
	m.keys[full] = struct{}{}
	m.kv.Set([]byte(full), value)
	return nil
}

func (m *MockHost) Delete(ctx StorageContext, key []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	full := string(ctx) + string(key)
	delete(m.keys, full)
	m.kv.Del([]byte(full))
	return nil
}

// StoredKeyCount returns how many live keys the mock holds, letting tests
// observe the zero-value deletion optimization.
func (m *MockHost) StoredKeyCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.keys)
}

func (m *MockHost) CheckWitness(addr common.Address) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.Witnesses[addr]
}

func (m *MockHost) CurrentTime() uint64  { return m.Time }
func (m *MockHost) CurrentIndex() uint64 { return m.Index }
func (m *MockHost) GasLeft() uint64      { return m.Gas }

func (m *MockHost) CallingContext() (common.Address, error) {
	if m.Caller == nil {
		return common.Address{}, ErrNoCallingContext
	}
	return *m.Caller, nil
}

func (m *MockHost) TransactionSigner() (common.Address, error) {
	return m.Signer, nil
}

func (m *MockHost) Emit(eventName string, payload ...[]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([][]byte, len(payload))
	for i, p := range payload {
		cp[i] = common.CopyBytes(p)
	}
	m.Notifications = append(m.Notifications, Notification{Name: eventName, Payload: cp})
	return nil
}

func (m *MockHost) Call(addr common.Address, method string, args [][]byte) ([]byte, error) {
	if m.CallFn != nil {
		return m.CallFn(addr, method, args)
	}
	return nil, errors.Errorf("mock: no contract at %s", addr)
}

func (m *MockHost) NativeTokenBalance(addr common.Address) (*uint256.Int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if bal, ok := m.Balances[addr]; ok {
		return new(uint256.Int).Set(bal), nil
	}
	return new(uint256.Int), nil
}

func (m *MockHost) NativeTokenTransfer(from, to common.Address, amount *uint256.Int) (bool, error) {
	if m.RefuseTransfers {
		return false, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	bal, ok := m.Balances[from]
	if !ok || bal.Lt(amount) {
		return false, nil
	}
	bal.Sub(bal, amount)
	dst, ok := m.Balances[to]
	if !ok {
		dst = new(uint256.Int)
		m.Balances[to] = dst
	}
	dst.Add(dst, amount)
	return true, nil
}
