// Package wallets maintains the set of wallet addresses registered with
// the node.
package wallets

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/scremy/blockchain/foundation/blockchain/database"
)

// Wallet represents an address that has been registered with the node.
type Wallet struct {
	Address string    `json:"address"`
	Created time.Time `json:"created"`
}

// =============================================================================

// Registry represents the data representation to maintain a set of known
// wallets. Registering a wallet never touches balances.
type Registry struct {
	mu  sync.RWMutex
	set map[string]Wallet
}

// New constructs a new registry to manage wallet information.
func New() *Registry {
	return &Registry{
		set: make(map[string]Wallet),
	}
}

// Create adds a new wallet to the set. It returns false when the address
// is already registered.
func (r *Registry) Create(address string) (bool, error) {
	if strings.TrimSpace(address) == "" {
		return false, fmt.Errorf("%w: wallet address is required", database.ErrInvalidAddress)
	}

	if address == database.NetworkSender {
		return false, fmt.Errorf("%w: address %q is reserved", database.ErrInvalidAddress, address)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.set[address]; exists {
		return false, nil
	}

	r.set[address] = Wallet{
		Address: address,
		Created: time.Now().UTC(),
	}

	return true, nil
}

// Exists reports whether the address has been registered.
func (r *Registry) Exists(address string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.set[address]
	return exists
}

// Count returns the number of registered wallets.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.set)
}

// Copy returns the registered wallets sorted by address.
func (r *Registry) Copy() []Wallet {
	r.mu.RLock()
	defer r.mu.RUnlock()

	wallets := make([]Wallet, 0, len(r.set))
	for _, wallet := range r.set {
		wallets = append(wallets, wallet)
	}

	sort.Slice(wallets, func(i, j int) bool {
		return wallets[i].Address < wallets[j].Address
	})

	return wallets
}
