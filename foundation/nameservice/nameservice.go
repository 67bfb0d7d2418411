// Package nameservice reads the accounts folder and creates a name service
// lookup for the accounts whose key files it holds.
package nameservice

import (
	"fmt"
	"io/fs"
	"maps"
	"path"
	"path/filepath"
	"strings"

	"github.com/iridium/blockchain/foundation/blockchain/signature"
)

// NameService maintains a map of accounts for name lookup.
type NameService struct {
	accounts map[string]string
	names    map[string]string
}

// New constructs a name service with accounts from the specified folder.
// The name of an account is the name of its key file.
func New(root string) (*NameService, error) {
	ns := NameService{
		accounts: make(map[string]string),
		names:    make(map[string]string),
	}

	fn := func(fileName string, info fs.FileInfo, err error) error {
		if err != nil {
			return fmt.Errorf("walkdir failure: %w", err)
		}

		if path.Ext(fileName) != signature.KeyExtension {
			return nil
		}

		privateKey, err := signature.LoadPrivateKey(fileName)
		if err != nil {
			return err
		}

		account := signature.PublicKeyHex(privateKey)
		name := strings.TrimSuffix(path.Base(fileName), signature.KeyExtension)

		ns.accounts[account] = name
		ns.names[name] = account

		return nil
	}

	if err := filepath.Walk(root, fn); err != nil {
		return nil, fmt.Errorf("walking directory: %w", err)
	}

	return &ns, nil
}

// Lookup returns the name for the specified account.
func (ns *NameService) Lookup(account string) string {
	name, exists := ns.accounts[account]
	if !exists {
		return account
	}
	return name
}

// Account returns the account for the specified name. Anything that isn't a
// known name is returned as is.
func (ns *NameService) Account(name string) string {
	account, exists := ns.names[name]
	if !exists {
		return name
	}
	return account
}

// Copy returns a copy of the map of names and accounts.
func (ns *NameService) Copy() map[string]string {
	return maps.Clone(ns.accounts)
}
