package signature

import (
	"crypto/ed25519"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// KeyExtension is the file extension used for private key files.
const KeyExtension = ".ed25519"

// SavePrivateKey writes the seed of the private key to the specified file
// as hex. The file is only readable by the current user.
func SavePrivateKey(path string, privateKey ed25519.PrivateKey) error {
	seed := common.Bytes2Hex(privateKey.Seed())
	return os.WriteFile(path, []byte(seed), 0600)
}

// LoadPrivateKey reads a hex encoded seed from the specified file.
func LoadPrivateKey(path string) (ed25519.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	privateKey, err := PrivateKeyFromSeedHex(strings.TrimSpace(string(data)))
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}

	return privateKey, nil
}
