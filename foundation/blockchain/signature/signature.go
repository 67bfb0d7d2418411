// Package signature provides helper functions for handling the blockchain
// hashing and signature needs.
package signature

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
)

// ErrInvalidSignature is returned when a signature can't be verified.
var ErrInvalidSignature = errors.New("invalid signature")

// =============================================================================

// Hash returns the SHA-512 digest of the canonical encoding of the
// specified verifiable view as a lowercase hex string.
func Hash(view any) string {
	data := encode(view)

	hash := sha512.Sum512(data)
	return common.Bytes2Hex(hash[:])
}

// Sign uses the specified private key to sign the canonical encoding of
// the verifiable view. The signature is returned hex encoded.
func Sign(view any, privateKey ed25519.PrivateKey) (string, error) {
	if len(privateKey) != ed25519.PrivateKeySize {
		return "", fmt.Errorf("invalid private key length %d", len(privateKey))
	}

	sig := ed25519.Sign(privateKey, encode(view))
	return common.Bytes2Hex(sig), nil
}

// Verify checks the hex encoded signature was produced by the hex encoded
// public key over the canonical encoding of the verifiable view.
func Verify(view any, publicKeyHex string, signatureHex string) error {
	publicKey, err := hex.DecodeString(publicKeyHex)
	if err != nil {
		return fmt.Errorf("%w: public key: %s", ErrInvalidSignature, err)
	}
	if len(publicKey) != ed25519.PublicKeySize {
		return fmt.Errorf("%w: public key length %d", ErrInvalidSignature, len(publicKey))
	}

	sig, err := hex.DecodeString(signatureHex)
	if err != nil {
		return fmt.Errorf("%w: signature: %s", ErrInvalidSignature, err)
	}
	if len(sig) != ed25519.SignatureSize {
		return fmt.Errorf("%w: signature length %d", ErrInvalidSignature, len(sig))
	}

	if !ed25519.Verify(ed25519.PublicKey(publicKey), encode(view), sig) {
		return ErrInvalidSignature
	}

	return nil
}

// =============================================================================

// encode produces the canonical byte encoding of a verifiable view. RLP
// is schema fixed and length prefixed so the field order of the view
// type is the wire contract. Views are plain structs of strings, byte
// arrays and unsigned integers, so a failure here is a programming error.
func encode(view any) []byte {
	data, err := rlp.EncodeToBytes(view)
	if err != nil {
		panic(fmt.Sprintf("signature: unable to encode verifiable view %T: %s", view, err))
	}

	return data
}

// =============================================================================

// GenerateKey creates a new random private key.
func GenerateKey() (ed25519.PrivateKey, error) {
	_, privateKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}

	return privateKey, nil
}

// PublicKeyHex returns the account identity for the private key, which is
// the hex encoded public key.
func PublicKeyHex(privateKey ed25519.PrivateKey) string {
	return common.Bytes2Hex(privateKey.Public().(ed25519.PublicKey))
}

// PrivateKeyFromSeedHex converts a hex encoded seed into a private key.
func PrivateKeyFromSeedHex(seedHex string) (ed25519.PrivateKey, error) {
	seed, err := hex.DecodeString(seedHex)
	if err != nil {
		return nil, fmt.Errorf("decoding seed: %w", err)
	}

	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("invalid seed length %d", len(seed))
	}

	return ed25519.NewKeyFromSeed(seed), nil
}
