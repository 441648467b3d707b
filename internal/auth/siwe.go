package auth

import (
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/crypto/sha3"
)

// SignedMessage is the payload a wallet returns from a SIWE-style sign-in
// request: the claimed address, the full message text presented to the user,
// and the EIP-191 personal-sign signature over it.
type SignedMessage struct {
	Address   string `json:"address"`
	Message   string `json:"message"`
	Signature string `json:"signature"`
}

var ErrInvalidSignature = errors.New("invalid signature")

var noncePattern = regexp.MustCompile(`(?m)^Nonce: ([A-Za-z0-9]+)$`)

// CredentialVerifier checks a wallet-signed login payload against the nonce
// issued for this login attempt.
type CredentialVerifier interface {
	Verify(payload SignedMessage, nonce string) error
}

// SIWEVerifier verifies EIP-191 personal-sign signatures by recovering the
// signer's public key and comparing it to the claimed address.
type SIWEVerifier struct{}

func (SIWEVerifier) Verify(payload SignedMessage, nonce string) error {
	claimed, err := ChecksumAddress(payload.Address)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	embedded := extractNonce(payload.Message)
	if err := CheckNonce(nonce, embedded); err != nil {
		return err
	}

	recovered, err := recoverAddress(payload.Message, payload.Signature)
	if err != nil {
		return err
	}
	if recovered != claimed {
		return ErrInvalidSignature
	}
	return nil
}

func extractNonce(message string) string {
	match := noncePattern.FindStringSubmatch(message)
	if len(match) != 2 {
		return ""
	}
	return match[1]
}

func recoverAddress(message, signature string) (string, error) {
	sig, err := hex.DecodeString(strings.TrimPrefix(signature, "0x"))
	if err != nil || len(sig) != 65 {
		return "", ErrInvalidSignature
	}

	// Wallets emit v as 27/28; go-ethereum expects 0/1.
	recovery := sig[64]
	if recovery >= 27 {
		recovery -= 27
	}
	if recovery > 1 {
		return "", ErrInvalidSignature
	}
	normalized := make([]byte, 65)
	copy(normalized, sig[:64])
	normalized[64] = recovery

	digest := personalSignHash(message)
	pub, err := crypto.SigToPub(digest, normalized)
	if err != nil {
		return "", ErrInvalidSignature
	}
	return crypto.PubkeyToAddress(*pub).Hex(), nil
}

func personalSignHash(message string) []byte {
	prefixed := "\x19Ethereum Signed Message:\n" + strconv.Itoa(len(message)) + message
	return crypto.Keccak256([]byte(prefixed))
}

// ChecksumAddress validates a hex address and returns its EIP-55 checksummed
// form, the canonical representation stored in the user directory.
func ChecksumAddress(address string) (string, error) {
	address = strings.TrimSpace(address)
	if !strings.HasPrefix(address, "0x") && !strings.HasPrefix(address, "0X") {
		return "", fmt.Errorf("address missing 0x prefix")
	}
	body := strings.ToLower(address[2:])
	if len(body) != 40 {
		return "", fmt.Errorf("address must be 20 bytes")
	}
	if _, err := hex.DecodeString(body); err != nil {
		return "", fmt.Errorf("address is not hex: %w", err)
	}

	hasher := sha3.NewLegacyKeccak256()
	hasher.Write([]byte(body))
	digest := hasher.Sum(nil)

	out := []byte(body)
	for i := range out {
		if out[i] < 'a' || out[i] > 'f' {
			continue
		}
		nibble := digest[i/2]
		if i%2 == 0 {
			nibble >>= 4
		}
		if nibble&0x0f >= 8 {
			out[i] = out[i] - 'a' + 'A'
		}
	}
	return "0x" + string(out), nil
}
