package crypto

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const hardenedOffset uint32 = 0x80000000

// ErrInvalidPath is returned for malformed or non-hardened derivation paths.
var ErrInvalidPath = errors.New("invalid derivation path")

var ed25519Curve = []byte("ed25519 seed")

// ParsePath parses a SLIP-0010 path such as m/44'/501'/0'/0'.
// ed25519 only supports hardened children, so every segment must be hardened.
func ParsePath(path string) ([]uint32, error) {
	segments := strings.Split(strings.TrimSpace(path), "/")
	if len(segments) == 0 || segments[0] != "m" {
		return nil, fmt.Errorf("%w: %q must start with m", ErrInvalidPath, path)
	}

	indexes := make([]uint32, 0, len(segments)-1)
	for _, seg := range segments[1:] {
		trimmed := strings.TrimRight(seg, "'hH")
		if trimmed == seg {
			return nil, fmt.Errorf("%w: segment %q is not hardened", ErrInvalidPath, seg)
		}
		n, err := strconv.ParseUint(trimmed, 10, 31)
		if err != nil {
			return nil, fmt.Errorf("%w: segment %q: %v", ErrInvalidPath, seg, err)
		}
		indexes = append(indexes, uint32(n)+hardenedOffset)
	}
	return indexes, nil
}

type slip10Key struct {
	key       []byte
	chainCode []byte
}

func masterKey(seed []byte) slip10Key {
	mac := hmac.New(sha512.New, ed25519Curve)
	mac.Write(seed)
	sum := mac.Sum(nil)
	return slip10Key{key: sum[:32], chainCode: sum[32:]}
}

func (k slip10Key) child(index uint32) slip10Key {
	data := make([]byte, 0, 1+32+4)
	data = append(data, 0x00)
	data = append(data, k.key...)
	data = binary.BigEndian.AppendUint32(data, index)

	mac := hmac.New(sha512.New, k.chainCode)
	mac.Write(data)
	sum := mac.Sum(nil)
	clear(data)
	return slip10Key{key: sum[:32], chainCode: sum[32:]}
}

// deriveEd25519 walks path from seed and returns the 32-byte ed25519 seed.
func deriveEd25519(seed []byte, path []uint32) []byte {
	k := masterKey(seed)
	for _, index := range path {
		next := k.child(index)
		clear(k.key)
		k = next
	}
	return k.key
}
