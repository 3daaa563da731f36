package chain

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// hexToUint64 parses an 0x-prefixed quantity. Empty and "0x" parse to 0,
// which some providers return for pending fields.
func hexToUint64(s string) (uint64, error) {
	trimmed := strings.TrimPrefix(s, "0x")
	if trimmed == "" {
		return 0, nil
	}
	v, err := strconv.ParseUint(trimmed, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("parse hex quantity %q: %w", s, err)
	}
	return v, nil
}

// hexToBig parses an 0x-prefixed quantity into a big integer.
func hexToBig(s string) (*big.Int, error) {
	trimmed := strings.TrimPrefix(s, "0x")
	if trimmed == "" {
		return big.NewInt(0), nil
	}
	v, ok := new(big.Int).SetString(trimmed, 16)
	if !ok {
		return nil, fmt.Errorf("parse hex quantity %q", s)
	}
	return v, nil
}

// uint64ToHex formats a block number as an 0x-prefixed quantity.
func uint64ToHex(v uint64) string {
	return "0x" + strconv.FormatUint(v, 16)
}
