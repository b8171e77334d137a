package jsonrpc

import (
	"encoding/json"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/fd1az/sothis/internal/apperror"
)

// ParseQuantity decodes a 0x-prefixed hex quantity such as "0x1b4".
func ParseQuantity(s string) (uint64, error) {
	n, err := hexutil.DecodeUint64(strings.TrimSpace(s))
	if err != nil {
		return 0, apperror.New(apperror.CodeInvalidQuantity, apperror.WithContext(s), apperror.WithCause(err))
	}
	return n, nil
}

// EncodeQuantity encodes n as a minimal 0x-prefixed hex quantity.
func EncodeQuantity(n uint64) string {
	return hexutil.EncodeUint64(n)
}

// BlockTag returns the block parameter for a historical block.
func BlockTag(n uint64) string {
	return EncodeQuantity(n)
}

// Unquote returns the string held by a JSON string result.
// Non-string results are returned as their raw JSON text.
func Unquote(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
