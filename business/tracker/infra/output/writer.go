// Package output persists a finished change list as JSON or CSV.
package output

import (
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/fd1az/sothis/business/tracker/domain"
	"github.com/fd1az/sothis/internal/apperror"
)

// addressLen is the length of a 0x-prefixed 20-byte hex string.
const addressLen = 42

var hexToken = regexp.MustCompile(`(?i)\b0x[0-9a-f]+\b`)

// Writer renders change lists onto a filesystem.
type Writer struct {
	fs    afero.Fs
	clock func() time.Time
}

func NewWriter(fs afero.Fs) *Writer {
	return &Writer{fs: fs, clock: time.Now}
}

// Write renders list according to target and returns the written path.
// A filename containing ".csv" selects CSV, anything else JSON.
func (w *Writer) Write(list *domain.ChangeList, target domain.OutputTarget) (string, error) {
	name := target.Filename
	if name == "" {
		name = w.DefaultFilename(list)
	}

	var (
		body []byte
		err  error
	)
	if strings.Contains(name, ".csv") {
		body = RenderCSV(list)
	} else {
		body, err = json.Marshal(list)
		if err != nil {
			return "", apperror.Serialization("change list", err)
		}
	}
	if target.Decimal {
		body = NormalizeDecimal(body)
	}

	dir := target.Path
	if dir == "" {
		dir = "."
	}
	if err := w.fs.MkdirAll(dir, 0o755); err != nil {
		return "", apperror.New(apperror.CodeOutputWriteFailed, apperror.WithCause(err), apperror.WithContext(dir))
	}

	path := filepath.Join(dir, name)
	if err := afero.WriteFile(w.fs, path, body, os.FileMode(0o644)); err != nil {
		return "", apperror.New(apperror.CodeOutputWriteFailed, apperror.WithCause(err), apperror.WithContext(path))
	}
	return path, nil
}

// DefaultFilename is address-{address}-{label}-{key}-timestamp-{unix}.json.
// The address is lowercase so one contract maps to one name however it was typed.
func (w *Writer) DefaultFilename(list *domain.ChangeList) string {
	label, key := list.Label()
	addr := strings.ToLower(list.Address.Hex())
	return fmt.Sprintf("address-%s-%s-%s-timestamp-%d.json", addr, label, key, w.clock().Unix())
}

// RenderCSV writes one "block,value" line per change with the block in decimal.
func RenderCSV(list *domain.ChangeList) []byte {
	var sb strings.Builder
	for _, c := range list.StateChanges {
		sb.WriteString(strconv.FormatUint(uint64(c.BlockNumber), 10))
		sb.WriteByte(',')
		sb.WriteString(c.Value)
		sb.WriteByte('\n')
	}
	return []byte(sb.String())
}

// NormalizeDecimal rewrites every hex token to decimal. Tokens of address
// length are left untouched.
func NormalizeDecimal(body []byte) []byte {
	return hexToken.ReplaceAllFunc(body, func(tok []byte) []byte {
		if len(tok) == addressLen {
			return tok
		}
		n, ok := new(big.Int).SetString(string(tok[2:]), 16)
		if !ok {
			return tok
		}
		return []byte(n.String())
	})
}
