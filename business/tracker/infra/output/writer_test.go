package output

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/sothis/business/tracker/domain"
	"github.com/fd1az/sothis/internal/apperror"
)

var contract = common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F")

func newWriter(fs afero.Fs) *Writer {
	w := NewWriter(fs)
	w.clock = func() time.Time { return time.Unix(1700000000, 0) }
	return w
}

func sampleList() *domain.ChangeList {
	l := domain.NewSlotList(contract, uint256.NewInt(5))
	l.StateChanges = []domain.StateChange{
		{BlockNumber: hexutil.Uint64(100), Value: "0x0a"},
		{BlockNumber: hexutil.Uint64(105), Value: "0xff"},
	}
	return l
}

func TestWrite_DefaultFilenameIsJSON(t *testing.T) {
	fs := afero.NewMemMapFs()
	path, err := newWriter(fs).Write(sampleList(), domain.OutputTarget{Path: "/data"})
	require.NoError(t, err)

	assert.Equal(t, "/data/address-0x6b175474e89094c44da98b954eedeac495271d0f-slot-5-timestamp-1700000000.json", path)

	raw, err := afero.ReadFile(fs, path)
	require.NoError(t, err)

	var got domain.ChangeList
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, contract, got.Address)
	assert.Equal(t, uint64(5), got.StorageSlot.Int().Uint64())
	assert.Len(t, got.StateChanges, 2)
	assert.Contains(t, string(raw), `"block_number":"0x64"`)
}

func TestWrite_CallListFilename(t *testing.T) {
	l := domain.NewCallList(contract, "0x18160ddd")
	name := newWriter(afero.NewMemMapFs()).DefaultFilename(l)
	assert.Equal(t, "address-0x6b175474e89094c44da98b954eedeac495271d0f-calldata-0x18160ddd-timestamp-1700000000.json", name)
}

func TestWrite_CSV(t *testing.T) {
	fs := afero.NewMemMapFs()
	path, err := newWriter(fs).Write(sampleList(), domain.OutputTarget{Path: "out", Filename: "dai.csv"})
	require.NoError(t, err)
	assert.Equal(t, "out/dai.csv", path)

	raw, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	assert.Equal(t, "100,0x0a\n105,0xff\n", string(raw))
}

func TestWrite_CSVDecimal(t *testing.T) {
	fs := afero.NewMemMapFs()
	path, err := newWriter(fs).Write(sampleList(), domain.OutputTarget{Filename: "dai.csv", Decimal: true})
	require.NoError(t, err)
	assert.Equal(t, "dai.csv", path)

	raw, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	assert.Equal(t, "100,10\n105,255\n", string(raw))
}

func TestWrite_EmptyListIsEmptyArray(t *testing.T) {
	fs := afero.NewMemMapFs()
	l := domain.NewCallList(contract, "0x01")
	path, err := newWriter(fs).Write(l, domain.OutputTarget{Filename: "x.json"})
	require.NoError(t, err)

	raw, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"state_changes":[]`)
}

func TestWrite_ReadOnlyFilesystem(t *testing.T) {
	fs := afero.NewReadOnlyFs(afero.NewMemMapFs())
	_, err := newWriter(fs).Write(sampleList(), domain.OutputTarget{Path: "/nope", Filename: "a.json"})
	assert.Equal(t, apperror.CodeOutputWriteFailed, apperror.GetCode(err))
}

func TestNormalizeDecimal(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"quantity", `"0x64"`, `"100"`},
		{"uppercase", `0XFF`, `255`},
		{"address kept", `0x6b175474e89094c44da98b954eedeac495271d0f`, `0x6b175474e89094c44da98b954eedeac495271d0f`},
		{"word", `0x000000000000000000000000000000000000000000000000000000000000002a`, `42`},
		{"beyond uint64", `0x10000000000000000`, `18446744073709551616`},
		{"no hex", `block,value`, `block,value`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, string(NormalizeDecimal([]byte(tt.in))))
		})
	}
}
