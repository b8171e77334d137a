// Package domain contains the core types of the tracking context.
package domain

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"

	"github.com/fd1az/sothis/internal/apperror"
)

// StateChange is one observed value at a block.
type StateChange struct {
	BlockNumber hexutil.Uint64 `json:"block_number"`
	Value       string         `json:"value"`
}

// Slot is a storage slot index. It serializes as 0x-prefixed hex.
type Slot uint256.Int

// NewSlot copies v into a Slot.
func NewSlot(v *uint256.Int) *Slot {
	s := Slot(*v)
	return &s
}

// Int returns the slot as *uint256.Int.
func (s *Slot) Int() *uint256.Int {
	return (*uint256.Int)(s)
}

func (s Slot) MarshalText() ([]byte, error) {
	return []byte((*uint256.Int)(&s).Hex()), nil
}

func (s *Slot) UnmarshalText(text []byte) error {
	return (*uint256.Int)(s).SetFromHex(string(text))
}

// ChangeList is the value history of one slot or one call.
// Entries are strictly increasing by block and no two adjacent entries share a value.
type ChangeList struct {
	Address      common.Address `json:"address"`
	StorageSlot  *Slot          `json:"storage_slot,omitempty"`
	Calldata     string         `json:"calldata,omitempty"`
	StateChanges []StateChange  `json:"state_changes"`
}

// NewSlotList starts an empty history for a storage slot.
func NewSlotList(address common.Address, slot *uint256.Int) *ChangeList {
	return &ChangeList{
		Address:      address,
		StorageSlot:  NewSlot(slot),
		StateChanges: []StateChange{},
	}
}

// NewCallList starts an empty history for a read-only call.
func NewCallList(address common.Address, calldata string) *ChangeList {
	return &ChangeList{
		Address:      address,
		Calldata:     calldata,
		StateChanges: []StateChange{},
	}
}

// Len returns the number of recorded changes.
func (l *ChangeList) Len() int {
	return len(l.StateChanges)
}

// Last returns the most recent change.
func (l *ChangeList) Last() (StateChange, bool) {
	if len(l.StateChanges) == 0 {
		return StateChange{}, false
	}
	return l.StateChanges[len(l.StateChanges)-1], true
}

// Append records c when its value differs from the last entry. The first
// observation is always recorded. A block at or before the last entry is rejected.
func (l *ChangeList) Append(c StateChange) (bool, error) {
	last, ok := l.Last()
	if !ok {
		l.StateChanges = append(l.StateChanges, c)
		return true, nil
	}
	if c.BlockNumber <= last.BlockNumber {
		return false, apperror.New(apperror.CodeInvalidBlockNumber,
			apperror.WithMessage(fmt.Sprintf("block %d is not after the last recorded block %d",
				uint64(c.BlockNumber), uint64(last.BlockNumber))))
	}
	if c.Value == last.Value {
		return false, nil
	}
	l.StateChanges = append(l.StateChanges, c)
	return true, nil
}

// Label returns the filename label and key of the tracked target:
// "slot" with the decimal slot, or "calldata" with the calldata.
func (l *ChangeList) Label() (label, key string) {
	if l.StorageSlot != nil {
		return "slot", l.StorageSlot.Int().Dec()
	}
	return "calldata", l.Calldata
}

// OutputTarget selects where and how a finished ChangeList is written.
type OutputTarget struct {
	Path     string
	Filename string // empty selects the generated default
	Decimal  bool
}
