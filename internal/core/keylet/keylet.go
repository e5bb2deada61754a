// Package keylet builds the storage keys of every oracle object. Keys start
// with a one byte space identifier; timestamps are big-endian so that
// iteration over a space is in time order.
package keylet

import (
	"encoding/binary"
	"fmt"
)

// Space identifiers for key generation
const (
	spaceSettings   byte = 'S' // Settings (singleton)
	spaceAssets     byte = 'A' // Asset registry (singleton)
	spaceHistory    byte = 'M' // History masks (singleton)
	spaceLast       byte = 'L' // Last timestamp (singleton)
	spaceProtocol   byte = 'P' // Protocol marker (singleton)
	spaceExpiration byte = 'E' // Expiration ledger (singleton)
	spaceFee        byte = 'F' // Fee configuration (singleton)
	spaceCosts      byte = 'C' // Invocation cost table (singleton)
	spaceBurn       byte = 'B' // Burn journal
	spaceSnapshot   byte = 'H' // Consolidated snapshot per timestamp
	spaceLegacy     byte = 'V' // Legacy price per timestamp and asset
)

const (
	timestampSize = 8
	snapshotSize  = 1 + timestampSize
	legacySize    = 1 + timestampSize + 1
)

func singleton(space byte) []byte {
	return []byte{space}
}

func Settings() []byte   { return singleton(spaceSettings) }
func Assets() []byte     { return singleton(spaceAssets) }
func History() []byte    { return singleton(spaceHistory) }
func Last() []byte       { return singleton(spaceLast) }
func Protocol() []byte   { return singleton(spaceProtocol) }
func Expiration() []byte { return singleton(spaceExpiration) }
func Fee() []byte        { return singleton(spaceFee) }
func Costs() []byte      { return singleton(spaceCosts) }

// Snapshot is the key of the consolidated record at ts.
func Snapshot(ts uint64) []byte {
	key := make([]byte, snapshotSize)
	key[0] = spaceSnapshot
	binary.BigEndian.PutUint64(key[1:], ts)
	return key
}

// SnapshotRange covers consolidated records with from <= ts < to.
func SnapshotRange(from, to uint64) (start, end []byte) {
	return Snapshot(from), Snapshot(to)
}

// ParseSnapshot extracts the timestamp from a consolidated key.
func ParseSnapshot(key []byte) (uint64, error) {
	if len(key) != snapshotSize || key[0] != spaceSnapshot {
		return 0, fmt.Errorf("keylet: not a snapshot key: %x", key)
	}
	return binary.BigEndian.Uint64(key[1:]), nil
}

// Legacy is the key of one asset price at ts in the legacy layout.
func Legacy(ts uint64, index int) []byte {
	key := make([]byte, legacySize)
	key[0] = spaceLegacy
	binary.BigEndian.PutUint64(key[1:], ts)
	key[legacySize-1] = byte(index)
	return key
}

// LegacyTimestamp covers every legacy price stored at ts.
func LegacyTimestamp(ts uint64) (start, end []byte) {
	start = make([]byte, 1+timestampSize)
	start[0] = spaceLegacy
	binary.BigEndian.PutUint64(start[1:], ts)
	return start, LegacyRangeEnd(ts)
}

// LegacyRange covers legacy prices with from <= ts < to.
func LegacyRange(from, to uint64) (start, end []byte) {
	start, _ = LegacyTimestamp(from)
	end, _ = LegacyTimestamp(to)
	return start, end
}

// LegacyRangeEnd is the first key after every legacy price at ts.
func LegacyRangeEnd(ts uint64) []byte {
	if ts == ^uint64(0) {
		return []byte{spaceLegacy + 1}
	}
	end := make([]byte, 1+timestampSize)
	end[0] = spaceLegacy
	binary.BigEndian.PutUint64(end[1:], ts+1)
	return end
}

// ParseLegacy extracts the timestamp and asset index from a legacy key.
func ParseLegacy(key []byte) (uint64, int, error) {
	if len(key) != legacySize || key[0] != spaceLegacy {
		return 0, 0, fmt.Errorf("keylet: not a legacy key: %x", key)
	}
	return binary.BigEndian.Uint64(key[1:]), int(key[legacySize-1]), nil
}

// Burn is the journal key of the seq-th burn recorded at ts.
func Burn(ts, seq uint64) []byte {
	key := make([]byte, 1+2*timestampSize)
	key[0] = spaceBurn
	binary.BigEndian.PutUint64(key[1:], ts)
	binary.BigEndian.PutUint64(key[1+timestampSize:], seq)
	return key
}

// BurnRange covers the whole burn journal.
func BurnRange() (start, end []byte) {
	return []byte{spaceBurn}, []byte{spaceBurn + 1}
}
