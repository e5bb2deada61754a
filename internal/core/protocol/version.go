// Copyright (c) 2024-2025. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package protocol

import "fmt"

// Version identifies the snapshot storage layout in force.
type Version uint32

const (
	// VersionLegacy stores one entry per (asset, timestamp) pair
	VersionLegacy Version = 1
	// VersionConsolidated stores one entry per timestamp holding every price
	VersionConsolidated Version = 2

	// Latest is the newest layout this node writes once cutover has passed
	Latest = VersionConsolidated

	// CutoverDelay is the time between scheduling an upgrade and enabling it
	CutoverDelay uint64 = 24 * 60 * 60
)

func (v Version) String() string {
	switch v {
	case VersionLegacy:
		return "legacy"
	case VersionConsolidated:
		return "consolidated"
	default:
		return fmt.Sprintf("Version(%d)", uint32(v))
	}
}

// Supported reports whether this node can read and write v.
func (v Version) Supported() bool {
	return v >= VersionLegacy && v <= Latest
}

// Marker is the persisted protocol state. CutoverAt is zero when no upgrade
// is scheduled.
type Marker struct {
	Version   Version `codec:"v" json:"version"`
	CutoverAt uint64  `codec:"c" json:"cutover_at"`
}

// NewMarker returns the marker for a fresh store.
func NewMarker() Marker {
	return Marker{Version: Latest}
}

// MigrateFrom returns the marker for a store that still holds v data.
func MigrateFrom(v Version) (Marker, error) {
	if !v.Supported() {
		return Marker{}, fmt.Errorf("unsupported protocol version %d", v)
	}
	return Marker{Version: v}, nil
}

// Pending reports whether a cutover is scheduled but not yet enabled.
func (m Marker) Pending() bool {
	return m.Version < Latest && m.CutoverAt != 0
}

// Effective returns the version in force at now without changing the marker.
func (m Marker) Effective(now uint64) Version {
	if m.Pending() && now >= m.CutoverAt {
		return Latest
	}
	return m.Version
}

// Observe is called on write paths. It schedules a cutover when the marker is
// behind Latest and none is scheduled, and makes the flip permanent once the
// cutover time has passed. The second result reports whether the marker changed.
func (m Marker) Observe(now uint64) (Marker, bool) {
	if m.Version >= Latest {
		return m, false
	}
	if m.CutoverAt == 0 {
		return Marker{Version: m.Version, CutoverAt: now + CutoverDelay}, true
	}
	if now >= m.CutoverAt {
		return Marker{Version: Latest}, true
	}
	return m, false
}
