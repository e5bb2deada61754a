package registry

import (
	"fmt"

	"github.com/LeJamon/goOracled/internal/core/feed"
)

// Registry is the ordered set of tracked assets. An asset's index equals its
// insertion position and is embedded in update masks and snapshots, so the
// order never changes.
type Registry struct {
	assets []feed.Asset
	index  map[feed.Asset]int
}

// New creates a registry holding assets in the given order.
func New(assets ...feed.Asset) (*Registry, error) {
	r := &Registry{index: make(map[feed.Asset]int, len(assets))}
	if _, err := r.RegisterAll(assets); err != nil {
		return nil, err
	}
	return r, nil
}

// Register appends asset and returns its index.
func (r *Registry) Register(asset feed.Asset) (int, error) {
	if err := asset.Validate(); err != nil {
		return 0, err
	}
	if _, ok := r.index[asset]; ok {
		return 0, fmt.Errorf("%w: %s", feed.ErrDuplicateAsset, asset)
	}
	if len(r.assets) >= feed.MaxAssets {
		return 0, fmt.Errorf("%w: limit is %d", feed.ErrRegistryFull, feed.MaxAssets)
	}
	i := len(r.assets)
	r.assets = append(r.assets, asset)
	r.index[asset] = i
	return i, nil
}

// RegisterAll registers every asset or none of them.
func (r *Registry) RegisterAll(assets []feed.Asset) ([]int, error) {
	if len(r.assets)+len(assets) > feed.MaxAssets {
		return nil, fmt.Errorf("%w: %d registered, %d requested, limit is %d",
			feed.ErrRegistryFull, len(r.assets), len(assets), feed.MaxAssets)
	}
	seen := make(map[feed.Asset]struct{}, len(assets))
	for _, a := range assets {
		if err := a.Validate(); err != nil {
			return nil, err
		}
		if _, ok := r.index[a]; ok {
			return nil, fmt.Errorf("%w: %s", feed.ErrDuplicateAsset, a)
		}
		if _, ok := seen[a]; ok {
			return nil, fmt.Errorf("%w: %s listed twice", feed.ErrDuplicateAsset, a)
		}
		seen[a] = struct{}{}
	}

	indices := make([]int, 0, len(assets))
	for _, a := range assets {
		i, err := r.Register(a)
		if err != nil {
			return nil, err
		}
		indices = append(indices, i)
	}
	return indices, nil
}

// IndexOf returns the stable index of asset.
func (r *Registry) IndexOf(asset feed.Asset) (int, bool) {
	i, ok := r.index[asset]
	return i, ok
}

// At returns the asset at index i.
func (r *Registry) At(i int) (feed.Asset, bool) {
	if i < 0 || i >= len(r.assets) {
		return feed.Asset{}, false
	}
	return r.assets[i], true
}

// All returns a copy of the assets in index order.
func (r *Registry) All() []feed.Asset {
	out := make([]feed.Asset, len(r.assets))
	copy(out, r.assets)
	return out
}

// Len returns the number of registered assets.
func (r *Registry) Len() int {
	return len(r.assets)
}

// Clone returns an independent copy.
func (r *Registry) Clone() *Registry {
	c := &Registry{
		assets: r.All(),
		index:  make(map[feed.Asset]int, len(r.index)),
	}
	for a, i := range r.index {
		c.index[a] = i
	}
	return c
}
