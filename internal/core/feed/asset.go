package feed

import (
	"fmt"
	"strings"
)

// AssetKind discriminates between the two asset identifier forms.
type AssetKind uint8

const (
	// AssetNative identifies a ledger-native asset by its contract address
	AssetNative AssetKind = iota
	// AssetOther identifies an external asset by ticker symbol
	AssetOther
)

const (
	nativeAddressLength = 56
	maxSymbolLength     = 32
	nativePrefix        = "native:"
)

func (k AssetKind) String() string {
	switch k {
	case AssetNative:
		return "native"
	case AssetOther:
		return "other"
	default:
		return fmt.Sprintf("AssetKind(%d)", uint8(k))
	}
}

// Asset is a tracked asset identifier. It is comparable and can key maps.
type Asset struct {
	Kind AssetKind `codec:"k" json:"kind"`
	Code string    `codec:"c" json:"code"`
}

// Native returns a ledger-native asset.
func Native(address string) Asset {
	return Asset{Kind: AssetNative, Code: address}
}

// Other returns an external asset.
func Other(symbol string) Asset {
	return Asset{Kind: AssetOther, Code: symbol}
}

// String renders the asset in the form accepted by ParseAsset.
func (a Asset) String() string {
	if a.Kind == AssetNative {
		return nativePrefix + a.Code
	}
	return a.Code
}

// Validate checks the identifier shape for its kind.
func (a Asset) Validate() error {
	switch a.Kind {
	case AssetNative:
		if !isNativeAddress(a.Code) {
			return fmt.Errorf("%w: native address %q", ErrInvalidAsset, a.Code)
		}
	case AssetOther:
		if !isSymbol(a.Code) {
			return fmt.Errorf("%w: symbol %q", ErrInvalidAsset, a.Code)
		}
	default:
		return fmt.Errorf("%w: unknown kind %d", ErrInvalidAsset, a.Kind)
	}
	return nil
}

// ParseAsset accepts "native:<address>" or a bare symbol.
func ParseAsset(s string) (Asset, error) {
	var a Asset
	if strings.HasPrefix(s, nativePrefix) {
		a = Native(strings.TrimPrefix(s, nativePrefix))
	} else {
		a = Other(s)
	}
	if err := a.Validate(); err != nil {
		return Asset{}, err
	}
	return a, nil
}

// ParseAssets parses every entry or fails on the first invalid one.
func ParseAssets(values []string) ([]Asset, error) {
	assets := make([]Asset, 0, len(values))
	for _, v := range values {
		a, err := ParseAsset(v)
		if err != nil {
			return nil, err
		}
		assets = append(assets, a)
	}
	return assets, nil
}

// isNativeAddress checks for a 56 character base32 contract or account address.
func isNativeAddress(s string) bool {
	if len(s) != nativeAddressLength {
		return false
	}
	if s[0] != 'C' && s[0] != 'G' {
		return false
	}
	for i := 1; i < len(s); i++ {
		c := s[i]
		if !(c >= 'A' && c <= 'Z') && !(c >= '2' && c <= '7') {
			return false
		}
	}
	return true
}

func isSymbol(s string) bool {
	if len(s) == 0 || len(s) > maxSymbolLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_':
		default:
			return false
		}
	}
	return true
}
