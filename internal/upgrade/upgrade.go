// Package upgrade defines the immutable catalog of ship upgrades and
// validates caller-supplied upgrade state against it.
package upgrade

import (
	"errors"
	"fmt"
)

// Supported upgrade kinds.
const (
	KindSpeedBoost           = "speed_boost"
	KindInventoryExpansion   = "inventory_expansion"
	KindCollectionEfficiency = "collection_efficiency"
	KindZoneAccess           = "zone_access"
)

var (
	ErrUnknownKind  = errors.New("upgrade: unknown upgrade kind")
	ErrInvalidLevel = errors.New("upgrade: level out of range")
)

// Definition describes one upgrade line: its kind, the highest level a
// player can reach, and the credit cost of the first level (each further
// level doubles).
type Definition struct {
	Kind     string `json:"kind"`
	MaxLevel int    `json:"max_level"`
	BaseCost int64  `json:"base_cost"`
}

// catalog is the immutable lookup table keyed by upgrade kind.
var catalog = map[string]Definition{
	KindSpeedBoost:           {Kind: KindSpeedBoost, MaxLevel: 5, BaseCost: 200},
	KindInventoryExpansion:   {Kind: KindInventoryExpansion, MaxLevel: 5, BaseCost: 300},
	KindCollectionEfficiency: {Kind: KindCollectionEfficiency, MaxLevel: 5, BaseCost: 250},
	KindZoneAccess:           {Kind: KindZoneAccess, MaxLevel: 10, BaseCost: 500},
}

// Lookup returns the definition for a kind.
func Lookup(kind string) (Definition, error) {
	def, ok := catalog[kind]
	if !ok {
		return Definition{}, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
	return def, nil
}

// ValidateLevels checks a kind→level map against the catalog. Unknown
// kinds and levels outside [0, MaxLevel] are rejected.
func ValidateLevels(levels map[string]int) error {
	for kind, level := range levels {
		def, err := Lookup(kind)
		if err != nil {
			return err
		}
		if level < 0 || level > def.MaxLevel {
			return fmt.Errorf("%w: %s level %d (max %d)", ErrInvalidLevel, kind, level, def.MaxLevel)
		}
	}
	return nil
}

// CostForLevel returns the credit cost of buying the given level of an
// upgrade. Level 1 costs BaseCost; each level after that doubles.
func CostForLevel(def Definition, level int) (int64, error) {
	if level < 1 || level > def.MaxLevel {
		return 0, fmt.Errorf("%w: %s level %d (max %d)", ErrInvalidLevel, def.Kind, level, def.MaxLevel)
	}
	cost := def.BaseCost
	for i := 1; i < level; i++ {
		cost *= 2
	}
	return cost, nil
}
