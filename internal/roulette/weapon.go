// Package roulette implements the cylinder roulette session engine: weapon
// and cylinder randomness, turn-bound decision waits, escrowed bets and
// payout settlement for the solo and challenge game modes.
package roulette

import "math/rand"

// Chamber is one slot in a cylinder.
type Chamber int

// Chamber states.
const (
	ChamberEmpty Chamber = iota
	ChamberLive
)

// WeaponSpec describes one weapon variant from the fixed catalog.
type WeaponSpec struct {
	ID          string
	DisplayName string
	Chambers    int
}

// Weapons is the fixed weapon catalog. Every entry has at least two
// chambers; the reward formula divides by Chambers-1.
var Weapons = []WeaponSpec{
	{ID: "revolver", DisplayName: "Revolver", Chambers: 6},
	{ID: "officer", DisplayName: "Officer's Pistol", Chambers: 5},
	{ID: "derringer", DisplayName: "Derringer", Chambers: 3},
}

// WeaponAt returns the catalog entry for a selection index.
func WeaponAt(index int) (WeaponSpec, bool) {
	if index < 0 || index >= len(Weapons) {
		return WeaponSpec{}, false
	}
	return Weapons[index], true
}

// Cylinder is an ordered sequence of chambers holding exactly one live
// round at construction time. Draws consume the front chamber, so a built
// cylinder plays out deterministically until it is replaced.
type Cylinder struct {
	chambers []Chamber
}

// NewCylinder builds a cylinder for the weapon: Chambers-1 empty slots plus
// one live round, uniformly shuffled.
func NewCylinder(weapon WeaponSpec) Cylinder {
	chambers := make([]Chamber, weapon.Chambers)
	chambers[0] = ChamberLive
	rand.Shuffle(len(chambers), func(i, j int) {
		chambers[i], chambers[j] = chambers[j], chambers[i]
	})
	return Cylinder{chambers: chambers}
}

// Draw removes and returns the front chamber. Drawing from an exhausted
// cylinder is a caller bug and returns ErrCylinderEmpty.
func (c *Cylinder) Draw() (Chamber, error) {
	if len(c.chambers) == 0 {
		return ChamberEmpty, ErrCylinderEmpty
	}
	ch := c.chambers[0]
	c.chambers = c.chambers[1:]
	return ch, nil
}

// Remaining returns the number of undrawn chambers.
func (c *Cylinder) Remaining() int {
	return len(c.chambers)
}

// Exhausted reports whether every chamber has been drawn.
func (c *Cylinder) Exhausted() bool {
	return len(c.chambers) == 0
}

// liveCount counts undrawn live chambers.
func (c *Cylinder) liveCount() int {
	n := 0
	for _, ch := range c.chambers {
		if ch == ChamberLive {
			n++
		}
	}
	return n
}

// RewardPerRound is the solo-mode reward for each survived draw. The
// division truncates: surviving every round can pay out slightly less than
// a naive bet-times-rounds multiply. That truncation is the intended
// economics, not a rounding bug.
func RewardPerRound(bet int64, weapon WeaponSpec) int64 {
	return bet / int64(weapon.Chambers-1)
}
