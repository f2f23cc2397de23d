package cpu

import (
	"iter"
	"strings"
)

// Unit identifies a functional unit of the machine. Units are
// presentation state: the set of units active in a cycle tells the
// display which blocks to highlight, and has no architectural effect.
type Unit int

//go:generate go tool stringer -linecomment -type=Unit
const (
	UNIT_ALU   = Unit(0) // alu
	UNIT_IMEM  = Unit(1) // instructionMemory
	UNIT_DMEM  = Unit(2) // dataMemory
	UNIT_REG_A = Unit(3) // registerA
	UNIT_REG_B = Unit(4) // registerB
	UNIT_IR    = Unit(5) // instructionRegister
	UNIT_PC    = Unit(6) // programCounter
	UNIT_OUT   = Unit(7) // outputRegister

	unitCount = 8
)

// UnitSet is a bit set of functional units.
type UnitSet uint8

// UnitsOf builds a set from individual units.
func UnitsOf(units ...Unit) (set UnitSet) {
	for _, unit := range units {
		set.Add(unit)
	}
	return
}

// Add a unit to the set.
func (set *UnitSet) Add(unit Unit) {
	*set |= 1 << unit
}

// Has reports whether a unit is in the set.
func (set UnitSet) Has(unit Unit) bool {
	return set&(1<<unit) != 0
}

// Units iterates the members of the set in declaration order.
func (set UnitSet) Units() iter.Seq[Unit] {
	return func(yield func(Unit) bool) {
		for unit := Unit(0); unit < unitCount; unit++ {
			if set.Has(unit) && !yield(unit) {
				return
			}
		}
	}
}

// String returns the members of the set joined by '|'.
func (set UnitSet) String() string {
	var names []string
	for unit := range set.Units() {
		names = append(names, unit.String())
	}

	return strings.Join(names, "|")
}
