// Package surface models the set of active thermode contact areas.
//
// The probe has five independently controllable zones. A Set is either the
// full probe or an explicit subset; there is no sentinel value.
package surface

import (
	"fmt"
	"sort"
	"strings"
)

// Count is the number of physical zones on the probe.
const Count = 5

// Set selects which of the five zones take part in a stimulation.
type Set struct {
	all   bool
	zones map[int]bool
}

// All returns a Set covering every zone.
func All() Set {
	return Set{all: true}
}

// Of returns a Set covering exactly the given zones (1 to 5).
func Of(zones ...int) Set {
	m := make(map[int]bool, len(zones))
	for _, z := range zones {
		m[z] = true
	}
	return Set{zones: m}
}

// Validate reports zones outside the 1..Count range.
func (s Set) Validate() error {
	if s.all {
		return nil
	}
	if len(s.zones) == 0 {
		return fmt.Errorf("surface set is empty")
	}
	for z := range s.zones {
		if z < 1 || z > Count {
			return fmt.Errorf("zone %d out of range 1-%d", z, Count)
		}
	}
	return nil
}

// Contains reports whether zone z is active.
func (s Set) Contains(z int) bool {
	if s.all {
		return z >= 1 && z <= Count
	}
	return s.zones[z]
}

// Mask renders the five-character enable mask transmitted with the "S"
// command, one '1' or '0' per zone: zones {2,4} become "01010".
func (s Set) Mask() string {
	var b strings.Builder
	for z := 1; z <= Count; z++ {
		if s.Contains(z) {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}

// Zones returns the active zone numbers in ascending order.
func (s Set) Zones() []int {
	out := make([]int, 0, Count)
	for z := 1; z <= Count; z++ {
		if s.Contains(z) {
			out = append(out, z)
		}
	}
	sort.Ints(out)
	return out
}

func (s Set) String() string {
	if s.all {
		return "all"
	}
	parts := make([]string, 0, len(s.zones))
	for _, z := range s.Zones() {
		parts = append(parts, fmt.Sprintf("%d", z))
	}
	return strings.Join(parts, ",")
}
