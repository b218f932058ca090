package partsplit

import (
	"fmt"
	"strconv"
)

// NameFunc names the part at index of an input whose base name is base.
// base is empty when the input has no name.
type NameFunc func(base string, index int) string

// DefaultNames names parts "<base>.part<index>" with unpadded decimal
// indexes: app.log.part0, app.log.part1, ...
func DefaultNames(base string, index int) string {
	return prefix(base) + strconv.Itoa(index)
}

// PaddedNames returns a NameFunc that zero-pads indexes to width digits so
// that parts sort lexically: app.log.part00000, app.log.part00001, ...
func PaddedNames(width int) NameFunc {
	return func(base string, index int) string {
		return fmt.Sprintf("%s%0*d", prefix(base), width, index)
	}
}

func prefix(base string) string {
	if base == "" {
		return "part"
	}
	return base + ".part"
}
