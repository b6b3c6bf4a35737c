package dither

import (
	"fmt"
	"strings"
)

// DitherType selects the probability distribution of the dither noise.
type DitherType int

const (
	// DitherNone rounds without added noise.
	DitherNone DitherType = iota
	// DitherRectangular adds uniform noise of one LSB peak.
	DitherRectangular
	// DitherTriangular adds TPDF noise, the sum of two uniform draws.
	DitherTriangular
	// DitherGaussian adds normally distributed noise.
	DitherGaussian

	ditherTypeCount
)

var ditherTypeNames = [ditherTypeCount]string{"none", "rectangular", "triangular", "gaussian"}

func (dt DitherType) String() string {
	if dt.Valid() {
		return ditherTypeNames[dt]
	}

	return fmt.Sprintf("DitherType(%d)", int(dt))
}

// Valid reports whether dt is a known dither type.
func (dt DitherType) Valid() bool {
	return dt >= 0 && dt < ditherTypeCount
}

// ParseDitherType maps a name to its DitherType.
func ParseDitherType(name string) (DitherType, error) {
	for i, n := range ditherTypeNames {
		if strings.EqualFold(n, name) {
			return DitherType(i), nil
		}
	}

	return 0, fmt.Errorf("dither: unknown dither type %q", name)
}
