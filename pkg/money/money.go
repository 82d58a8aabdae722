package money

import (
	"fmt"
	"strconv"
	"strings"
)

// Cents is a currency amount in the minor unit. All engine arithmetic happens
// on this type; floats only appear at the formatting boundary.
type Cents int64

// BasisPoints expresses a percentage in hundredths of a percent, so 10.5%
// is 1050. Keeping percentages integral avoids float drift when discounting.
type BasisPoints int64

const (
	// MinPrice is the smallest final price a budget line may carry. A line
	// item must always have some nonzero value, so clamping stops here
	// rather than at zero.
	MinPrice Cents = 1

	// MaxDiscountBP caps percentage discounts at 99.99%. A discount can
	// reduce a price but never zero it out.
	MaxDiscountBP BasisPoints = 9999
)

// ParseAmount parses a currency amount in major units into Cents. Both comma
// and dot are accepted as the decimal separator; the last separator in the
// string wins, earlier ones are treated as grouping.
func ParseAmount(s string) (Cents, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}

	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}

	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")
	sep := lastComma
	if lastDot > sep {
		sep = lastDot
	}

	intPart := s
	fracPart := ""
	if sep >= 0 {
		intPart = s[:sep]
		fracPart = s[sep+1:]
	}

	// Strip grouping separators from the integer part.
	intPart = strings.Map(func(r rune) rune {
		if r == ',' || r == '.' || r == ' ' {
			return -1
		}
		return r
	}, intPart)

	if intPart == "" {
		intPart = "0"
	}
	major, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}

	var minor int64
	switch len(fracPart) {
	case 0:
		minor = 0
	case 1:
		d, err := strconv.ParseInt(fracPart, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid amount %q: %w", s, err)
		}
		minor = d * 10
	case 2:
		d, err := strconv.ParseInt(fracPart, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid amount %q: %w", s, err)
		}
		minor = d
	default:
		// More than two fraction digits means the separator was grouping,
		// not decimal (e.g. "1.234" meaning one thousand two hundred).
		d, err := strconv.ParseInt(fracPart, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid amount %q: %w", s, err)
		}
		if len(fracPart) == 3 {
			major = major*1000 + d
			minor = 0
		} else {
			return 0, fmt.Errorf("invalid amount %q: too many decimal digits", s)
		}
	}

	total := major*100 + minor
	if neg {
		total = -total
	}
	return Cents(total), nil
}

// ParsePercent parses a percentage ("10", "10.5", "10,5") into BasisPoints.
func ParsePercent(s string) (BasisPoints, error) {
	c, err := ParseAmount(s)
	if err != nil {
		return 0, err
	}
	return BasisPoints(c), nil
}

// FromFloat converts a major-unit float into Cents, rounding half away
// from zero. Only intended for the wire boundary.
func FromFloat(f float64) Cents {
	if f < 0 {
		return Cents(f*100 - 0.5)
	}
	return Cents(f*100 + 0.5)
}

// Float64 returns the amount in major units. Only intended for the wire
// boundary.
func (c Cents) Float64() float64 {
	return float64(c) / 100
}

// String formats the amount with exactly two decimal places and a dot
// separator.
func (c Cents) String() string {
	v := int64(c)
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// ApplyPercent reduces the amount by the given discount, rounding half up
// on the discounted value.
func (c Cents) ApplyPercent(bp BasisPoints) Cents {
	remaining := int64(10000 - bp)
	return Cents((int64(c)*remaining + 5000) / 10000)
}

// ClampDiscount limits a percentage discount to the allowed [0, 99.99] range.
func ClampDiscount(bp BasisPoints) BasisPoints {
	if bp < 0 {
		return 0
	}
	if bp > MaxDiscountBP {
		return MaxDiscountBP
	}
	return bp
}
