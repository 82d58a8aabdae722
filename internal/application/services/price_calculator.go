package services

import (
	"github.com/odontosys/odontogram-engine/pkg/money"
)

// DiscountMode tags how a discount value is interpreted.
type DiscountMode string

const (
	// DiscountPercent reduces the base price by a percentage,
	// clamped to [0, 99.99].
	DiscountPercent DiscountMode = "percent"

	// DiscountAmount subtracts an absolute currency amount.
	DiscountAmount DiscountMode = "amount"
)

// Discount is a tagged discount. Only the field matching Mode is read.
type Discount struct {
	Mode    DiscountMode
	Percent money.BasisPoints
	Amount  money.Cents
}

// ParseDiscount builds a Discount from raw user input, tolerating comma and
// dot decimal separators. An empty value means no discount.
func ParseDiscount(mode DiscountMode, raw string) (*Discount, error) {
	if raw == "" {
		return nil, nil
	}
	switch mode {
	case DiscountPercent:
		bp, err := money.ParsePercent(raw)
		if err != nil {
			return nil, err
		}
		return &Discount{Mode: DiscountPercent, Percent: bp}, nil
	default:
		amount, err := money.ParseAmount(raw)
		if err != nil {
			return nil, err
		}
		return &Discount{Mode: DiscountAmount, Amount: amount}, nil
	}
}

// ComputeFinalPrice derives a line price from a base price and an optional
// discount. Percent discounts are clamped to [0, 99.99]; amount discounts
// subtract unclamped. Either way the result is floored at money.MinPrice:
// a budget line can never be free.
func ComputeFinalPrice(base money.Cents, discount *Discount) money.Cents {
	final := base
	if discount != nil {
		switch discount.Mode {
		case DiscountPercent:
			final = base.ApplyPercent(money.ClampDiscount(discount.Percent))
		case DiscountAmount:
			final = base - discount.Amount
		}
	}
	if final < money.MinPrice {
		final = money.MinPrice
	}
	return final
}

// PriceCalculator is the stateful price editor behind a budget line form.
// It always recomputes from the original base price, so discounts never
// compound on an already-discounted figure.
type PriceCalculator struct {
	base     money.Cents
	mode     DiscountMode
	discount *Discount
}

// NewPriceCalculator creates a calculator over a base price.
func NewPriceCalculator(base money.Cents) *PriceCalculator {
	return &PriceCalculator{base: base, mode: DiscountPercent}
}

// SetBase replaces the base price, keeping the current discount.
func (c *PriceCalculator) SetBase(base money.Cents) {
	c.base = base
}

// Base returns the undiscounted base price.
func (c *PriceCalculator) Base() money.Cents {
	return c.base
}

// Mode returns the current discount mode.
func (c *PriceCalculator) Mode() DiscountMode {
	return c.mode
}

// SwitchMode changes the discount mode and resets any entered discount
// value, so the next FinalPrice recomputes from the base price.
func (c *PriceCalculator) SwitchMode(mode DiscountMode) {
	if mode == c.mode {
		return
	}
	c.mode = mode
	c.discount = nil
}

// EnterDiscount parses and applies raw discount input in the current mode.
// Empty input clears the discount.
func (c *PriceCalculator) EnterDiscount(raw string) error {
	d, err := ParseDiscount(c.mode, raw)
	if err != nil {
		return err
	}
	c.discount = d
	return nil
}

// FinalPrice returns the current line price.
func (c *PriceCalculator) FinalPrice() money.Cents {
	return ComputeFinalPrice(c.base, c.discount)
}
