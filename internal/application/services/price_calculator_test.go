package services_test

import (
	"testing"

	"github.com/odontosys/odontogram-engine/internal/application/services"
	"github.com/odontosys/odontogram-engine/pkg/money"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeFinalPrice_PercentDiscount(t *testing.T) {
	// base 200.00, 10% off -> 180.00
	base := money.Cents(20000)
	d := &services.Discount{Mode: services.DiscountPercent, Percent: 1000}

	assert.Equal(t, money.Cents(18000), services.ComputeFinalPrice(base, d))
}

func TestComputeFinalPrice_AmountExceedingBaseFloorsAtMinPrice(t *testing.T) {
	// base 200.00, 250.00 off -> 0.01
	base := money.Cents(20000)
	d := &services.Discount{Mode: services.DiscountAmount, Amount: 25000}

	assert.Equal(t, money.MinPrice, services.ComputeFinalPrice(base, d))
}

func TestComputeFinalPrice_NoDiscount(t *testing.T) {
	assert.Equal(t, money.Cents(20000), services.ComputeFinalPrice(20000, nil))
}

func TestComputeFinalPrice_PercentClampedBelowHundred(t *testing.T) {
	base := money.Cents(20000)
	d := &services.Discount{Mode: services.DiscountPercent, Percent: 15000} // "150%"

	final := services.ComputeFinalPrice(base, d)
	assert.Greater(t, int64(final), int64(0), "a discount can never zero out a line")
	assert.Equal(t, base.ApplyPercent(money.MaxDiscountBP), final)
}

func TestComputeFinalPrice_RangeProperty(t *testing.T) {
	// For any base > 0 and percent in [0, 99.99], the result stays in
	// (0, base], strictly below base when the discount is positive.
	bases := []money.Cents{1, 99, 20000, 123456789}
	discounts := []money.BasisPoints{0, 1, 500, 1000, 5000, 9999}

	for _, base := range bases {
		for _, bp := range discounts {
			d := &services.Discount{Mode: services.DiscountPercent, Percent: bp}
			final := services.ComputeFinalPrice(base, d)

			assert.Greater(t, int64(final), int64(0), "base=%d bp=%d", base, bp)
			assert.LessOrEqual(t, int64(final), int64(base), "base=%d bp=%d", base, bp)
			if bp > 0 && base > money.MinPrice {
				assert.Less(t, int64(final), int64(base), "base=%d bp=%d", base, bp)
			}
		}
	}
}

func TestPriceCalculator_SwitchModeResetsDiscount(t *testing.T) {
	calc := services.NewPriceCalculator(20000)
	require.NoError(t, calc.EnterDiscount("10"))
	assert.Equal(t, money.Cents(18000), calc.FinalPrice())

	// Switching mode drops the entered value and recomputes from base.
	calc.SwitchMode(services.DiscountAmount)
	assert.Equal(t, money.Cents(20000), calc.FinalPrice())

	require.NoError(t, calc.EnterDiscount("50,00"))
	assert.Equal(t, money.Cents(15000), calc.FinalPrice())

	// Round-trip law: back to percent with empty input restores base.
	calc.SwitchMode(services.DiscountPercent)
	require.NoError(t, calc.EnterDiscount(""))
	assert.Equal(t, money.Cents(20000), calc.FinalPrice())
}

func TestPriceCalculator_SameModeKeepsDiscount(t *testing.T) {
	calc := services.NewPriceCalculator(20000)
	require.NoError(t, calc.EnterDiscount("10"))

	calc.SwitchMode(services.DiscountPercent)
	assert.Equal(t, money.Cents(18000), calc.FinalPrice())
}

func TestPriceCalculator_CommaAndDotInput(t *testing.T) {
	calc := services.NewPriceCalculator(20000)

	require.NoError(t, calc.EnterDiscount("12,5"))
	withComma := calc.FinalPrice()

	require.NoError(t, calc.EnterDiscount("12.5"))
	assert.Equal(t, withComma, calc.FinalPrice())
}

func TestPriceCalculator_InvalidInputRejected(t *testing.T) {
	calc := services.NewPriceCalculator(20000)
	assert.Error(t, calc.EnterDiscount("abc"))
	// Failed input leaves the previous state untouched.
	assert.Equal(t, money.Cents(20000), calc.FinalPrice())
}
