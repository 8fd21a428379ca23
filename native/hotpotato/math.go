package hotpotato

import (
	"math/big"

	"github.com/holiman/uint256"
)

// maxUint256 is the saturation ceiling for every monetary computation in the
// engine: prices escalate toward it rather than wrapping when a
// multiplication would overflow 256 bits.
var maxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// ceilMulDiv computes ceil(x*n/d), saturating at the 256-bit maximum when
// x*n itself would overflow a uint256. It returns 0 if x or n is nil or
// non-positive. d must be positive; callers only ever pass BpsDenominator or
// OutbidMultiplierBps's denominator, both compile-time constants.
func ceilMulDiv(x, n, d *big.Int) *big.Int {
	if x == nil || n == nil || x.Sign() <= 0 || n.Sign() <= 0 {
		return big.NewInt(0)
	}
	product := new(big.Int).Mul(x, n)

	// Route the product through uint256 to get an authoritative overflow
	// signal for the 256-bit domain the spec reasons about, rather than
	// re-deriving the same bound by hand against maxUint256.
	var probe uint256.Int
	if overflow := probe.SetFromBig(product); overflow {
		return new(big.Int).Set(maxUint256)
	}

	numerator := new(big.Int).Add(product, new(big.Int).Sub(d, big.NewInt(1)))
	result := new(big.Int).Div(numerator, d)
	if result.Cmp(maxUint256) > 0 {
		return new(big.Int).Set(maxUint256)
	}
	return result
}

// saturatingSub computes max(a-b, 0) for unsigned accounting fields where the
// caller must never observe a negative balance.
func saturatingSub(a, b *big.Int) *big.Int {
	if a == nil {
		return big.NewInt(0)
	}
	if b == nil || b.Sign() <= 0 {
		return new(big.Int).Set(a)
	}
	out := new(big.Int).Sub(a, b)
	if out.Sign() < 0 {
		return big.NewInt(0)
	}
	return out
}

// clampToAvailable returns min(amount, available), treating nil as 0.
func clampToAvailable(amount, available *big.Int) *big.Int {
	if amount == nil || amount.Sign() <= 0 {
		return big.NewInt(0)
	}
	if available == nil || available.Sign() <= 0 {
		return big.NewInt(0)
	}
	if amount.Cmp(available) > 0 {
		return new(big.Int).Set(available)
	}
	return new(big.Int).Set(amount)
}
