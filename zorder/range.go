package zorder

import (
	"fmt"
	"math/big"
)

// BigMinLitMax runs the Tropf-Herzog bit scan over point, rmin and rmax.
//
// bigmin is the smallest code after point that is inside the query rectangle
// implied by rmin and rmax ("GetNextZ-address"), litmax the largest code
// before point that is inside it ("GetPrevZ-address"). For a point inside
// the rectangle these are the next and previous Z-addresses of the
// rectangle itself. All codes must have been produced with the same dims.
//
// The scan walks the bits from most to least significant. Both decision
// tables reload the working rmin/rmax the same way and terminate on the same
// two bit patterns, so a single pass yields both results.
func BigMinLitMax(point, rmin, rmax *big.Int, dims uint) (bigmin, litmax *big.Int, err error) {
	if err := validateRange(point, rmin, rmax, dims); err != nil {
		return nil, nil, err
	}
	d := int(dims)
	min := new(big.Int).Set(rmin)
	max := new(big.Int).Set(rmax)
	bigmin = new(big.Int)
	litmax = new(big.Int)

	for i := totalBits(dims, point, rmin, rmax) - 1; i >= 0; i-- {
		pointBit := point.Bit(i)
		minBit := min.Bit(i)
		maxBit := max.Bit(i)
		switch {
		case pointBit == minBit && minBit == maxBit:
			// 000 and 111: nothing decided on this bit
		case pointBit == 0 && minBit == 0 && maxBit == 1:
			// point may still dive below min in this dimension
			bigmin = loadHigh(min, i, d)
			max = loadLow(max, i, d)
		case pointBit == 0 && minBit == 1 && maxBit == 1:
			// point left of the range in this dimension
			return new(big.Int).Set(min), litmax, nil
		case pointBit == 1 && minBit == 0 && maxBit == 0:
			// point right of the range in this dimension
			return bigmin, new(big.Int).Set(max), nil
		case pointBit == 1 && minBit == 0 && maxBit == 1:
			litmax = loadLow(max, i, d)
			min = loadHigh(min, i, d)
		default:
			// 010 and 110 cannot happen while rmin <= rmax
			panic(fmt.Sprintf(`impossible bit pattern %d%d%d at bit %d`, pointBit, minBit, maxBit, i))
		}
	}
	return bigmin, litmax, nil
}

// NextMorton returns the BIGMIN of BigMinLitMax.
func NextMorton(point, rmin, rmax *big.Int, dims uint) (*big.Int, error) {
	bigmin, _, err := BigMinLitMax(point, rmin, rmax, dims)
	return bigmin, err
}

// PrevMorton returns the LITMAX of BigMinLitMax.
func PrevMorton(point, rmin, rmax *big.Int, dims uint) (*big.Int, error) {
	_, litmax, err := BigMinLitMax(point, rmin, rmax, dims)
	return litmax, err
}

// InRange reports whether every decoded coordinate of code lies within the
// bounds decoded from rmin and rmax (inclusive). It operates on the codes
// directly: code is in range iff it is the previous Z-address of its own
// next Z-address.
func InRange(code, rmin, rmax *big.Int, dims uint) (bool, error) {
	if err := validateRange(code, rmin, rmax, dims); err != nil {
		return false, err
	}
	if code.Cmp(rmin) < 0 || rmax.Cmp(code) < 0 {
		return false, nil
	}
	if code.Cmp(rmin) == 0 || code.Cmp(rmax) == 0 {
		return true, nil
	}
	next, _, err := BigMinLitMax(code, rmin, rmax, dims)
	if err != nil {
		return false, err
	}
	_, prev, err := BigMinLitMax(next, rmin, rmax, dims)
	if err != nil {
		return false, err
	}
	return prev.Cmp(code) == 0, nil
}

func validateRange(point, rmin, rmax *big.Int, dims uint) error {
	if dims < 1 {
		return fmt.Errorf(`%w: dims must be at least 1, got %d`, ErrInvalidArgument, dims)
	}
	for _, x := range []*big.Int{point, rmin, rmax} {
		if x == nil || x.Sign() < 0 {
			return fmt.Errorf(`%w: codes must be non-negative`, ErrInvalidArgument)
		}
	}
	if rmin.Cmp(rmax) > 0 {
		return fmt.Errorf(`%w: malformed range, rmin %s > rmax %s`, ErrInvalidArgument, short(rmin), short(rmax))
	}
	return nil
}

// totalBits is the scan length: the largest operand bit length rounded up to
// the next multiple of dims (never zero).
func totalBits(dims uint, codes ...*big.Int) int {
	bits := 1
	for _, c := range codes {
		if l := c.BitLen(); l > bits {
			bits = l
		}
	}
	return bits + int(dims) - bits%int(dims)
}

// loadHigh returns x with bit i set and all less significant bits of bit i's
// dimension cleared: the "1000..." load of the decision tables.
func loadHigh(x *big.Int, i, dims int) *big.Int {
	r := new(big.Int).Set(x)
	for j := i % dims; j < i; j += dims {
		r.SetBit(r, j, 0)
	}
	return r.SetBit(r, i, 1)
}

// loadLow returns x with bit i cleared and all less significant bits of bit
// i's dimension set: the "0111..." load of the decision tables.
func loadLow(x *big.Int, i, dims int) *big.Int {
	r := new(big.Int).Set(x)
	for j := i % dims; j < i; j += dims {
		r.SetBit(r, j, 1)
	}
	return r.SetBit(r, i, 0)
}
