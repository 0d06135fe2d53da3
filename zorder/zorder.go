// Package zorder maps multi-dimensional data points to one-dimensional Morton
// (Z-order) codes and back, and answers the BIGMIN/LITMAX range pruning question
// over such codes (Tropf & Herzog, 1981).
//
// Coordinates and codes are big.Ints, so neither the dimensionality nor the
// number of bits per dimension is limited by the machine word size.
// Bit i of dimension d ends up on bit i*dims+d of the code.
package zorder

import (
	"fmt"
	"math/big"

	"github.com/rmrschub/zcurve/mathhelp"
)

// Codec holds resolved, validated encoding parameters:
// the dimensionality of the data space and the number of bits per dimension.
type Codec struct {
	dims       uint
	bitsPerDim uint
}

// NewCodec makes a Codec from explicit parameters.
// This is the fast path: no scan over the data is needed.
func NewCodec(dims, bitsPerDim uint) (Codec, error) {
	if dims < 1 {
		return Codec{}, fmt.Errorf(`%w: dims must be at least 1, got %d`, ErrInvalidArgument, dims)
	}
	if bitsPerDim < 1 {
		return Codec{}, fmt.Errorf(`%w: bitsPerDim must be at least 1, got %d`, ErrInvalidArgument, bitsPerDim)
	}
	return Codec{dims: dims, bitsPerDim: bitsPerDim}, nil
}

// InferCodec derives a Codec from a data point: dims is the number of
// coordinates and bitsPerDim the largest bit length among them (at least 1).
func InferCodec(point []*big.Int) (Codec, error) {
	if len(point) == 0 {
		return Codec{}, fmt.Errorf(`%w: empty data point`, ErrInvalidArgument)
	}
	bitsPerDim := uint(1)
	for d, v := range point {
		if v == nil || v.Sign() < 0 {
			return Codec{}, fmt.Errorf(`%w: coordinate %d is negative or nil`, ErrInvalidArgument, d)
		}
		if bits := uint(v.BitLen()); bits > bitsPerDim {
			bitsPerDim = bits
		}
	}
	return Codec{dims: uint(len(point)), bitsPerDim: bitsPerDim}, nil
}

func (c Codec) Dims() uint       { return c.dims }
func (c Codec) BitsPerDim() uint { return c.bitsPerDim }

// TotalBits is the bit length of the codes this Codec produces.
func (c Codec) TotalBits() uint { return c.dims * c.bitsPerDim }

// Interlace encodes a data point into its Morton code.
// Every coordinate must be non-negative and fit in BitsPerDim bits;
// a coordinate that does not fit is an error, not silently truncated.
func (c Codec) Interlace(point []*big.Int) (*big.Int, error) {
	if uint(len(point)) != c.dims {
		return nil, fmt.Errorf(`%w: got %d coordinates, codec has %d dims`, ErrInvalidArgument, len(point), c.dims)
	}
	code := new(big.Int)
	for d, v := range point {
		if v == nil || v.Sign() < 0 {
			return nil, fmt.Errorf(`%w: coordinate %d is negative or nil`, ErrInvalidArgument, d)
		}
		if uint(v.BitLen()) > c.bitsPerDim {
			return nil, fmt.Errorf(`%w: coordinate %d (%s) does not fit in %d bits`,
				ErrInvalidArgument, d, short(v), c.bitsPerDim)
		}
		for i := uint(0); i < c.bitsPerDim; i++ {
			if v.Bit(int(i)) == 1 {
				code.SetBit(code, int(i*c.dims)+d, 1)
			}
		}
	}
	return code, nil
}

// Deinterlace decodes a Morton code back into its data point.
func (c Codec) Deinterlace(code *big.Int) ([]*big.Int, error) {
	if code == nil || code.Sign() < 0 {
		return nil, fmt.Errorf(`%w: code is negative or nil`, ErrInvalidArgument)
	}
	point := make([]*big.Int, c.dims)
	for d := range point {
		point[d] = new(big.Int)
	}
	for i := uint(0); i < c.bitsPerDim; i++ {
		for d := uint(0); d < c.dims; d++ {
			if code.Bit(int(i*c.dims+d)) == 1 {
				point[d].SetBit(point[d], int(i), 1)
			}
		}
	}
	return point, nil
}

// Interlace encodes a data point with inferred parameters,
// see InferCodec. Use a Codec to skip the inference scan.
func Interlace(point []*big.Int) (*big.Int, error) {
	c, err := InferCodec(point)
	if err != nil {
		return nil, err
	}
	return c.Interlace(point)
}

// Deinterlace decodes a Morton code into dims coordinates, inferring the
// bits per dimension from the code's bit length.
func Deinterlace(code *big.Int, dims uint) ([]*big.Int, error) {
	if dims < 1 {
		return nil, fmt.Errorf(`%w: dims must be at least 1, got %d`, ErrInvalidArgument, dims)
	}
	if code == nil || code.Sign() < 0 {
		return nil, fmt.Errorf(`%w: code is negative or nil`, ErrInvalidArgument)
	}
	bitsPerDim := mathhelp.CeilDiv(uint(code.BitLen()), dims)
	if bitsPerDim < 1 {
		bitsPerDim = 1
	}
	return Codec{dims: dims, bitsPerDim: bitsPerDim}.Deinterlace(code)
}
