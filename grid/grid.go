// Package grid bridges real-coordinate 2D geometry and the integer zorder
// core. It quantizes an axis-aligned extent into 2^bits x 2^bits equal cells
// and keys every cell by its Morton code, so spatial window queries can be
// answered with zorder range pruning.
package grid

import (
	"fmt"
	"math"
	"math/big"

	"github.com/go-spatial/geom"

	"github.com/rmrschub/zcurve/mathhelp"
	"github.com/rmrschub/zcurve/zorder"
)

const gridDims = 2

// Grid is an immutable cell grid over an extent.
type Grid struct {
	extent      geom.Extent
	bitsPerAxis uint
	size        uint // cells per axis, 2^bitsPerAxis
	codec       zorder.Codec
}

// New makes a Grid over extent with 2^bitsPerAxis cells per axis.
func New(extent geom.Extent, bitsPerAxis uint) (Grid, error) {
	if extent.XSpan() <= 0 || extent.YSpan() <= 0 {
		return Grid{}, fmt.Errorf(`%w: extent %v has no area`, zorder.ErrInvalidArgument, extent)
	}
	codec, err := zorder.NewCodec(gridDims, bitsPerAxis)
	if err != nil {
		return Grid{}, err
	}
	return Grid{
		extent:      extent,
		bitsPerAxis: bitsPerAxis,
		size:        mathhelp.Pow2(bitsPerAxis),
		codec:       codec,
	}, nil
}

func (g Grid) Extent() geom.Extent { return g.extent }

// CellsPerAxis is the grid resolution in one direction.
func (g Grid) CellsPerAxis() uint { return g.size }

// CellCode returns the Morton code of the cell containing p.
func (g Grid) CellCode(p geom.Point) (*big.Int, error) {
	col, row, err := g.cell(p)
	if err != nil {
		return nil, err
	}
	return g.codec.Interlace([]*big.Int{
		new(big.Int).SetUint64(uint64(col)),
		new(big.Int).SetUint64(uint64(row)),
	})
}

// CellExtent returns the bounds of the cell a code refers to.
func (g Grid) CellExtent(code *big.Int) (geom.Extent, error) {
	if code != nil && uint(code.BitLen()) > g.codec.TotalBits() {
		return geom.Extent{}, fmt.Errorf(`%w: code %s lies outside the grid`, zorder.ErrInvalidArgument, code)
	}
	point, err := g.codec.Deinterlace(code)
	if err != nil {
		return geom.Extent{}, err
	}
	col, row := point[0], point[1]
	cellWidth := g.extent.XSpan() / float64(g.size)
	cellHeight := g.extent.YSpan() / float64(g.size)
	minX := g.extent.MinX() + float64(col.Uint64())*cellWidth
	minY := g.extent.MinY() + float64(row.Uint64())*cellHeight
	return geom.Extent{minX, minY, minX + cellWidth, minY + cellHeight}, nil
}

// RangeCodes returns the Morton codes of the min and max corner cells of the
// query window clipped to the grid, directly usable as zorder range bounds.
func (g Grid) RangeCodes(window geom.Extent) (rmin, rmax *big.Int, err error) {
	clipped := geom.Extent{
		math.Max(window.MinX(), g.extent.MinX()),
		math.Max(window.MinY(), g.extent.MinY()),
		math.Min(window.MaxX(), g.extent.MaxX()),
		math.Min(window.MaxY(), g.extent.MaxY()),
	}
	if clipped.MinX() > clipped.MaxX() || clipped.MinY() > clipped.MaxY() {
		return nil, nil, fmt.Errorf(`%w: window %v does not intersect the grid extent %v`,
			zorder.ErrInvalidArgument, window, g.extent)
	}
	minCol, minRow, err := g.cell(geom.Point{clipped.MinX(), clipped.MinY()})
	if err != nil {
		return nil, nil, err
	}
	maxCol, maxRow, err := g.cell(geom.Point{clipped.MaxX(), clipped.MaxY()})
	if err != nil {
		return nil, nil, err
	}
	rmin, err = g.codec.Interlace([]*big.Int{
		new(big.Int).SetUint64(uint64(minCol)),
		new(big.Int).SetUint64(uint64(minRow)),
	})
	if err != nil {
		return nil, nil, err
	}
	rmax, err = g.codec.Interlace([]*big.Int{
		new(big.Int).SetUint64(uint64(maxCol)),
		new(big.Int).SetUint64(uint64(maxRow)),
	})
	if err != nil {
		return nil, nil, err
	}
	return rmin, rmax, nil
}

// Contains reports whether the cell a code refers to lies within the window
// given by two corner cell codes (from RangeCodes).
func (g Grid) Contains(code, rmin, rmax *big.Int) (bool, error) {
	return zorder.InRange(code, rmin, rmax, gridDims)
}

// cell maps a point to its column and row. Points on the max edges belong to
// the last cell, points outside the extent to none.
func (g Grid) cell(p geom.Point) (col, row uint, err error) {
	if !mathhelp.BetweenInc(p.X(), g.extent.MinX(), g.extent.MaxX()) ||
		!mathhelp.BetweenInc(p.Y(), g.extent.MinY(), g.extent.MaxY()) {
		return 0, 0, fmt.Errorf(`%w: point %v lies outside the grid extent %v`,
			zorder.ErrInvalidArgument, p, g.extent)
	}
	col = g.ord(p.X(), g.extent.MinX(), g.extent.XSpan())
	row = g.ord(p.Y(), g.extent.MinY(), g.extent.YSpan())
	return col, row, nil
}

func (g Grid) ord(v, min, span float64) uint {
	i := uint(math.Floor((v - min) / span * float64(g.size)))
	if i >= g.size {
		i = g.size - 1
	}
	return i
}
