package batch

import (
	"context"
	"fmt"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rmrschub/zcurve/zorder"
)

func Test_Map_keepsInputOrder(t *testing.T) {
	in := make([]int, 100)
	for i := range in {
		in[i] = i
	}
	for _, workers := range []int{0, 1, 8} {
		t.Run(fmt.Sprintf(`workers=%d`, workers), func(t *testing.T) {
			out, err := Map(context.Background(), in, workers, func(i int) (int, error) {
				return i * i, nil
			})
			require.NoError(t, err)
			require.Len(t, out, len(in))
			for i, o := range out {
				require.Equal(t, i*i, o)
			}
		})
	}
}

func Test_Map_emptyInput(t *testing.T) {
	out, err := Map(context.Background(), nil, 4, func(int) (int, error) {
		t.Fatal(`should not be called`)
		return 0, nil
	})
	require.NoError(t, err)
	require.Empty(t, out)
}

func Test_Map_reportsFailingItem(t *testing.T) {
	in := []int{0, 1, 2, 3, 4, 5}
	boom := fmt.Errorf(`boom`)
	_, err := Map(context.Background(), in, 3, func(i int) (int, error) {
		if i == 4 {
			return 0, boom
		}
		return i, nil
	})
	require.Error(t, err)
	var itemErr *ItemError
	require.ErrorAs(t, err, &itemErr)
	require.Equal(t, 4, itemErr.Index)
	require.ErrorIs(t, err, boom)
}

func Test_InterlaceAll(t *testing.T) {
	codec, err := zorder.NewCodec(2, 4)
	require.NoError(t, err)

	var points [][]*big.Int
	for x := int64(0); x < 8; x++ {
		for y := int64(0); y < 8; y++ {
			points = append(points, []*big.Int{big.NewInt(x), big.NewInt(y)})
		}
	}
	codes, err := InterlaceAll(context.Background(), codec, points, 4)
	require.NoError(t, err)
	require.Len(t, codes, len(points))

	back, err := DeinterlaceAll(context.Background(), codec, codes, 4)
	require.NoError(t, err)
	require.Equal(t, points, back)
}

func Test_InterlaceAll_failsAtomically(t *testing.T) {
	codec, err := zorder.NewCodec(2, 4)
	require.NoError(t, err)

	points := [][]*big.Int{
		{big.NewInt(1), big.NewInt(2)},
		{big.NewInt(3)}, // wrong dimensionality
	}
	codes, err := InterlaceAll(context.Background(), codec, points, 2)
	require.Nil(t, codes)
	var itemErr *ItemError
	require.ErrorAs(t, err, &itemErr)
	require.Equal(t, 1, itemErr.Index)
	require.ErrorIs(t, err, zorder.ErrInvalidArgument)
}
