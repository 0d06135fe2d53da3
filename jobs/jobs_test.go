package jobs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rmrschub/zcurve/batch"
	"github.com/rmrschub/zcurve/zorder"
)

func Test_ParseJob(t *testing.T) {
	job, err := ParseJob([]byte(`{
		"op": "interlace",
		"dims": 2,
		"points": [["6", "3"], ["5", "3"]],
		"somethingUnknown": true
	}`))
	require.NoError(t, err)
	require.Equal(t, OpInterlace, job.Op)
	require.Equal(t, uint(2), job.Dims)
	require.Equal(t, 10, job.Base, `base should default to 10`)
	require.Len(t, job.Points, 2)
}

func Test_ParseJob_errors(t *testing.T) {
	tests := []struct {
		name string
		json string
	}{
		{name: `unknown op`, json: `{"op": "frobnicate", "points": [["1"]]}`},
		{name: `missing op`, json: `{"points": [["1"]]}`},
		{name: `bad base`, json: `{"op": "interlace", "base": 7, "points": [["1"]]}`},
		{name: `interlace without points`, json: `{"op": "interlace"}`},
		{name: `deinterlace without dims`, json: `{"op": "deinterlace", "codes": ["30"]}`},
		{name: `next-morton without range`, json: `{"op": "next-morton", "dims": 2, "codes": ["30"]}`},
		{name: `negative workers`, json: `{"op": "interlace", "workers": -1, "points": [["1"]]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseJob([]byte(tt.json))
			require.Error(t, err)
		})
	}
}

func Test_Job_Run(t *testing.T) {
	tests := []struct {
		name string
		json string
		want Result
	}{
		{
			name: `interlace`,
			json: `{"op": "interlace", "dims": 2, "points": [["6", "3"], ["5", "3"], ["10", "5"]]}`,
			want: Result{Codes: []string{`30`, `27`, `102`}},
		},
		{
			name: `interlace inferred dims`,
			json: `{"op": "interlace", "points": [["2", "16", "8"]]}`,
			want: Result{Codes: []string{`10248`}},
		},
		{
			name: `interlace hex`,
			json: `{"op": "interlace", "base": 16, "points": [["a", "5"]]}`,
			want: Result{Codes: []string{`66`}},
		},
		{
			name: `deinterlace`,
			json: `{"op": "deinterlace", "dims": 3, "codes": ["4711"]}`,
			want: Result{Points: [][]string{{`29`, `1`, `3`}}},
		},
		{
			name: `next-morton`,
			json: `{"op": "next-morton", "dims": 2, "codes": ["30", "58"], "rmin": "27", "rmax": "102"}`,
			want: Result{Codes: []string{`31`, `74`}},
		},
		{
			name: `prev-morton`,
			json: `{"op": "prev-morton", "dims": 2, "codes": ["30"], "rmin": "27", "rmax": "102"}`,
			want: Result{Codes: []string{`27`}},
		},
		{
			name: `in-range`,
			json: `{"op": "in-range", "dims": 2, "codes": ["58", "49"], "rmin": "27", "rmax": "102"}`,
			want: Result{InRange: []bool{false, true}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job, err := ParseJob([]byte(tt.json))
			require.NoError(t, err)
			result, err := job.Run(context.Background())
			require.NoError(t, err)
			require.Equal(t, tt.want, result)
		})
	}
}

func Test_Job_Run_reportsFailingItem(t *testing.T) {
	job, err := ParseJob([]byte(`{"op": "deinterlace", "dims": 2, "codes": ["30", "zzz", "27"]}`))
	require.NoError(t, err)
	_, err = job.Run(context.Background())
	var itemErr *batch.ItemError
	require.ErrorAs(t, err, &itemErr)
	require.Equal(t, 1, itemErr.Index)
	require.ErrorIs(t, err, zorder.ErrInvalidArgument)
}

func Test_Job_Run_explicitBitsPerDim(t *testing.T) {
	// 10 does not fit in 3 bits: with explicit bits the call must fail
	// instead of silently truncating
	job, err := ParseJob([]byte(`{"op": "interlace", "bitsPerDim": 3, "points": [["10", "5"]]}`))
	require.NoError(t, err)
	_, err = job.Run(context.Background())
	require.ErrorIs(t, err, zorder.ErrInvalidArgument)

	job, err = ParseJob([]byte(`{"op": "interlace", "bitsPerDim": 4, "points": [["10", "5"]]}`))
	require.NoError(t, err)
	result, err := job.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, Result{Codes: []string{`102`}}, result)
}
