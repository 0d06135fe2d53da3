// Package jobs describes batch runs of the zorder core as a JSON document,
// the input format of the CLI batch command. Coordinates and codes travel as
// strings so arbitrary precision survives JSON.
package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/big"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/perimeterx/marshmallow"

	"github.com/rmrschub/zcurve/batch"
	"github.com/rmrschub/zcurve/zorder"
)

const (
	OpInterlace   = `interlace`
	OpDeinterlace = `deinterlace`
	OpNextMorton  = `next-morton`
	OpPrevMorton  = `prev-morton`
	OpInRange     = `in-range`
)

// Job is one batch run: a single operation applied to many inputs.
type Job struct {
	Op string `validate:"required,oneof=interlace deinterlace next-morton prev-morton in-range" json:"op"`
	// Dims is required for all code-consuming ops. For interlace it is
	// optional and checked against the length of each point.
	Dims uint `json:"dims,omitempty"`
	// BitsPerDim 0 means infer per item.
	BitsPerDim uint `json:"bitsPerDim,omitempty"`
	// Base is the numeric base the inputs are written in and the outputs
	// will be written in.
	Base int `default:"10" validate:"oneof=2 10 16" json:"base,omitempty"`
	// Workers 0 means one worker per CPU.
	Workers int        `validate:"gte=0" json:"workers,omitempty"`
	Points  [][]string `json:"points,omitempty"`
	Codes   []string   `json:"codes,omitempty"`
	RMin    string     `json:"rmin,omitempty"`
	RMax    string     `json:"rmax,omitempty"`
}

// Result holds the outputs of a Job in input order. Only the field matching
// the job's op is set.
type Result struct {
	Codes   []string   `json:"codes,omitempty"`
	Points  [][]string `json:"points,omitempty"`
	InRange []bool     `json:"inRange,omitempty"`
}

func (job *Job) UnmarshalJSON(data []byte) error {
	if err := defaults.Set(job); err != nil {
		return err
	}
	unknowns, err := marshmallow.Unmarshal(data, job, marshmallow.WithExcludeKnownFieldsFromMap(true))
	if err != nil {
		return err
	}
	for key := range unknowns {
		log.Printf(`ignoring unknown job key %q`, key)
	}
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(job); err != nil {
		return err
	}
	return job.validateOp()
}

// ParseJob reads a job document.
func ParseJob(data []byte) (Job, error) {
	var job Job
	err := json.Unmarshal(data, &job)
	return job, err
}

func (job *Job) validateOp() error {
	switch job.Op {
	case OpInterlace:
		if len(job.Points) == 0 {
			return fmt.Errorf(`%w: op %s needs points`, zorder.ErrInvalidArgument, job.Op)
		}
	case OpDeinterlace:
		if job.Dims < 1 {
			return fmt.Errorf(`%w: op %s needs dims`, zorder.ErrInvalidArgument, job.Op)
		}
		if len(job.Codes) == 0 {
			return fmt.Errorf(`%w: op %s needs codes`, zorder.ErrInvalidArgument, job.Op)
		}
	case OpNextMorton, OpPrevMorton, OpInRange:
		if job.Dims < 1 {
			return fmt.Errorf(`%w: op %s needs dims`, zorder.ErrInvalidArgument, job.Op)
		}
		if len(job.Codes) == 0 {
			return fmt.Errorf(`%w: op %s needs codes`, zorder.ErrInvalidArgument, job.Op)
		}
		if job.RMin == `` || job.RMax == `` {
			return fmt.Errorf(`%w: op %s needs rmin and rmax`, zorder.ErrInvalidArgument, job.Op)
		}
	}
	return nil
}

// Run executes the job, fanning the items out over the batch worker pool.
func (job *Job) Run(ctx context.Context) (Result, error) {
	switch job.Op {
	case OpInterlace:
		return job.runInterlace(ctx)
	case OpDeinterlace:
		return job.runDeinterlace(ctx)
	case OpNextMorton, OpPrevMorton:
		return job.runNextPrev(ctx)
	case OpInRange:
		return job.runInRange(ctx)
	default:
		return Result{}, fmt.Errorf(`%w: unknown op %q`, zorder.ErrInvalidArgument, job.Op)
	}
}

func (job *Job) runInterlace(ctx context.Context) (Result, error) {
	codes, err := batch.Map(ctx, job.Points, job.Workers, func(rawPoint []string) (*big.Int, error) {
		point, err := job.parsePoint(rawPoint)
		if err != nil {
			return nil, err
		}
		if job.Dims > 0 && uint(len(point)) != job.Dims {
			return nil, fmt.Errorf(`%w: got %d coordinates, dims is %d`, zorder.ErrInvalidArgument, len(point), job.Dims)
		}
		if job.BitsPerDim > 0 {
			codec, err := zorder.NewCodec(uint(len(point)), job.BitsPerDim)
			if err != nil {
				return nil, err
			}
			return codec.Interlace(point)
		}
		return zorder.Interlace(point)
	})
	if err != nil {
		return Result{}, err
	}
	return Result{Codes: job.formatCodes(codes)}, nil
}

func (job *Job) runDeinterlace(ctx context.Context) (Result, error) {
	points, err := batch.Map(ctx, job.Codes, job.Workers, func(rawCode string) ([]*big.Int, error) {
		code, err := job.parseNum(rawCode)
		if err != nil {
			return nil, err
		}
		if job.BitsPerDim > 0 {
			codec, err := zorder.NewCodec(job.Dims, job.BitsPerDim)
			if err != nil {
				return nil, err
			}
			return codec.Deinterlace(code)
		}
		return zorder.Deinterlace(code, job.Dims)
	})
	if err != nil {
		return Result{}, err
	}
	result := Result{Points: make([][]string, len(points))}
	for i, point := range points {
		result.Points[i] = job.formatCodes(point)
	}
	return result, nil
}

func (job *Job) runNextPrev(ctx context.Context) (Result, error) {
	rmin, rmax, err := job.parseRange()
	if err != nil {
		return Result{}, err
	}
	codes, err := batch.Map(ctx, job.Codes, job.Workers, func(rawCode string) (*big.Int, error) {
		code, err := job.parseNum(rawCode)
		if err != nil {
			return nil, err
		}
		if job.Op == OpNextMorton {
			return zorder.NextMorton(code, rmin, rmax, job.Dims)
		}
		return zorder.PrevMorton(code, rmin, rmax, job.Dims)
	})
	if err != nil {
		return Result{}, err
	}
	return Result{Codes: job.formatCodes(codes)}, nil
}

func (job *Job) runInRange(ctx context.Context) (Result, error) {
	rmin, rmax, err := job.parseRange()
	if err != nil {
		return Result{}, err
	}
	inRange, err := batch.Map(ctx, job.Codes, job.Workers, func(rawCode string) (bool, error) {
		code, err := job.parseNum(rawCode)
		if err != nil {
			return false, err
		}
		return zorder.InRange(code, rmin, rmax, job.Dims)
	})
	if err != nil {
		return Result{}, err
	}
	return Result{InRange: inRange}, nil
}

func (job *Job) parseNum(s string) (*big.Int, error) {
	n, ok := new(big.Int).SetString(s, job.Base)
	if !ok {
		return nil, fmt.Errorf(`%w: %q is not a base %d integer`, zorder.ErrInvalidArgument, s, job.Base)
	}
	return n, nil
}

func (job *Job) parsePoint(rawPoint []string) ([]*big.Int, error) {
	point := make([]*big.Int, len(rawPoint))
	for i, raw := range rawPoint {
		n, err := job.parseNum(raw)
		if err != nil {
			return nil, err
		}
		point[i] = n
	}
	return point, nil
}

func (job *Job) formatCodes(codes []*big.Int) []string {
	formatted := make([]string, len(codes))
	for i, code := range codes {
		formatted[i] = code.Text(job.Base)
	}
	return formatted
}

func (job *Job) parseRange() (rmin, rmax *big.Int, err error) {
	if rmin, err = job.parseNum(job.RMin); err != nil {
		return nil, nil, err
	}
	if rmax, err = job.parseNum(job.RMax); err != nil {
		return nil, nil, err
	}
	return rmin, rmax, nil
}
