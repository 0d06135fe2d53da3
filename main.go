package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/big"
	"os"

	"github.com/carlmjohnson/versioninfo"
	"github.com/iancoleman/strcase"
	"github.com/urfave/cli/v2"

	"github.com/rmrschub/zcurve/jobs"
	"github.com/rmrschub/zcurve/zorder"
)

const DIMS string = `dims`
const BITSPERDIM string = `bitsPerDim`
const BASE string = `base`
const JOBFILE string = `jobfile`
const WORKERS string = `workers`

//nolint:funlen
func main() {
	app := cli.NewApp()
	app.Name = "zcurve"
	app.Usage = "Morton (Z-order) coding and BIGMIN/LITMAX range pruning for multi-dimensional data"
	app.Version = versioninfo.Short()

	dimsFlag := &cli.UintFlag{
		Name:    DIMS,
		Aliases: []string{"d"},
		Usage:   "Dimensionality of the data space",
		EnvVars: []string{strcase.ToScreamingSnake(DIMS)},
	}
	bitsFlag := &cli.UintFlag{
		Name:    BITSPERDIM,
		Aliases: []string{"b"},
		Usage:   "Encoding bits per dimension. 0 means infer from the input",
		EnvVars: []string{strcase.ToScreamingSnake(BITSPERDIM)},
	}
	baseFlag := &cli.IntFlag{
		Name:    BASE,
		Usage:   "Numeric base of the in- and outputs (2, 10 or 16)",
		Value:   10,
		EnvVars: []string{strcase.ToScreamingSnake(BASE)},
	}

	app.Commands = []*cli.Command{
		{
			Name:      "interlace",
			Usage:     "Interlace a multi-dimensional data point into its 1D Morton code",
			ArgsUsage: "COORDINATE...",
			Flags:     []cli.Flag{dimsFlag, bitsFlag, baseFlag},
			Action:    interlaceAction,
		},
		{
			Name:      "deinterlace",
			Usage:     "Deinterlace a 1D Morton code into its multi-dimensional data point",
			ArgsUsage: "CODE",
			Flags:     []cli.Flag{dimsFlag, bitsFlag, baseFlag},
			Action:    deinterlaceAction,
		},
		{
			Name:      "next-morton",
			Usage:     "BIGMIN: the next Morton code within [RMIN, RMAX] after CODE",
			ArgsUsage: "CODE RMIN RMAX",
			Flags:     []cli.Flag{dimsFlag, baseFlag},
			Action:    rangeAction,
		},
		{
			Name:      "prev-morton",
			Usage:     "LITMAX: the previous Morton code within [RMIN, RMAX] before CODE",
			ArgsUsage: "CODE RMIN RMAX",
			Flags:     []cli.Flag{dimsFlag, baseFlag},
			Action:    rangeAction,
		},
		{
			Name:      "in-range",
			Usage:     "Whether CODE decodes to a point within the rectangle spanned by RMIN and RMAX",
			ArgsUsage: "CODE RMIN RMAX",
			Flags:     []cli.Flag{dimsFlag, baseFlag},
			Action:    rangeAction,
		},
		{
			Name:  "batch",
			Usage: "Run a JSON job file over a worker pool",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     JOBFILE,
					Aliases:  []string{"j"},
					Usage:    "Path of the job file",
					Required: true,
					EnvVars:  []string{strcase.ToScreamingSnake(JOBFILE)},
				},
				&cli.IntFlag{
					Name:    WORKERS,
					Aliases: []string{"w"},
					Usage:   "Worker pool size. 0 means one worker per CPU",
					EnvVars: []string{strcase.ToScreamingSnake(WORKERS)},
				},
			},
			Action: batchAction,
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		log.Fatal(err)
	}
}

func interlaceAction(c *cli.Context) error {
	point, err := parseArgs(c, c.Args().Slice())
	if err != nil {
		return err
	}
	if dims := c.Uint(DIMS); dims > 0 && dims != uint(len(point)) {
		return fmt.Errorf(`got %d coordinates, %s is %d`, len(point), DIMS, dims)
	}
	var code *big.Int
	if bits := c.Uint(BITSPERDIM); bits > 0 {
		codec, err := zorder.NewCodec(uint(len(point)), bits)
		if err != nil {
			return err
		}
		code, err = codec.Interlace(point)
		if err != nil {
			return err
		}
	} else if code, err = zorder.Interlace(point); err != nil {
		return err
	}
	fmt.Println(code.Text(c.Int(BASE)))
	return nil
}

func deinterlaceAction(c *cli.Context) error {
	args, err := parseArgs(c, c.Args().Slice())
	if err != nil {
		return err
	}
	if len(args) != 1 {
		return fmt.Errorf(`expected exactly one CODE argument, got %d`, len(args))
	}
	dims := c.Uint(DIMS)
	var point []*big.Int
	if bits := c.Uint(BITSPERDIM); bits > 0 {
		codec, err := zorder.NewCodec(dims, bits)
		if err != nil {
			return err
		}
		point, err = codec.Deinterlace(args[0])
		if err != nil {
			return err
		}
	} else if point, err = zorder.Deinterlace(args[0], dims); err != nil {
		return err
	}
	for _, v := range point {
		fmt.Println(v.Text(c.Int(BASE)))
	}
	return nil
}

func rangeAction(c *cli.Context) error {
	args, err := parseArgs(c, c.Args().Slice())
	if err != nil {
		return err
	}
	if len(args) != 3 {
		return fmt.Errorf(`expected CODE RMIN RMAX arguments, got %d`, len(args))
	}
	code, rmin, rmax := args[0], args[1], args[2]
	dims := c.Uint(DIMS)
	switch c.Command.Name {
	case "next-morton":
		next, err := zorder.NextMorton(code, rmin, rmax, dims)
		if err != nil {
			return err
		}
		fmt.Println(next.Text(c.Int(BASE)))
	case "prev-morton":
		prev, err := zorder.PrevMorton(code, rmin, rmax, dims)
		if err != nil {
			return err
		}
		fmt.Println(prev.Text(c.Int(BASE)))
	case "in-range":
		inRange, err := zorder.InRange(code, rmin, rmax, dims)
		if err != nil {
			return err
		}
		fmt.Println(inRange)
	}
	return nil
}

func batchAction(c *cli.Context) error {
	data, err := os.ReadFile(c.String(JOBFILE))
	if err != nil {
		return fmt.Errorf(`error reading job file: %w`, err)
	}
	job, err := jobs.ParseJob(data)
	if err != nil {
		return fmt.Errorf(`error parsing job file: %w`, err)
	}
	if workers := c.Int(WORKERS); workers > 0 {
		job.Workers = workers
	}
	log.Printf(`running %s over %d items`, job.Op, len(job.Points)+len(job.Codes))
	result, err := job.Run(context.Background())
	if err != nil {
		return err
	}
	out, err := json.Marshal(result)
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func parseArgs(c *cli.Context, args []string) ([]*big.Int, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf(`missing arguments, see %s %s --help`, c.App.Name, c.Command.Name)
	}
	base := c.Int(BASE)
	nums := make([]*big.Int, len(args))
	for i, arg := range args {
		n, ok := new(big.Int).SetString(arg, base)
		if !ok {
			return nil, fmt.Errorf(`%q is not a base %d integer`, arg, base)
		}
		nums[i] = n
	}
	return nums, nil
}
