package main

import (
	"errors"
	"flag"
	"fmt"
	"math"
	"os"

	"voxelsandbox.app/internal/sim/tuning"
	"voxelsandbox.app/internal/sim/world"
)

// heightCmd prints column heights for a square window, as generated by the
// given tuning. Useful to eyeball a seed before serving it.
func heightCmd(args []string) {
	fs := flag.NewFlagSet("height", flag.ExitOnError)
	tuningPath := fs.String("tuning", "./configs/tuning.yaml", "path to tuning.yaml")
	seed := fs.Int64("seed", 0, "terrain seed override (0 keeps tuning)")
	x0 := fs.Int("x", 0, "window min x")
	z0 := fs.Int("z", 0, "window min z")
	size := fs.Int("size", 16, "window edge length in columns")
	asJSON := fs.Bool("json", false, "emit one JSON object per column")
	_ = fs.Parse(args)

	if *size <= 0 || *size > 512 {
		fmt.Fprintln(os.Stderr, "bad -size: must be in 1..512")
		os.Exit(2)
	}
	tune, err := tuning.Load(*tuningPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			fmt.Fprintln(os.Stderr, "load tuning:", err)
			os.Exit(1)
		}
		tune = tuning.Defaults()
	}
	if *seed != 0 {
		tune.Terrain.Warp.Seed = *seed
		tune.Terrain.Detail.Seed = *seed
	}

	w, err := world.New(world.ConfigFromTuning("admin", tune), nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, "world:", err)
		os.Exit(1)
	}
	rows := heightWindow(w, int32(*x0), int32(*z0), int32(*size))

	if *asJSON {
		for i, row := range rows {
			for j, h := range row {
				printJSON(struct {
					X      int     `json:"x"`
					Z      int     `json:"z"`
					Height float64 `json:"height"`
				}{X: *x0 + j, Z: *z0 + i, Height: h})
			}
		}
		return
	}
	for _, row := range rows {
		for j, h := range row {
			if j > 0 {
				fmt.Print(" ")
			}
			fmt.Printf("%4d", int(math.Ceil(h)))
		}
		fmt.Println()
	}
}

// heightWindow returns rows indexed [z][x]. The printed ceil(h) is the first
// air voxel of each column.
func heightWindow(w *world.World, x0, z0, size int32) [][]float64 {
	c := w.Classifier()
	rows := make([][]float64, size)
	for dz := int32(0); dz < size; dz++ {
		row := make([]float64, size)
		for dx := int32(0); dx < size; dx++ {
			row[dx] = c.Height(x0+dx, z0+dz)
		}
		rows[dz] = row
	}
	return rows
}
