package crs

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

// GeoidModel returns the geoid undulation (metres above the ellipsoid) at a
// position for a named model such as "egm96".
type GeoidModel interface {
	Undulation(model string, lat, lon float64) (float64, error)
}

// FallbackUndulation is the smooth approximation used when no grid is
// available.
func FallbackUndulation(lat float64) float64 {
	return -0.53*math.Cos(2*lat*math.Pi/180) + 0.1
}

// PGMGeoids reads GeographicLib geoid grids (egm96-5.pgm, egm2008-1.pgm, ...)
// from a directory. Grids are loaded on first use and kept in memory.
type PGMGeoids struct {
	dir string

	mu    sync.Mutex
	grids map[string]*pgmGrid
}

// NewPGMGeoids returns a reader for grids stored in dir.
func NewPGMGeoids(dir string) *PGMGeoids {
	return &PGMGeoids{dir: dir, grids: make(map[string]*pgmGrid)}
}

// Undulation implements GeoidModel.
func (g *PGMGeoids) Undulation(model string, lat, lon float64) (float64, error) {
	grid, err := g.grid(strings.ToLower(model))
	if err != nil {
		return 0, err
	}
	return grid.interpolate(lat, lon), nil
}

func (g *PGMGeoids) grid(model string) (*pgmGrid, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if grid, ok := g.grids[model]; ok {
		return grid, nil
	}
	var lastErr error
	for _, name := range []string{model + ".pgm", model + "-5.pgm", model + "-1.pgm"} {
		f, err := os.Open(filepath.Join(g.dir, name))
		if err != nil {
			lastErr = err
			continue
		}
		grid, err := readPGM(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("geoid grid %s: %w", name, err)
		}
		g.grids[model] = grid
		return grid, nil
	}
	return nil, fmt.Errorf("geoid model %q: %w", model, lastErr)
}

type pgmGrid struct {
	width, height int
	offset, scale float64
	data          []uint16
}

func readPGM(r io.Reader) (*pgmGrid, error) {
	br := bufio.NewReader(r)
	magic, err := br.ReadString('\n')
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(magic) != "P5" {
		return nil, errors.New("not a binary PGM file")
	}

	grid := &pgmGrid{scale: 1}
	var dims []int
	for len(dims) < 3 {
		line, err := br.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("reading header: %w", err)
		}
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "#") {
			fields := strings.Fields(strings.TrimPrefix(line, "#"))
			if len(fields) == 2 {
				v, err := strconv.ParseFloat(fields[1], 64)
				switch {
				case err != nil:
				case fields[0] == "Offset":
					grid.offset = v
				case fields[0] == "Scale":
					grid.scale = v
				}
			}
			continue
		}
		for _, f := range strings.Fields(line) {
			n, err := strconv.Atoi(f)
			if err != nil {
				return nil, fmt.Errorf("bad header value %q", f)
			}
			dims = append(dims, n)
		}
	}
	grid.width, grid.height = dims[0], dims[1]
	if grid.width <= 1 || grid.height <= 1 || dims[2] != 65535 {
		return nil, fmt.Errorf("unsupported grid %dx%d max %d", dims[0], dims[1], dims[2])
	}
	grid.data = make([]uint16, grid.width*grid.height)
	if err := binary.Read(br, binary.BigEndian, grid.data); err != nil {
		return nil, fmt.Errorf("reading samples: %w", err)
	}
	return grid, nil
}

func (g *pgmGrid) value(row, col int) float64 {
	if row < 0 {
		row = 0
	}
	if row >= g.height {
		row = g.height - 1
	}
	col = ((col % g.width) + g.width) % g.width
	return g.offset + g.scale*float64(g.data[row*g.width+col])
}

// interpolate samples the grid bilinearly. Rows run from 90N southwards and
// columns from 0E eastwards.
func (g *pgmGrid) interpolate(lat, lon float64) float64 {
	lon = math.Mod(lon, 360)
	if lon < 0 {
		lon += 360
	}
	step := 180 / float64(g.height-1)
	fy := (90 - lat) / step
	fx := lon / step
	row, col := int(math.Floor(fy)), int(math.Floor(fx))
	dy, dx := fy-float64(row), fx-float64(col)

	v00 := g.value(row, col)
	v01 := g.value(row, col+1)
	v10 := g.value(row+1, col)
	v11 := g.value(row+1, col+1)
	return (1-dy)*((1-dx)*v00+dx*v01) + dy*((1-dx)*v10+dx*v11)
}
