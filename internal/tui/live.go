package tui

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/san-kum/leaklab/internal/circuit"
)

const (
	width       = 56
	height      = 14
	clearScreen = "\033[2J\033[H"
	hideCursor  = "\033[?25l"
	showCursor  = "\033[?25h"

	// needle swing either side of vertical, radians
	swing = math.Pi / 3
)

// LiveRenderer is a sim observer that redraws a galvanometer dial on a plain
// terminal. Frames are spaced in sim time so scripted runs render the same
// as live ones.
type LiveRenderer struct {
	out       io.Writer
	frameRate int
	lastFrame float64
	lastKeys  [2]bool
	drawn     bool
	canvas    [][]rune
}

func NewLiveRenderer(out io.Writer, frameRate int) *LiveRenderer {
	if frameRate <= 0 {
		frameRate = 30
	}
	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = make([]rune, width)
	}
	return &LiveRenderer{
		out:       out,
		frameRate: frameRate,
		canvas:    canvas,
	}
}

func (r *LiveRenderer) OnStep(x circuit.State) {
	keys := [2]bool{x.K1Closed, x.K2Closed}
	if r.drawn && keys == r.lastKeys && x.SimTime-r.lastFrame < 1/float64(r.frameRate) {
		return
	}
	r.drawn = true
	r.lastFrame = x.SimTime
	r.lastKeys = keys

	r.clear()
	r.drawDial(x.Deflection())
	r.render(x)
}

func (r *LiveRenderer) clear() {
	for y := range r.canvas {
		for x := range r.canvas[y] {
			r.canvas[y][x] = ' '
		}
	}
}

func (r *LiveRenderer) set(x, y int, c rune) {
	if x >= 0 && x < width && y >= 0 && y < height {
		r.canvas[y][x] = c
	}
}

func (r *LiveRenderer) line(x1, y1, x2, y2 int, c rune) {
	dx := abs(x2 - x1)
	dy := abs(y2 - y1)
	sx, sy := 1, 1
	if x1 > x2 {
		sx = -1
	}
	if y1 > y2 {
		sy = -1
	}
	err := dx - dy
	for {
		r.set(x1, y1, c)
		if x1 == x2 && y1 == y2 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}

// dial point at angle a from vertical and radius rad; x is doubled to make
// up for terminal cells being twice as tall as wide
func dialPoint(a, rad float64) (int, int) {
	px, py := width/2, height-2
	return px + int(math.Round(2*rad*math.Sin(a))), py - int(math.Round(rad*math.Cos(a)))
}

func (r *LiveRenderer) drawDial(deflection float64) {
	rad := float64(height - 4)

	for i := 0; i <= 40; i++ {
		a := -swing + 2*swing*float64(i)/40
		x, y := dialPoint(a, rad)
		r.set(x, y, '·')
	}
	for i := 0; i <= 10; i++ {
		a := -swing + 2*swing*float64(i)/10
		x, y := dialPoint(a, rad+1)
		c := '|'
		if i%5 == 0 {
			c = '┃'
		}
		r.set(x, y, c)
	}

	a := -swing + 2*swing*deflection
	px, py := dialPoint(0, 0)
	nx, ny := dialPoint(a, rad-1)
	r.line(px, py, nx, ny, '*')
	r.set(px, py, 'o')

	for i := 3; i < width-3; i++ {
		r.set(i, height-1, '=')
	}
}

func (r *LiveRenderer) render(x circuit.State) {
	var b strings.Builder
	b.WriteString(clearScreen)
	b.WriteString(fmt.Sprintf("  galvanometer  %s  t=%.2fs\n", x.Phase(), x.SimTime))
	b.WriteString("  " + strings.Repeat("-", width) + "\n")

	for _, row := range r.canvas {
		b.WriteString("  ")
		b.WriteString(string(row))
		b.WriteString("\n")
	}

	b.WriteString("  " + strings.Repeat("-", width) + "\n")
	b.WriteString(fmt.Sprintf("  θ=%.1f/%.0f  K1 %s  K2 %s\n",
		x.Voltage, x.MaxVoltage, circuit.KeyLabel(x.K1Closed), circuit.KeyLabel(x.K2Closed)))

	fmt.Fprint(r.out, b.String())
}

func (r *LiveRenderer) Start() { fmt.Fprint(r.out, hideCursor) }
func (r *LiveRenderer) Stop()  { fmt.Fprint(r.out, showCursor) }

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
