/*
DESCRIPTION
  border.go implements extend_frame (§4.2): each plane's border is filled
  by downsampling the four image edges by 4, averaging the two adjacent
  downsampled edge samples into each corner, then replicating each
  downsampled edge sample across a 4-sample-wide border stripe.
*/

package frame

// downFactor is the edge downsampling factor used to build the border
// halo.
const downFactor = 4

// Extend fills the border of every plane from its visible content. It is
// idempotent: calling it twice produces the same halo, since the halo is
// always rebuilt from the (unchanged) visible image.
func (f *Frame) Extend() {
	for _, p := range f.Planes() {
		if p.Bordered {
			extendPlane(p)
		}
	}
}

// downsampleEdge averages groups of downFactor samples along an edge,
// handling a final short group by averaging whatever remains.
func downsampleEdge(samples []int) []int {
	n := (len(samples) + downFactor - 1) / downFactor
	out := make([]int, n)
	for i := 0; i < n; i++ {
		start := i * downFactor
		end := start + downFactor
		if end > len(samples) {
			end = len(samples)
		}
		sum := 0
		for _, s := range samples[start:end] {
			sum += s
		}
		out[i] = sum / (end - start)
	}
	return out
}

func extendPlane(p *Plane) {
	w, h := p.W, p.H

	topRow := make([]int, w)
	botRow := make([]int, w)
	for x := 0; x < w; x++ {
		topRow[x] = int(p.At(x, 0))
		botRow[x] = int(p.At(x, h-1))
	}
	leftCol := make([]int, h)
	rightCol := make([]int, h)
	for y := 0; y < h; y++ {
		leftCol[y] = int(p.At(0, y))
		rightCol[y] = int(p.At(w-1, y))
	}

	topDown := downsampleEdge(topRow)
	botDown := downsampleEdge(botRow)
	leftDown := downsampleEdge(leftCol)
	rightDown := downsampleEdge(rightCol)

	// Replicate each downsampled edge sample across a downFactor-wide
	// stripe, along the top/bottom edges (image width only) and the
	// left/right edges (image height only); corners are handled separately.
	replicateRow := func(y int, down []int) {
		for i, v := range down {
			start := i * downFactor
			end := start + downFactor
			if end > w {
				end = w
			}
			for x := start; x < end; x++ {
				p.Set(x, y, byte(clamp8(v)))
			}
		}
	}
	for yy := -Border; yy < 0; yy++ {
		replicateRow(yy, topDown)
	}
	for yy := h; yy < h+Border; yy++ {
		replicateRow(yy, botDown)
	}

	replicateCol := func(x int, down []int) {
		for i, v := range down {
			start := i * downFactor
			end := start + downFactor
			if end > h {
				end = h
			}
			for y := start; y < end; y++ {
				p.Set(x, y, byte(clamp8(v)))
			}
		}
	}
	for xx := -Border; xx < 0; xx++ {
		replicateCol(xx, leftDown)
	}
	for xx := w; xx < w+Border; xx++ {
		replicateCol(xx, rightDown)
	}

	// Corners: 1:1 average of the two adjacent downsampled edge samples,
	// replicated across the full Border x Border corner block.
	fillCorner := func(x0, y0 int, a, b int) {
		v := byte(clamp8((a + b + 1) / 2))
		for y := y0; y < y0+Border; y++ {
			for x := x0; x < x0+Border; x++ {
				p.Set(x, y, v)
			}
		}
	}
	fillCorner(-Border, -Border, leftDown[0], topDown[0])
	fillCorner(w, -Border, rightDown[0], topDown[len(topDown)-1])
	fillCorner(-Border, h, leftDown[len(leftDown)-1], botDown[0])
	fillCorner(w, h, rightDown[len(rightDown)-1], botDown[len(botDown)-1])
}

func clamp8(v int) int {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}
