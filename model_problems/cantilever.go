package model_problems

import (
	"fmt"

	"github.com/notargets/gosao/utils"
)

// Cantilever is the segmented tip loaded cantilever beam of Vanderplaats. The
// design holds the widths b of the N segments followed by their heights h. The
// volume is minimised subject to, per segment, a bending stress limit and an
// aspect ratio limit h <= 20·b, and a limit on the tip displacement.
type Cantilever struct {
	N                  int
	P, E, L            float64 // tip load, Young's modulus, length
	SigmaMax, YMax     float64
	AspectMax          float64
	moment, tipWeights []float64
}

func NewCantilever(N int) (p *Cantilever) {
	if N < 1 {
		panic(fmt.Errorf("cantilever needs at least one segment, have %d", N))
	}
	p = &Cantilever{
		N:         N,
		P:         50000,
		E:         2e7,
		L:         500,
		SigmaMax:  14000,
		YMax:      2.5,
		AspectMax: 20,
	}
	var (
		l = p.L / float64(N)
	)
	p.moment = make([]float64, N)
	p.tipWeights = make([]float64, N)
	for k := 0; k < N; k++ {
		var (
			a = float64(k) * l // segment root, measured from the clamp
			b = a + l
		)
		p.moment[k] = p.P * (p.L - a)
		// Unit load method: y_tip = Σ_k ∫ M·m/(E·I_k) over segment k
		p.tipWeights[k] = p.P / (3 * p.E) * (utils.POW(p.L-a, 3) - utils.POW(p.L-b, 3))
	}
	return
}

func (p *Cantilever) Name() string     { return fmt.Sprintf("Cantilever(%d)", p.N) }
func (p *Cantilever) Dims() (n, m int) { return 2 * p.N, 2*p.N + 1 }

func (p *Cantilever) Bounds() (xmin, xmax []float64) {
	xmin = append(utils.ConstArray(p.N, 1), utils.ConstArray(p.N, 5)...)
	xmax = utils.ConstArray(2*p.N, 100)
	return
}

func (p *Cantilever) X0() []float64 {
	return append(utils.ConstArray(p.N, 5), utils.ConstArray(p.N, 60)...)
}

func (p *Cantilever) split(x []float64) (b, h []float64) {
	return x[:p.N], x[p.N:]
}

// TipDisplacement is Σ w_k/I_k with I_k = b_k·h_k³/12.
func (p *Cantilever) TipDisplacement(x []float64) (y float64) {
	b, h := p.split(x)
	for k, w := range p.tipWeights {
		y += 12 * w / (b[k] * utils.POW(h[k], 3))
	}
	return
}

// G returns the volume, then the N stress constraints, the N aspect ratio
// constraints and the tip displacement constraint.
func (p *Cantilever) G(x []float64) (f []float64) {
	var (
		b, h = p.split(x)
		l    = p.L / float64(p.N)
		N    = p.N
	)
	f = make([]float64, 2*N+2)
	for k := 0; k < N; k++ {
		f[0] += l * b[k] * h[k]
		f[1+k] = 6*p.moment[k]/(p.SigmaMax*b[k]*h[k]*h[k]) - 1
		f[1+N+k] = h[k] - p.AspectMax*b[k]
	}
	f[2*N+1] = p.TipDisplacement(x)/p.YMax - 1
	return
}

func (p *Cantilever) DG(x []float64) (df utils.Matrix) {
	var (
		b, h = p.split(x)
		l    = p.L / float64(p.N)
		N    = p.N
	)
	df = utils.NewMatrix(2*N+2, 2*N)
	for k := 0; k < N; k++ {
		var (
			sigma = 6 * p.moment[k] / (p.SigmaMax * b[k] * h[k] * h[k])
			y     = 12 * p.tipWeights[k] / (p.YMax * b[k] * utils.POW(h[k], 3))
		)
		df.Set(0, k, l*h[k])
		df.Set(0, N+k, l*b[k])
		df.Set(1+k, k, -sigma/b[k])
		df.Set(1+k, N+k, -2*sigma/h[k])
		df.Set(1+N+k, k, -p.AspectMax)
		df.Set(1+N+k, N+k, 1)
		df.Set(2*N+1, k, -y/b[k])
		df.Set(2*N+1, N+k, -3*y/h[k])
	}
	return
}
