package fit

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/trajectory.model/internal/basis"
	"github.com/banshee-data/trajectory.model/internal/geometry"
	"github.com/banshee-data/trajectory.model/internal/monitoring"
	"github.com/banshee-data/trajectory.model/internal/trajectory"
)

// EM defaults.
const (
	DefaultEMTolerance     = 1e-3
	DefaultEMMaxIterations = 2001

	// emInitialPrecision seeds the observation-noise precision.
	emInitialPrecision = 1000.0
)

// ExpectationMaximization fits a Bayesian linear regression over basis
// weights shared by all trajectories through a Gaussian prior, jointly
// estimating the prior mean, prior covariance and observation-noise
// precision. Iteration stops when the joint log-likelihood changes by less
// than Tolerance, after MaxIterations, or as soon as the state becomes
// non-finite or singular, in which case the last finite parameters are
// kept and the result is flagged Degenerate.
type ExpectationMaximization struct {
	Basis         string
	NBasis        int
	Tolerance     float64 // 0 means DefaultEMTolerance
	MaxIterations int     // 0 means DefaultEMMaxIterations
}

// Name implements Method.
func (ExpectationMaximization) Name() string { return "EM" }

// emObs caches the per-trajectory products that do not change between
// iterations.
type emObs struct {
	samples int // D·N
	hth     *mat.SymDense
	hty     *mat.VecDense
	yty     float64
}

// emParams is one complete set of model parameters.
type emParams struct {
	mu       *mat.VecDense
	sigma    *mat.SymDense
	sigmaInv *mat.SymDense
	beta     float64
}

func (m ExpectationMaximization) fit(c trajectory.Cluster, stations int) (*Result, error) {
	ev, err := basis.New(m.Basis, m.NBasis, c.Dimension())
	if err != nil {
		return nil, err
	}
	tol := m.Tolerance
	if tol <= 0 {
		tol = DefaultEMTolerance
	}
	maxIter := m.MaxIterations
	if maxIter <= 0 {
		maxIter = DefaultEMMaxIterations
	}

	obs := make([]emObs, len(c))
	totalSamples := 0
	for i, t := range c {
		h := ev.Evaluate(t.Progress)
		y := stack(t.Positions)
		hth := mat.NewSymDense(h.RawMatrix().Cols, nil)
		hth.SymOuterK(1, h.T())
		hty := mat.NewVecDense(hth.SymmetricDim(), nil)
		hty.MulVec(h.T(), y)
		obs[i] = emObs{samples: y.Len(), hth: hth, hty: hty, yty: mat.Dot(y, y)}
		totalSamples += y.Len()
	}

	k := c.Dimension() * ev.NBasis()
	cur := emParams{
		mu:       mat.NewVecDense(k, nil),
		sigma:    identity(k),
		sigmaInv: identity(k),
		beta:     emInitialPrecision,
	}

	res := &Result{}
	prevLL := math.Inf(-1)
	for it := 1; it <= maxIter; it++ {
		next, ll, ok := emStep(obs, cur, totalSamples)
		if !ok || math.IsNaN(ll) || math.IsInf(ll, 0) {
			monitoring.Warnf("EM: degenerate state at iteration %d (log-likelihood %v), keeping parameters from iteration %d", it, ll, it-1)
			res.Degenerate = true
			break
		}
		cur = next
		res.Iterations = it
		res.LogLikelihood = ll
		monitoring.Debugf("EM: iteration %d log-likelihood %.6f precision %.6g", it, ll, cur.beta)
		if math.Abs(ll-prevLL) < tol {
			break
		}
		prevLL = ll
	}

	mean, cov := project(ev.Evaluate(StationGrid(stations)), cur.mu, cur.sigma)
	res.Mean, res.Cov = mean, cov
	return res, nil
}

// emStep runs one E-step and M-step from p and returns the updated
// parameters with their joint log-likelihood. ok is false when a matrix
// that must be positive definite is not, or the precision is unusable.
func emStep(obs []emObs, p emParams, totalSamples int) (next emParams, ll float64, ok bool) {
	k := p.mu.Len()
	n := float64(len(obs))

	// E-step: posterior weight moments per trajectory.
	ew := make([]*mat.VecDense, len(obs))
	eww := make([]*mat.SymDense, len(obs))
	priorTerm := mat.NewVecDense(k, nil)
	priorTerm.MulVec(p.sigmaInv, p.mu)
	for i, o := range obs {
		a := mat.NewSymDense(k, nil)
		a.AddSym(p.sigmaInv, scaledSym(p.beta, o.hth))
		s, _, ok := invertSPD(a)
		if !ok {
			return emParams{}, 0, false
		}
		rhs := mat.NewVecDense(k, nil)
		rhs.AddScaledVec(priorTerm, p.beta, o.hty)
		w := mat.NewVecDense(k, nil)
		w.MulVec(s, rhs)
		ww := mat.NewSymDense(k, nil)
		ww.SymRankOne(s, 1, w)
		ew[i], eww[i] = w, ww
	}

	// M-step: prior mean, prior covariance, noise precision.
	mu := mat.NewVecDense(k, nil)
	for _, w := range ew {
		mu.AddVec(mu, w)
	}
	mu.ScaleVec(1/n, mu)

	acc := mat.NewDense(k, k, nil)
	var outer mat.Dense
	for i, w := range ew {
		acc.Add(acc, eww[i])
		outer.Outer(2, mu, w)
		acc.Sub(acc, &outer)
		outer.Outer(1, mu, mu)
		acc.Add(acc, &outer)
	}
	acc.Scale(1/n, acc)
	sigma := geometry.Symmetrize(acc)
	sigmaInv, logDet, ok := invertSPD(sigma)
	if !ok {
		return emParams{}, 0, false
	}

	denom := 0.0
	for i, o := range obs {
		denom += o.yty - 2*mat.Dot(ew[i], o.hty) + traceProduct(o.hth, eww[i])
	}
	beta := float64(totalSamples) / denom
	if !(beta > 0) || math.IsInf(beta, 0) {
		return emParams{}, 0, false
	}

	next = emParams{mu: mu, sigma: sigma, sigmaInv: sigmaInv, beta: beta}
	return next, emLogLikelihood(obs, next, ew, logDet), true
}

// emLogLikelihood is the joint log-likelihood of the data and the
// posterior mean weights under the given parameters:
//
//	Σₙ [ (Mₙ/2)·log(β/2π) − (β/2)·‖yₙ − Hₙ·E[wₙ]‖² ]
//	+ Σₙ [ −(K/2)·log 2π − ½·log|Σ| − ½·(E[wₙ]−μ)ᵀ Σ⁻¹ (E[wₙ]−μ) ]
func emLogLikelihood(obs []emObs, p emParams, ew []*mat.VecDense, logDet float64) float64 {
	k := p.mu.Len()
	log2Pi := math.Log(2 * math.Pi)
	diff := mat.NewVecDense(k, nil)

	ll := 0.0
	for i, o := range obs {
		w := ew[i]
		resid := o.yty - 2*mat.Dot(w, o.hty) + mat.Inner(w, o.hth, w)
		ll += 0.5*float64(o.samples)*(math.Log(p.beta)-log2Pi) - 0.5*p.beta*resid

		diff.SubVec(w, p.mu)
		ll += -0.5*float64(k)*log2Pi - 0.5*logDet - 0.5*mat.Inner(diff, p.sigmaInv, diff)
	}
	return ll
}

// invertSPD returns the inverse and log-determinant of a symmetric
// positive-definite matrix. ok is false when a is not numerically SPD.
func invertSPD(a *mat.SymDense) (inv *mat.SymDense, logDet float64, ok bool) {
	var chol mat.Cholesky
	if !chol.Factorize(a) {
		return nil, 0, false
	}
	inv = mat.NewSymDense(a.SymmetricDim(), nil)
	if err := chol.InverseTo(inv); err != nil {
		return nil, 0, false
	}
	return inv, chol.LogDet(), true
}

func identity(n int) *mat.SymDense {
	s := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		s.SetSym(i, i, 1)
	}
	return s
}

func scaledSym(f float64, a *mat.SymDense) *mat.SymDense {
	out := mat.NewSymDense(a.SymmetricDim(), nil)
	out.ScaleSym(f, a)
	return out
}

// traceProduct returns trace(a·b) for symmetric a and b.
func traceProduct(a, b mat.Symmetric) float64 {
	n := a.SymmetricDim()
	t := 0.0
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			t += a.At(i, j) * b.At(j, i)
		}
	}
	return t
}
