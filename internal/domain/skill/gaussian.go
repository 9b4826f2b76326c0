package skill

import "math"

// Gaussian helpers for the paired-comparison update. Variable names follow
// the TrueSkill paper: v and w are the additive and multiplicative
// truncated-Gaussian correction terms.

func pdf(x float64) float64 {
	return math.Exp(-x*x/2) / math.Sqrt(2*math.Pi)
}

func cdf(x float64) float64 {
	return 0.5 * (1 + math.Erf(x/math.Sqrt2))
}

// invCdf approximates the standard normal quantile function using Acklam's
// rational approximation, accurate to ~1e-9 over (0,1).
func invCdf(p float64) float64 {
	if p <= 0 {
		return math.Inf(-1)
	}
	if p >= 1 {
		return math.Inf(1)
	}

	a := [6]float64{-3.969683028665376e+01, 2.209460984245205e+02, -2.759285104469687e+02,
		1.383577518672690e+02, -3.066479806614716e+01, 2.506628277459239e+00}
	b := [5]float64{-5.447609879822406e+01, 1.615858368580409e+02, -1.556989798598866e+02,
		6.680131188771972e+01, -1.328068155288572e+01}
	c := [6]float64{-7.784894002430293e-03, -3.223964580411365e-01, -2.400758277161838e+00,
		-2.549732539343734e+00, 4.374664141464968e+00, 2.938163982698783e+00}
	d := [4]float64{7.784695709041462e-03, 3.224671290700398e-01, 2.445134137142996e+00,
		3.754408661907416e+00}

	const pLow = 0.02425
	switch {
	case p < pLow:
		q := math.Sqrt(-2 * math.Log(p))
		return (((((c[0]*q+c[1])*q+c[2])*q+c[3])*q+c[4])*q + c[5]) /
			((((d[0]*q+d[1])*q+d[2])*q+d[3])*q + 1)
	case p > 1-pLow:
		q := math.Sqrt(-2 * math.Log(1-p))
		return -(((((c[0]*q+c[1])*q+c[2])*q+c[3])*q+c[4])*q + c[5]) /
			((((d[0]*q+d[1])*q+d[2])*q+d[3])*q + 1)
	default:
		q := p - 0.5
		r := q * q
		return (((((a[0]*r+a[1])*r+a[2])*r+a[3])*r+a[4])*r + a[5]) * q /
			(((((b[0]*r+b[1])*r+b[2])*r+b[3])*r+b[4])*r + 1)
	}
}

// vWin is the mean correction for an observed win with draw margin eps.
func vWin(t, eps float64) float64 {
	denom := cdf(t - eps)
	if denom < 1e-12 {
		// Deep in the tail the ratio degenerates; use its asymptote.
		return eps - t
	}
	return pdf(t-eps) / denom
}

// wWin is the variance correction for an observed win.
func wWin(t, eps float64) float64 {
	v := vWin(t, eps)
	w := v * (v + t - eps)
	return clamp01(w)
}

// vDraw is the mean correction for an observed draw. With a zero margin the
// truncated region collapses to a point and the limit is -t.
func vDraw(t, eps float64) float64 {
	denom := cdf(eps-t) - cdf(-eps-t)
	if denom < 1e-12 {
		return -t
	}
	return (pdf(-eps-t) - pdf(eps-t)) / denom
}

// wDraw is the variance correction for an observed draw; 1 in the
// zero-margin limit (the performance difference is observed exactly).
func wDraw(t, eps float64) float64 {
	denom := cdf(eps-t) - cdf(-eps-t)
	if denom < 1e-12 {
		return 1
	}
	v := vDraw(t, eps)
	w := v*v + ((eps-t)*pdf(eps-t)+(eps+t)*pdf(eps+t))/denom
	return clamp01(w)
}

func clamp01(x float64) float64 {
	switch {
	case x < 0:
		return 0
	case x > 1:
		return 1
	default:
		return x
	}
}
