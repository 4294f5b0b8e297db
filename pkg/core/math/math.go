package math

import "github.com/chewxy/math32"

func SQR(a float32) float32 {
	return a * a
}

func Clamp(a, min, max float32) float32 {
	switch {
	case a > max:
		return max
	case a < min:
		return min
	default:
		return a
	}
}

// (a^2+b^2)^(1/2) without Owerflow
func Pytag(a, b float32) float32 {
	absa := math32.Abs(a)
	absb := math32.Abs(b)
	if absa > absb {
		return absa * math32.Sqrt(1.0+SQR(absb/absa))
	} else {
		if absb > 0 {
			return absb * math32.Sqrt(1.0+SQR(absa/absb))
		}
		return 0
	}
}

// GaussianPDF returns the value of the 1-D normal probability density with
// mean mu and standard deviation sigma at x.
func GaussianPDF(x, sigma, mu float32) float32 {
	if sigma <= 0 {
		if x == mu {
			return 1
		}
		return 0
	}
	d := x - mu
	return math32.Exp(-SQR(d)/(2*SQR(sigma))) / (sigma * math32.Sqrt(2*math32.Pi))
}
