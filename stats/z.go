package stats

import "gonum.org/v1/gonum/stat/distuv"

// ZVal returns the two-tailed Z-value associated with a specific confidence interval.
// The interval is a number from 0 to 100 percent.
func ZVal(confidenceInterval float64) float64 {
	dist := distuv.Normal{
		Mu:    0,
		Sigma: 1,
	}
	area := (1 + (confidenceInterval / 100)) / 2
	return dist.Quantile(area)
}

// ScoreRate returns the fraction of points won over games, counting a tie
// as half a win, and the half-width of its confidence interval at the given
// confidence (in percent), using the normal approximation.
func ScoreRate(wins, ties, games int, confidence float64) (rate, margin float64) {
	if games == 0 {
		return 0, 0
	}
	s := &Statistic{}
	for i := 0; i < games; i++ {
		switch {
		case i < wins:
			s.Push(1)
		case i < wins+ties:
			s.Push(0.5)
		default:
			s.Push(0)
		}
	}
	return s.Mean(), ZVal(confidence) * s.StandardError()
}
