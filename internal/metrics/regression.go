package metrics

// olsResult holds the outcome of an ordinary least squares fit of y against
// the index 0..n-1.
type olsResult struct {
	Slope    float64
	RSquared float64
}

// linregress fits y = a + b*x for x = 0..len(y)-1. A series with zero price
// variance fits no trend: slope 0, r² 0 by convention.
func linregress(y []float64) olsResult {
	n := float64(len(y))
	if len(y) < 2 {
		return olsResult{}
	}

	var sumX, sumY, sumXX, sumXY, sumYY float64
	for i, v := range y {
		x := float64(i)
		sumX += x
		sumY += v
		sumXX += x * x
		sumXY += x * v
		sumYY += v * v
	}

	varX := sumXX - sumX*sumX/n
	varY := sumYY - sumY*sumY/n
	covXY := sumXY - sumX*sumY/n

	if varY == 0 {
		return olsResult{}
	}

	return olsResult{
		Slope:    covXY / varX,
		RSquared: (covXY * covXY) / (varX * varY),
	}
}
