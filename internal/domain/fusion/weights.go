package fusion

// Weights is the fusion combination policy: a weighted mean of the
// classifier confidence, the location score, and the inverted fraud
// score. The mean is monotonic: raising confidence or location score,
// or lowering fraud score, never lowers the overall score.
type Weights struct {
	Confidence float64
	Location   float64
	Fraud      float64
}

// DefaultWeights favors the classifier slightly over the other signals.
func DefaultWeights() Weights {
	return Weights{Confidence: 0.4, Location: 0.3, Fraud: 0.3}
}

// normalized scales the weights to sum to 1.
func (w Weights) normalized() Weights {
	sum := w.Confidence + w.Location + w.Fraud
	if sum <= 0 {
		return DefaultWeights()
	}
	return Weights{
		Confidence: w.Confidence / sum,
		Location:   w.Location / sum,
		Fraud:      w.Fraud / sum,
	}
}

// Combine computes the overall score from the three sub-scores. fraud
// enters inverted so that a cleaner image scores higher.
func (w Weights) Combine(confidence, location, fraud float64) float64 {
	n := w.normalized()
	return n.Confidence*confidence + n.Location*location + n.Fraud*(1-fraud)
}
