package model

// HistogramBinCount is the fixed number of bins the Statistics Engine
// divides [0,1] into.
const HistogramBinCount = 20

// CandidateThresholds is the fixed set of thresholds the cumulative
// retention curve is evaluated at.
var CandidateThresholds = []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7}

// Histogram is a fixed 20-bin count over [0,1]. Bin i covers
// [i/20, (i+1)/20), except the last bin which is inclusive on both ends.
type Histogram struct {
	Counts [HistogramBinCount]int
}

// Percentiles holds the requested order statistics plus min/max/mean.
type Percentiles struct {
	P5, P25, P50, P75, P95 float64
	Min, Max, Mean         float64
}

// RetentionPoint is one entry of the cumulative retention curve: the
// fraction of raw matches that pass at Threshold.
type RetentionPoint struct {
	Threshold float64
	Fraction  float64 // in [0,1]
}

// DistributionStats bundles everything the Statistics Engine computes for
// one metric (IoU or centerDist).
type DistributionStats struct {
	Histogram        Histogram
	Percentiles      Percentiles
	Retention        []RetentionPoint
	SuggestedThreshold float64 // Otsu suggestion, or documented fallback
	SampleCount      int
}
