// Package stats summarizes the Geometric Matcher's raw IoU/centerDist
// distributions into histograms, percentiles, retention curves, and a
// suggested cutoff threshold.
package stats

import (
	"log"

	"github.com/montanaflynn/stats"

	"github.com/kozaktomas/photo-migrate/internal/model"
)

// Metric distinguishes IoU (higher is a better match) from centerDist
// (lower is a better match): retention direction and the degenerate-
// distribution fallback both depend on which one is being summarized.
type Metric int

const (
	MetricIoU Metric = iota
	MetricCenterDist
)

// fallbackThreshold is used when Otsu's method cannot produce a meaningful
// split (fewer than two populated histogram bins): the matcher's documented
// default threshold for the metric.
func fallbackThreshold(metric Metric) float64 {
	if metric == MetricCenterDist {
		return 0.40
	}
	return 0.30
}

// Summarize computes DistributionStats for one metric's sample values, all
// expected to lie in [0, 1]. An empty sample is valid and yields an
// all-zero histogram and percentiles, no retention points, SampleCount 0,
// and the metric's fallback SuggestedThreshold.
func Summarize(values []float64, metric Metric) model.DistributionStats {
	out := model.DistributionStats{SampleCount: len(values)}
	if len(values) == 0 {
		out.SuggestedThreshold = fallbackThreshold(metric)
		return out
	}

	out.Histogram = histogram(values)
	out.Percentiles = percentiles(values)
	out.Retention = retention(values, metric)
	out.SuggestedThreshold = otsuThreshold(values, metric)
	return out
}

func histogram(values []float64) model.Histogram {
	var h model.Histogram
	for _, v := range values {
		bin := int(v * model.HistogramBinCount)
		if bin >= model.HistogramBinCount {
			bin = model.HistogramBinCount - 1
		}
		if bin < 0 {
			bin = 0
		}
		h.Counts[bin]++
	}
	return h
}

func percentiles(values []float64) model.Percentiles {
	data := stats.LoadRawData(values)

	p5, err := stats.Percentile(data, 5)
	if err != nil {
		log.Printf("stats: percentile 5 failed: %v", err)
	}
	p25, err := stats.Percentile(data, 25)
	if err != nil {
		log.Printf("stats: percentile 25 failed: %v", err)
	}
	p50, err := stats.Median(data)
	if err != nil {
		log.Printf("stats: median failed: %v", err)
	}
	p75, err := stats.Percentile(data, 75)
	if err != nil {
		log.Printf("stats: percentile 75 failed: %v", err)
	}
	p95, err := stats.Percentile(data, 95)
	if err != nil {
		log.Printf("stats: percentile 95 failed: %v", err)
	}
	min, err := stats.Min(data)
	if err != nil {
		log.Printf("stats: min failed: %v", err)
	}
	maxV, err := stats.Max(data)
	if err != nil {
		log.Printf("stats: max failed: %v", err)
	}
	mean, err := stats.Mean(data)
	if err != nil {
		log.Printf("stats: mean failed: %v", err)
	}

	return model.Percentiles{
		P5: p5, P25: p25, P50: p50, P75: p75, P95: p95,
		Min: min, Max: maxV, Mean: mean,
	}
}

// retention computes, for each candidate threshold, the fraction of samples
// that would survive that cutoff: IoU >= threshold, centerDist <= threshold.
func retention(values []float64, metric Metric) []model.RetentionPoint {
	points := make([]model.RetentionPoint, 0, len(model.CandidateThresholds))
	for _, threshold := range model.CandidateThresholds {
		passing := 0
		for _, v := range values {
			if metric == MetricCenterDist {
				if v <= threshold {
					passing++
				}
			} else if v >= threshold {
				passing++
			}
		}
		points = append(points, model.RetentionPoint{
			Threshold: threshold,
			Fraction:  float64(passing) / float64(len(values)),
		})
	}
	return points
}

// otsuThreshold applies Otsu's between-class-variance maximization over the
// [0,1] histogram to suggest a cutoff. Degenerate distributions (all values
// identical, or fewer than two populated bins) fall back to
// fallbackThreshold(metric) since no split can be meaningfully chosen.
func otsuThreshold(values []float64, metric Metric) float64 {
	h := histogram(values)

	populatedBins := 0
	for _, c := range h.Counts {
		if c > 0 {
			populatedBins++
		}
	}
	if populatedBins < 2 {
		return fallbackThreshold(metric)
	}

	total := len(values)
	var sumAll float64
	for i, c := range h.Counts {
		sumAll += binCenter(i) * float64(c)
	}

	var bestVariance float64
	bestBin := -1
	var wB, sumB float64

	for i := 0; i < model.HistogramBinCount-1; i++ {
		wB += float64(h.Counts[i])
		if wB == 0 {
			continue
		}
		wF := float64(total) - wB
		if wF == 0 {
			break
		}
		sumB += binCenter(i) * float64(h.Counts[i])
		mB := sumB / wB
		mF := (sumAll - sumB) / wF
		variance := wB * wF * (mB - mF) * (mB - mF)
		if variance > bestVariance {
			bestVariance = variance
			bestBin = i
		}
	}

	if bestBin < 0 {
		return fallbackThreshold(metric)
	}
	// The suggested threshold is the boundary between bestBin and the next.
	return float64(bestBin+1) / model.HistogramBinCount
}

func binCenter(i int) float64 {
	return (float64(i) + 0.5) / model.HistogramBinCount
}
