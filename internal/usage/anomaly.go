package usage

// DefaultAnomalyThresholdBytes is 1 GB/day, overridable via configuration.
const DefaultAnomalyThresholdBytes int64 = 1_000_000_000

// AnomalyFlagger marks users whose traffic crosses an absolute daily
// threshold. It is a plain threshold test, not a statistical detector.
type AnomalyFlagger struct {
	ThresholdBytes int64
}

// NewAnomalyFlagger builds a flagger; a non-positive threshold falls back
// to the 1 GB/day default.
func NewAnomalyFlagger(thresholdBytes int64) *AnomalyFlagger {
	if thresholdBytes <= 0 {
		thresholdBytes = DefaultAnomalyThresholdBytes
	}
	return &AnomalyFlagger{ThresholdBytes: thresholdBytes}
}

// Flag reports whether any single day in the given series meets or exceeds
// the threshold.
func (f *AnomalyFlagger) Flag(dailyTrafficBytes []int64) bool {
	for _, v := range dailyTrafficBytes {
		if v >= f.ThresholdBytes {
			return true
		}
	}
	return false
}
