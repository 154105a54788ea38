package analytics

import (
	"math"

	"github.com/aclements/go-moremath/stats"
	"github.com/dustin/go-humanize"

	"github.com/MrSnakeDoc/jobtrail/internal/domain"
)

// MixedCurrency labels a sample drawn from more than one currency.
const MixedCurrency = "Mixed"

const (
	defaultBucketWidth = 10000
	maxBuckets         = 40
)

type SalaryBucket struct {
	Label string  `json:"label"`
	From  float64 `json:"from"`
	To    float64 `json:"to"`
	Count int     `json:"count"`
}

// SalaryStats summarizes the annualized salary sample. Amounts are
// rounded to whole units.
type SalaryStats struct {
	Count        int            `json:"count"`
	Skipped      int            `json:"skipped"`
	Min          float64        `json:"min"`
	Median       float64        `json:"median"`
	Mean         float64        `json:"mean"`
	Max          float64        `json:"max"`
	Currency     string         `json:"currency"`
	ByPeriod     map[Period]int `json:"by_period"`
	Distribution []SalaryBucket `json:"distribution"`
}

// SalaryAnalysis parses every application's salary range, annualizes it
// and takes the midpoint as the sample value. Applications without a
// salary are ignored, unparsable ones are counted in Skipped.
func SalaryAnalysis(apps []domain.JobApplication) SalaryStats {
	out := SalaryStats{
		ByPeriod:     map[Period]int{},
		Distribution: []SalaryBucket{},
	}

	var sample stats.Sample
	currencies := map[string]struct{}{}
	for _, a := range apps {
		if a.SalaryRange == "" {
			continue
		}
		r, ok := ParseSalaryRangeToStructured(a.SalaryRange)
		if !ok {
			out.Skipped++
			continue
		}
		out.ByPeriod[r.Period]++
		currencies[r.Currency] = struct{}{}
		sample.Xs = append(sample.Xs, r.Annualized().Midpoint())
	}

	out.Count = len(sample.Xs)
	if out.Count == 0 {
		return out
	}

	lo, hi := sample.Bounds()
	out.Min = math.Round(lo)
	out.Max = math.Round(hi)
	out.Median = math.Round(sample.Quantile(0.5))
	out.Mean = math.Round(sample.Mean())
	out.Distribution = distribution(sample.Xs, lo, hi)

	if len(currencies) == 1 {
		for c := range currencies {
			out.Currency = c
		}
	} else {
		out.Currency = MixedCurrency
	}
	return out
}

// distribution buckets xs into contiguous fixed-width bins covering
// [lo, hi]. The width grows in steps of the default when the span would
// need too many bins.
func distribution(xs []float64, lo, hi float64) []SalaryBucket {
	width := float64(defaultBucketWidth)
	start := math.Floor(lo/width) * width
	if n := math.Floor((hi-start)/width) + 1; n > maxBuckets {
		width = math.Ceil(n/maxBuckets) * defaultBucketWidth
		start = math.Floor(lo/width) * width
	}
	span := math.Floor((hi - start) / width)
	if math.IsInf(span, 0) || math.IsNaN(span) || span < 0 {
		return []SalaryBucket{}
	}
	n := int(span) + 1

	out := make([]SalaryBucket, n)
	for i := range out {
		from := start + float64(i)*width
		out[i] = SalaryBucket{
			From:  from,
			To:    from + width,
			Label: humanize.Comma(int64(from)) + " - " + humanize.Comma(int64(from+width)),
		}
	}
	for _, x := range xs {
		i := int(math.Floor((x - start) / width))
		if i >= n {
			i = n - 1
		}
		out[i].Count++
	}
	return out
}
