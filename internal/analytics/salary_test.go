package analytics

import (
	"math"
	"strings"
	"testing"

	"github.com/MrSnakeDoc/jobtrail/internal/domain"
)

func TestParseSalaryRangeToStructured(t *testing.T) {
	tests := []struct {
		in   string
		want SalaryRange
	}{
		{"50000-70000 USD/year", SalaryRange{50000, 70000, "USD", PeriodAnnual}},
		{"$100k - $150k", SalaryRange{100000, 150000, "USD", PeriodAnnual}},
		{"€4,000 to €5,000 per month", SalaryRange{4000, 5000, "EUR", PeriodMonthly}},
		{"£45/hour", SalaryRange{45, 45, "GBP", PeriodHourly}},
		{"100-150k", SalaryRange{100000, 150000, "USD", PeriodAnnual}},
		{"80k – 95k CAD", SalaryRange{80000, 95000, "CAD", PeriodAnnual}},
		{"1.5k—2k EUR monthly", SalaryRange{1500, 2000, "EUR", PeriodMonthly}},
		{"50.000 - 60.000 €", SalaryRange{50000, 60000, "EUR", PeriodAnnual}},
		{"¥8,000,000 yearly", SalaryRange{8000000, 8000000, "JPY", PeriodAnnual}},
		{"₩60000000", SalaryRange{60000000, 60000000, "KRW", PeriodAnnual}},
		{"₹12,00,000 p.a.", SalaryRange{1200000, 1200000, "INR", PeriodAnnual}},
		{"$120k CAD", SalaryRange{120000, 120000, "CAD", PeriodAnnual}},
		{"150000 - 100000", SalaryRange{100000, 150000, "USD", PeriodAnnual}},
		{"30 euros/hr", SalaryRange{30, 30, "EUR", PeriodHourly}},
		{"$1.2m", SalaryRange{1200000, 1200000, "USD", PeriodAnnual}},
		{"1-1.5M EUR", SalaryRange{1000000, 1500000, "EUR", PeriodAnnual}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseSalaryRangeToStructured(tt.in)
			if !ok {
				t.Fatalf("ParseSalaryRangeToStructured(%q) failed", tt.in)
			}
			if got != tt.want {
				t.Errorf("ParseSalaryRangeToStructured(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseSalaryRangeRejects(t *testing.T) {
	huge := "1" + strings.Repeat("0", 305) + " per hour"
	twentyDigits := "$" + "9" + strings.Repeat("0", 19)
	for _, in := range []string{"", "   ", "competitive", "DOE", "$0", huge, twentyDigits} {
		if got, ok := ParseSalaryRangeToStructured(in); ok {
			t.Errorf("ParseSalaryRangeToStructured(%q) = %+v, want failure", in, got)
		}
	}
}

func TestComposeSalaryRange(t *testing.T) {
	tests := []struct {
		min, max float64
		currency string
		period   Period
		want     string
	}{
		{50000, 70000, "USD", PeriodAnnual, "50000-70000 USD/year"},
		{4000, 4000, "eur", PeriodMonthly, "4000 EUR/month"},
		{45, 60, "", PeriodHourly, "45-60 USD/hour"},
		{1000, 2000, "GBP", "", "1000-2000 GBP/year"},
	}
	for _, tt := range tests {
		if got := ComposeSalaryRange(tt.min, tt.max, tt.currency, tt.period); got != tt.want {
			t.Errorf("ComposeSalaryRange(%v, %v, %q, %q) = %q, want %q", tt.min, tt.max, tt.currency, tt.period, got, tt.want)
		}
	}
}

func TestComposeParseRoundTrip(t *testing.T) {
	for _, r := range []SalaryRange{
		{50000, 70000, "USD", PeriodAnnual},
		{3500, 4200, "EUR", PeriodMonthly},
		{55, 55, "GBP", PeriodHourly},
	} {
		s := ComposeSalaryRange(r.Min, r.Max, r.Currency, r.Period)
		got, ok := ParseSalaryRangeToStructured(s)
		if !ok || got != r {
			t.Errorf("round trip of %+v via %q = %+v", r, s, got)
		}
	}
}

func TestAnnualized(t *testing.T) {
	if got := (SalaryRange{5000, 5000, "USD", PeriodMonthly}).Annualized(); got.Min != 60000 || got.Period != PeriodAnnual {
		t.Errorf("monthly annualized = %+v", got)
	}
	if got := (SalaryRange{40, 50, "USD", PeriodHourly}).Annualized(); got.Min != 83200 || got.Max != 104000 {
		t.Errorf("hourly annualized = %+v", got)
	}
}

func salaried(ranges ...string) []domain.JobApplication {
	out := make([]domain.JobApplication, len(ranges))
	for i, r := range ranges {
		out[i] = domain.JobApplication{Status: domain.StatusApplied, SalaryRange: r}
	}
	return out
}

func TestSalaryAnalysis(t *testing.T) {
	got := SalaryAnalysis(salaried(
		"50000-70000 USD/year", // 60000
		"$100k - $150k",        // 125000
		"$5,000/month",         // 60000
		"negotiable",
		"",
		"$40/hour", // 83200
		"$90k",     // 90000
	))

	if got.Count != 5 || got.Skipped != 1 {
		t.Errorf("Count/Skipped = %d/%d, want 5/1", got.Count, got.Skipped)
	}
	if got.Min != 60000 || got.Max != 125000 {
		t.Errorf("bounds = %v..%v, want 60000..125000", got.Min, got.Max)
	}
	if got.Median != 83200 {
		t.Errorf("Median = %v, want 83200", got.Median)
	}
	if got.Mean != 83640 {
		t.Errorf("Mean = %v, want 83640", got.Mean)
	}
	if got.Currency != "USD" {
		t.Errorf("Currency = %q, want USD", got.Currency)
	}
	if got.ByPeriod[PeriodAnnual] != 3 || got.ByPeriod[PeriodMonthly] != 1 || got.ByPeriod[PeriodHourly] != 1 {
		t.Errorf("ByPeriod = %v", got.ByPeriod)
	}

	if len(got.Distribution) != 7 {
		t.Fatalf("Distribution has %d buckets, want 7", len(got.Distribution))
	}
	counts := []int{2, 0, 1, 1, 0, 0, 1}
	for i, b := range got.Distribution {
		if b.Count != counts[i] {
			t.Errorf("bucket %s count = %d, want %d", b.Label, b.Count, counts[i])
		}
	}
	if first := got.Distribution[0]; first.Label != "60,000 - 70,000" || first.From != 60000 {
		t.Errorf("first bucket = %+v", first)
	}
}

func TestSalaryAnalysisMixedCurrency(t *testing.T) {
	got := SalaryAnalysis(salaried("$90k", "€50k", "£45k"))
	if got.Currency != MixedCurrency {
		t.Errorf("Currency = %q, want %q", got.Currency, MixedCurrency)
	}
	if got.Median != 50000 {
		t.Errorf("Median = %v, want 50000", got.Median)
	}
}

func TestSalaryAnalysisEmpty(t *testing.T) {
	got := SalaryAnalysis(salaried("", "not a number"))
	if got.Count != 0 || got.Min != 0 || got.Median != 0 || got.Currency != "" {
		t.Errorf("empty analysis = %+v", got)
	}
	if got.Distribution == nil || len(got.Distribution) != 0 {
		t.Errorf("Distribution = %#v, want empty slice", got.Distribution)
	}
	if len(got.ByPeriod) != 0 {
		t.Errorf("ByPeriod = %v, want empty", got.ByPeriod)
	}
}

func TestSalaryDistributionWidensForWideSpans(t *testing.T) {
	got := SalaryAnalysis(salaried("$20k", "$3,000,000"))
	if n := len(got.Distribution); n == 0 || n > maxBuckets {
		t.Errorf("Distribution has %d buckets, want 1..%d", n, maxBuckets)
	}
	total := 0
	for _, b := range got.Distribution {
		total += b.Count
	}
	if total != 2 {
		t.Errorf("buckets hold %d samples, want 2", total)
	}
}

func TestSalaryAnalysisSkipsImplausibleAmounts(t *testing.T) {
	huge := "1" + strings.Repeat("0", 305) + " per hour"
	twentyDigits := "$" + "9" + strings.Repeat("0", 19)

	got := SalaryAnalysis(salaried("$50k", huge, twentyDigits))
	if got.Count != 1 || got.Skipped != 2 {
		t.Fatalf("Count = %d Skipped = %d, want 1 and 2", got.Count, got.Skipped)
	}
	if got.Max != 50000 {
		t.Errorf("Max = %v, want 50000", got.Max)
	}
	for _, b := range got.Distribution {
		if strings.Contains(b.Label, "-9,223") {
			t.Errorf("bucket label overflowed: %q", b.Label)
		}
	}
}

func TestDistributionNonFiniteSpan(t *testing.T) {
	if got := distribution([]float64{1}, 0, math.Inf(1)); len(got) != 0 {
		t.Errorf("distribution over an infinite span = %d buckets, want none", len(got))
	}
}
