package analytics

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

type Period string

const (
	PeriodAnnual  Period = "annual"
	PeriodMonthly Period = "monthly"
	PeriodHourly  Period = "hourly"
)

const (
	DefaultCurrency = "USD"
	monthsPerYear   = 12
	hoursPerYear    = 2080

	// maxAnnualSalary bounds an annualized amount; anything above is noise.
	maxAnnualSalary = 1e12
)

// SalaryRange is a parsed salary. Min == Max for single values.
type SalaryRange struct {
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Currency string  `json:"currency"`
	Period   Period  `json:"period"`
}

// Midpoint is the value a range contributes to a sample.
func (r SalaryRange) Midpoint() float64 { return (r.Min + r.Max) / 2 }

// Annualized converts monthly and hourly ranges to their yearly equivalent.
func (r SalaryRange) Annualized() SalaryRange {
	f := 1.0
	switch r.Period {
	case PeriodMonthly:
		f = monthsPerYear
	case PeriodHourly:
		f = hoursPerYear
	}
	r.Min *= f
	r.Max *= f
	r.Period = PeriodAnnual
	return r
}

var currencySymbols = []struct{ symbol, code string }{
	{"€", "EUR"},
	{"£", "GBP"},
	{"¥", "JPY"},
	{"₩", "KRW"},
	{"₹", "INR"},
	{"$", "USD"},
}

var currencyWords = map[string]string{
	"usd": "USD", "dollar": "USD", "dollars": "USD",
	"eur": "EUR", "euro": "EUR", "euros": "EUR",
	"gbp": "GBP", "pound": "GBP", "pounds": "GBP",
	"jpy": "JPY", "yen": "JPY",
	"krw": "KRW", "won": "KRW",
	"inr": "INR", "rupee": "INR", "rupees": "INR",
	"cad": "CAD", "aud": "AUD", "chf": "CHF", "cny": "CNY",
	"sek": "SEK", "nok": "NOK", "dkk": "DKK", "pln": "PLN",
}

var periodWords = map[string]Period{
	"year": PeriodAnnual, "years": PeriodAnnual, "yr": PeriodAnnual, "yearly": PeriodAnnual,
	"annual": PeriodAnnual, "annually": PeriodAnnual, "annum": PeriodAnnual, "pa": PeriodAnnual,
	"month": PeriodMonthly, "months": PeriodMonthly, "mo": PeriodMonthly, "mth": PeriodMonthly, "monthly": PeriodMonthly,
	"hour": PeriodHourly, "hours": PeriodHourly, "hr": PeriodHourly, "h": PeriodHourly, "hourly": PeriodHourly,
}

var (
	amountRe     = regexp.MustCompile(`(\d+(?:[.,]\d+)*)([kKmM])?`)
	dotGroupedRe = regexp.MustCompile(`^\d{1,3}(\.\d{3})+$`)
)

// ParseSalaryRangeToStructured reads free text such as "$100k - $150k",
// "50000-70000 USD/year" or "€4,000 to €5,000 per month". Currency
// defaults to USD and period to annual. It reports false when no positive
// amount can be found or when the annualized range is not a plausible
// salary.
func ParseSalaryRangeToStructured(s string) (SalaryRange, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return SalaryRange{}, false
	}

	amounts := parseAmounts(s)
	if len(amounts) == 0 {
		return SalaryRange{}, false
	}

	r := SalaryRange{
		Min:      amounts[0],
		Max:      amounts[0],
		Currency: detectCurrency(s),
		Period:   detectPeriod(s),
	}
	if len(amounts) > 1 {
		r.Max = amounts[1]
	}
	if r.Min > r.Max {
		r.Min, r.Max = r.Max, r.Min
	}
	if !plausible(r.Annualized()) {
		return SalaryRange{}, false
	}
	return r, true
}

// ComposeSalaryRange is the inverse of ParseSalaryRangeToStructured:
// "50000-70000 USD/year".
func ComposeSalaryRange(min, max float64, currency string, period Period) string {
	if currency == "" {
		currency = DefaultCurrency
	}
	amount := formatAmount(min)
	if max != min {
		amount += "-" + formatAmount(max)
	}
	return amount + " " + strings.ToUpper(currency) + "/" + periodUnit(period)
}

func periodUnit(p Period) string {
	switch p {
	case PeriodMonthly:
		return "month"
	case PeriodHourly:
		return "hour"
	}
	return "year"
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// parseAmounts returns at most two positive amounts in order of
// appearance. A trailing k multiplies by 1000, m by 1000000, and the
// suffix carries over to a bare lower bound ("100-150k").
func parseAmounts(s string) []float64 {
	type amount struct {
		v    float64
		mult float64
	}
	var found []amount

	for _, m := range amountRe.FindAllStringSubmatchIndex(s, -1) {
		raw := s[m[2]:m[3]]
		mult := 1.0
		if m[4] >= 0 && !letterAt(s, m[5]) {
			mult = suffixMultiplier(s[m[4]:m[5]])
		}

		v, ok := parseNumber(raw, mult > 1)
		if !ok || v <= 0 {
			continue
		}
		found = append(found, amount{v: v * mult, mult: mult})
		if len(found) == 2 {
			break
		}
	}

	if len(found) == 2 && found[1].mult > 1 && found[0].mult == 1 && found[0].v < 1000 {
		found[0].v *= found[1].mult
	}
	out := make([]float64, len(found))
	for i, a := range found {
		out[i] = a.v
	}
	return out
}

func suffixMultiplier(suffix string) float64 {
	if strings.EqualFold(suffix, "m") {
		return 1e6
	}
	return 1e3
}

// parseNumber accepts "100,000", "1.5" and the dotted "50.000".
func parseNumber(raw string, suffixed bool) (float64, bool) {
	raw = strings.ReplaceAll(raw, ",", "")
	if !suffixed && dotGroupedRe.MatchString(raw) {
		raw = strings.ReplaceAll(raw, ".", "")
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

func plausible(annual SalaryRange) bool {
	for _, v := range []float64{annual.Min, annual.Max} {
		if math.IsInf(v, 0) || math.IsNaN(v) || v > maxAnnualSalary {
			return false
		}
	}
	return true
}

func letterAt(s string, i int) bool {
	if i >= len(s) {
		return false
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return unicode.IsLetter(r)
}

func words(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool { return !unicode.IsLetter(r) })
}

// detectCurrency prefers an explicit code or word over a symbol, so
// "$120k CAD" is CAD.
func detectCurrency(s string) string {
	for _, w := range words(s) {
		if code, ok := currencyWords[w]; ok {
			return code
		}
	}
	for _, c := range currencySymbols {
		if strings.Contains(s, c.symbol) {
			return c.code
		}
	}
	return DefaultCurrency
}

func detectPeriod(s string) Period {
	lower := strings.ToLower(s)
	if strings.Contains(lower, "p.a.") {
		return PeriodAnnual
	}
	for _, w := range words(s) {
		if p, ok := periodWords[w]; ok {
			return p
		}
	}
	return PeriodAnnual
}
