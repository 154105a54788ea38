package analytics

import (
	"sort"
	"strings"

	"github.com/MrSnakeDoc/jobtrail/internal/domain"
)

type MethodBucket struct {
	Method      string  `json:"method"`
	Total       int     `json:"total"`
	Offers      int     `json:"offers"`
	SuccessRate float64 `json:"success_rate"`
}

// SuccessByMethod groups applications by application method and returns
// the offer rate of each group. Methods are compared case-insensitively
// and shown with their first spelling. Buckets are sorted by method name;
// ordering by volume or rate is left to the caller.
func SuccessByMethod(apps []domain.JobApplication) []MethodBucket {
	index := map[string]int{}
	out := []MethodBucket{}

	for _, a := range apps {
		method := strings.TrimSpace(a.ApplicationMethod)
		if method == "" {
			continue
		}
		key := strings.ToLower(method)
		i, ok := index[key]
		if !ok {
			i = len(out)
			index[key] = i
			out = append(out, MethodBucket{Method: method})
		}
		out[i].Total++
		if offered(a) {
			out[i].Offers++
		}
	}

	for i := range out {
		out[i].SuccessRate = percent(out[i].Offers, out[i].Total)
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Method) < strings.ToLower(out[j].Method)
	})
	return out
}
