package biz

import "errors"

var ErrUnknownPlan = errors.New("unknown plan")

// Plan is a named subscription tier. Enterprise is the only tier with
// caller-supplied limits; everything else is a fixed row in the table.
type Plan struct {
	Type            string
	AllowedQueries  int
	ResultsPerQuery int
	PriceUSD        float64
}

const (
	PlanFree       = "free"
	PlanSub1       = "sub1"
	PlanSub2       = "sub2"
	PlanSub3       = "sub3"
	PlanSub4       = "sub4"
	PlanEnterprise = "enterprise"
)

var planTable = map[string]Plan{
	PlanFree: {Type: PlanFree, AllowedQueries: 2, ResultsPerQuery: 5, PriceUSD: 0},
	PlanSub1: {Type: PlanSub1, AllowedQueries: 30, ResultsPerQuery: 20, PriceUSD: 21.18},
	PlanSub2: {Type: PlanSub2, AllowedQueries: 30, ResultsPerQuery: 50, PriceUSD: 52.94},
	PlanSub3: {Type: PlanSub3, AllowedQueries: 30, ResultsPerQuery: 25, PriceUSD: 26.47},
	PlanSub4: {Type: PlanSub4, AllowedQueries: 20, ResultsPerQuery: 50, PriceUSD: 35.29},
}

const (
	enterpriseDefaultQueries = 1000
	enterpriseDefaultResults = 100
	enterpriseMaxQueries     = 10000
	enterpriseMaxResults     = 100
	enterprisePricePerResult = 0.04
)

// ResolvePlan maps a plan name to its tier. For the enterprise tier the
// requested limits are clamped and priced per result.
func ResolvePlan(name string, queries, results int) (Plan, error) {
	if plan, ok := planTable[name]; ok {
		return plan, nil
	}

	if name == PlanEnterprise {
		if queries <= 0 {
			queries = enterpriseDefaultQueries
		}
		if results <= 0 {
			results = enterpriseDefaultResults
		}
		queries = clamp(queries, 1, enterpriseMaxQueries)
		results = clamp(results, 1, enterpriseMaxResults)

		return Plan{
			Type:            PlanEnterprise,
			AllowedQueries:  queries,
			ResultsPerQuery: results,
			PriceUSD:        float64(queries*results) * enterprisePricePerResult,
		}, nil
	}

	return Plan{}, ErrUnknownPlan
}

// DefaultPlan is the tier assigned at signup.
func DefaultPlan() Plan {
	return planTable[PlanFree]
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
