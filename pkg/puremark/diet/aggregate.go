package diet

import "sort"

// ProductVerdict is the verdict for a whole product under one diet.
type ProductVerdict[S Status] struct {
	Status             S          `json:"status"`
	Confidence         Confidence `json:"confidence"`
	Reason             string     `json:"reason"`
	FailingIngredients []string   `json:"failing_ingredients"`
	ReasonCodes        []string   `json:"reason_codes"`
}

// Verdict is a ProductVerdict with its status erased to a string.
type Verdict struct {
	Diet               Diet       `json:"diet"`
	Status             string     `json:"status"`
	Tier               Tier       `json:"tier"`
	Confidence         Confidence `json:"confidence"`
	Reason             string     `json:"reason"`
	FailingIngredients []string   `json:"failing_ingredients"`
	ReasonCodes        []string   `json:"reason_codes"`
}

// EraseVerdict converts a typed verdict.
func EraseVerdict[S Status](d Diet, v ProductVerdict[S]) Verdict {
	return Verdict{
		Diet:               d,
		Status:             string(v.Status),
		Tier:               v.Status.Tier(),
		Confidence:         v.Confidence,
		Reason:             v.Reason,
		FailingIngredients: v.FailingIngredients,
		ReasonCodes:        v.ReasonCodes,
	}
}

// Restore turns an erased classification back into a typed result. The
// caller picks S to match c.Diet.
func Restore[S Status](c Classification) Result[S] {
	return Result[S]{
		Ingredient:  c.Ingredient,
		Status:      S(c.Status),
		Confidence:  c.Confidence,
		ReasonCodes: c.ReasonCodes,
		Evidence:    c.Evidence,
	}
}

// Policy is the diet-specific part of aggregation.
type Policy[S Status] struct {
	Fail, Verify, Pass S

	FailReason   string
	VerifyReason string
	PassReason   string

	VerifyConfidence Confidence
	PassConfidence   Confidence

	// Extra runs after the fail bucket is found empty. Returning true
	// makes its verdict final.
	Extra func(results []Result[S]) (ProductVerdict[S], bool)
}

// Aggregate folds per-ingredient results into a product verdict. Any
// failing ingredient fails the product; otherwise any ingredient needing
// verification flags it. The outcome does not depend on input order apart
// from the order failing ingredients are listed in.
func Aggregate[S Status](results []Result[S], p Policy[S]) ProductVerdict[S] {
	var fail, verify []Result[S]
	for _, r := range results {
		switch r.Status.Tier() {
		case TierFail:
			fail = append(fail, r)
		case TierVerify:
			verify = append(verify, r)
		}
	}

	if len(fail) > 0 {
		return bucketVerdict(p.Fail, High, p.FailReason, fail)
	}
	if p.Extra != nil {
		if v, ok := p.Extra(results); ok {
			return v
		}
	}
	if len(verify) > 0 {
		return bucketVerdict(p.Verify, p.VerifyConfidence, p.VerifyReason, verify)
	}
	return ProductVerdict[S]{
		Status:             p.Pass,
		Confidence:         p.PassConfidence,
		Reason:             p.PassReason,
		FailingIngredients: []string{},
		ReasonCodes:        []string{},
	}
}

func bucketVerdict[S Status](status S, conf Confidence, reason string, bucket []Result[S]) ProductVerdict[S] {
	failing := make([]string, 0, len(bucket))
	codes := make(map[string]struct{})
	for _, r := range bucket {
		failing = append(failing, r.Ingredient.Label())
		for _, c := range r.ReasonCodes {
			codes[c] = struct{}{}
		}
	}
	return ProductVerdict[S]{
		Status:             status,
		Confidence:         conf,
		Reason:             reason,
		FailingIngredients: failing,
		ReasonCodes:        SortedCodes(codes),
	}
}

// SortedCodes returns the keys of set in ascending order.
func SortedCodes(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
