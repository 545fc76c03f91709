package diet

// Trail accumulates reason codes and evidence in insertion order without
// repeats. The zero value is ready to use.
type Trail struct {
	codes    []string
	evidence []string
}

// Add records a code and its evidence. It reports whether the code was new.
func (t *Trail) Add(code, evidence string) bool {
	added := appendUnique(&t.codes, code)
	appendUnique(&t.evidence, evidence)
	return added
}

// Has reports whether code was recorded.
func (t *Trail) Has(code string) bool {
	for _, c := range t.codes {
		if c == code {
			return true
		}
	}
	return false
}

// Len returns the number of distinct codes.
func (t *Trail) Len() int { return len(t.codes) }

// Codes returns a copy of the recorded codes.
func (t *Trail) Codes() []string { return clone(t.codes) }

// Evidence returns a copy of the recorded evidence.
func (t *Trail) Evidence() []string { return clone(t.evidence) }

func appendUnique(list *[]string, s string) bool {
	if s == "" {
		return false
	}
	for _, have := range *list {
		if have == s {
			return false
		}
	}
	*list = append(*list, s)
	return true
}

func clone(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

// Result is the classification of one ingredient under one diet.
type Result[S Status] struct {
	Ingredient  Ingredient `json:"ingredient"`
	Status      S          `json:"status"`
	Confidence  Confidence `json:"confidence"`
	ReasonCodes []string   `json:"reason_codes"`
	Evidence    []string   `json:"evidence"`
}

// NewResult snapshots a trail into a result.
func NewResult[S Status](ing Ingredient, status S, conf Confidence, t *Trail) Result[S] {
	return Result[S]{
		Ingredient:  ing,
		Status:      status,
		Confidence:  conf,
		ReasonCodes: t.Codes(),
		Evidence:    t.Evidence(),
	}
}

// Classification is a Result with its status erased to a string, used
// where several diets travel together.
type Classification struct {
	Diet        Diet       `json:"diet"`
	Ingredient  Ingredient `json:"ingredient"`
	Status      string     `json:"status"`
	Tier        Tier       `json:"tier"`
	Confidence  Confidence `json:"confidence"`
	ReasonCodes []string   `json:"reason_codes"`
	Evidence    []string   `json:"evidence"`
}

// Erase converts a typed result.
func Erase[S Status](d Diet, r Result[S]) Classification {
	return Classification{
		Diet:        d,
		Ingredient:  r.Ingredient,
		Status:      string(r.Status),
		Tier:        r.Status.Tier(),
		Confidence:  r.Confidence,
		ReasonCodes: r.ReasonCodes,
		Evidence:    r.Evidence,
	}
}
