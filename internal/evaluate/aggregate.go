package evaluate

import "math"

// Criteria are the five judged dimensions, each scored 0 to 10.
var Criteria = []string{"relevance", "creativity", "memorability", "conciseness", "safety"}

// Aggregate averages the five criteria on a 0 to 1 scale, rounded to two
// decimals. Missing keys count as zero.
func Aggregate(criteria map[string]int) float64 {
	sum := 0
	for _, key := range Criteria {
		sum += criteria[key]
	}
	mean := float64(sum) / float64(len(Criteria)) / 10
	return math.Round(mean*100) / 100
}

// Record is the judge's verdict for one domain.
type Record struct {
	Domain       string  `json:"domain"`
	Relevance    int     `json:"relevance"`
	Creativity   int     `json:"creativity"`
	Memorability int     `json:"memorability"`
	Conciseness  int     `json:"conciseness"`
	Safety       int     `json:"safety"`
	Confidence   float64 `json:"confidence"`
}

func (r Record) Criteria() map[string]int {
	return map[string]int{
		"relevance":    r.Relevance,
		"creativity":   r.Creativity,
		"memorability": r.Memorability,
		"conciseness":  r.Conciseness,
		"safety":       r.Safety,
	}
}

// uniform builds a record with every criterion set to score.
func uniform(domain string, score int) Record {
	r := Record{
		Domain:       domain,
		Relevance:    score,
		Creativity:   score,
		Memorability: score,
		Conciseness:  score,
		Safety:       score,
	}
	r.Confidence = Aggregate(r.Criteria())
	return r
}

// MeanConfidence is the average confidence over records, 0 for none.
func MeanConfidence(records []Record) float64 {
	if len(records) == 0 {
		return 0
	}
	total := 0.0
	for _, r := range records {
		total += r.Confidence
	}
	return math.Round(total/float64(len(records))*100) / 100
}
