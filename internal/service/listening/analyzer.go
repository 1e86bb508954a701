// internal/service/listening/analyzer.go

package listening

import (
	"math"

	"mirror/internal/domain/trend"
	"mirror/internal/service/enrich"
)

const maxScore = 100.0

// DefaultWeights is the share each source contributes to the overall score
var DefaultWeights = map[trend.Platform]float64{
	trend.PlatformGitHub:  0.40,
	trend.PlatformTwitter: 0.35,
	trend.PlatformReddit:  0.25,
}

type scoreTerm struct {
	key    string
	weight float64
}

// scoreFormula is a weighted sum of engagement averages divided by scale
type scoreFormula struct {
	terms []scoreTerm
	scale float64
}

var formulas = map[trend.Platform]scoreFormula{
	trend.PlatformGitHub: {
		terms: []scoreTerm{
			{enrich.KeyAvgStars, 0.5},
			{enrich.KeyAvgForks, 0.3},
			{enrich.KeyAvgContributors, 0.2},
		},
		scale: 1000,
	},
	trend.PlatformTwitter: {
		terms: []scoreTerm{
			{enrich.KeyAvgLikes, 0.5},
			{enrich.KeyAvgRetweets, 0.3},
			{enrich.KeyAvgReplies, 0.2},
		},
		scale: 10,
	},
	trend.PlatformReddit: {
		terms: []scoreTerm{
			{enrich.KeyAvgScore, 0.6},
			{enrich.KeyAvgComments, 0.4},
		},
		scale: 10,
	},
}

// Analyzer turns per-source statistics into comparable scores
type Analyzer struct {
	weights map[trend.Platform]float64
}

// NewAnalyzer creates an analyzer; nil weights selects DefaultWeights
func NewAnalyzer(weights map[trend.Platform]float64) *Analyzer {
	if len(weights) == 0 {
		weights = DefaultWeights
	}
	return &Analyzer{weights: weights}
}

// SourceScore computes a source's score, capped at 100.
// There is no lower clamp.
func (a *Analyzer) SourceScore(stats trend.PlatformStats) float64 {
	f, ok := formulas[stats.Platform]
	if !ok || f.scale == 0 {
		return 0
	}

	var raw float64
	for _, t := range f.terms {
		raw += stats.Engagement[t.key] * t.weight
	}
	return math.Min(raw/f.scale, maxScore)
}

// OverallScore is the weighted mean of the given source scores. Only
// sources present in scores take part; weights are renormalized over them.
func (a *Analyzer) OverallScore(scores map[trend.Platform]float64) float64 {
	var sum, weights float64
	for p, s := range scores {
		w := a.weights[p]
		sum += s * w
		weights += w
	}
	if weights == 0 {
		return 0
	}
	return sum / weights
}
