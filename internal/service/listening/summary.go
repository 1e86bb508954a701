package listening

import (
	"mirror/internal/domain/trend"
	"mirror/internal/service/enrich"
)

// Summarize condenses a result into counts, rankings and per-source stats
func Summarize(result *trend.TrendingResult) trend.AnalysisSummary {
	summary := trend.AnalysisSummary{
		Query:           result.Query,
		OverallScore:    result.OverallScore,
		TotalRepos:      len(result.Repositories),
		TotalMicroPosts: len(result.MicroPosts),
		TotalForumPosts: len(result.ForumPosts),
		TopLanguages:    enrich.TopLanguages(result.Repositories),
		TopContributors: enrich.TopContributors(result.Repositories),
		AnalyzedAt:      result.AnalyzedAt,
	}

	for _, p := range result.Succeeded() {
		summary.PlatformStats = append(summary.PlatformStats, result.Stats[p])
	}
	return summary
}
