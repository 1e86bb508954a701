// internal/service/enrich/repositories.go

package enrich

import (
	"errors"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"mirror/internal/domain/trend"
	"mirror/internal/metrics"
)

const (
	maxLanguages    = 10
	maxContributors = 10
	maxTopTopics    = 5
	maxTopItems     = 5
)

// Engagement metric keys for repositories
const (
	KeyTotalStars      = "total_stars"
	KeyTotalForks      = "total_forks"
	KeyTotalOpenIssues = "total_open_issues"
	KeyAvgStars        = "avg_stars"
	KeyAvgForks        = "avg_forks"
	KeyAvgContributors = "avg_contributors"
	KeyAvgVelocity     = "avg_velocity"
	KeyAvgHealth       = "avg_health"
)

var (
	errNoCreatedAt = errors.New("missing created_at")
	errNoUpdatedAt = errors.New("missing updated_at")
)

// Repositories returns a copy of repos with derived metrics filled in.
// An item missing an input keeps the dependent metric unset; the batch always completes.
func Repositories(repos []trend.Repository, now time.Time, logger zerolog.Logger) []trend.Repository {
	out := make([]trend.Repository, len(repos))
	for i, r := range repos {
		if err := enrichRepository(&r, now); err != nil {
			metrics.IncEnrichmentError(string(trend.PlatformGitHub))
			logger.Warn().Err(err).Str("repository", r.FullName).Msg("partial repository enrichment")
		}
		out[i] = r
	}
	return out
}

func enrichRepository(r *trend.Repository, now time.Time) error {
	var errs []error

	if r.CreatedAt.IsZero() {
		errs = append(errs, errNoCreatedAt)
	} else {
		age := math.Max(daysBetween(r.CreatedAt, now), 1)
		v := float64(r.Stars) / age
		r.Velocity = &v
	}

	if r.UpdatedAt.IsZero() {
		errs = append(errs, errNoUpdatedAt)
	} else {
		sinceUpdate := math.Max(daysBetween(r.UpdatedAt, now), 1)
		issuePressure := float64(r.OpenIssues) / math.Max(float64(r.Stars+r.Forks), 1)
		h := float64(r.Stars)*0.6 + float64(r.Forks)*0.3 + (1/sinceUpdate)*100 - issuePressure*50
		r.Health = &h
	}

	if r.Contributors != nil && *r.Contributors > 0 {
		p := float64(r.Stars) / float64(*r.Contributors)
		r.PopularityPerContributor = &p
	}

	return errors.Join(errs...)
}

// daysBetween counts whole days from t to now
func daysBetween(t, now time.Time) float64 {
	return math.Floor(now.Sub(t).Hours() / 24)
}

// TopLanguages groups repositories by language, most common first
func TopLanguages(repos []trend.Repository) []trend.LanguageStat {
	byLang := make(map[string]*trend.LanguageStat)
	var order []string
	for _, r := range repos {
		if r.Language == "" {
			continue
		}
		s, ok := byLang[r.Language]
		if !ok {
			s = &trend.LanguageStat{Language: r.Language}
			byLang[r.Language] = s
			order = append(order, r.Language)
		}
		s.Count++
		s.TotalStars += r.Stars
		s.TotalForks += r.Forks
	}

	out := make([]trend.LanguageStat, 0, len(order))
	for _, lang := range order {
		s := byLang[lang]
		s.AverageStars = round2(average(s.TotalStars, s.Count))
		out = append(out, *s)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].TotalStars > out[j].TotalStars
	})
	if len(out) > maxLanguages {
		out = out[:maxLanguages]
	}
	return out
}

// TopContributors ranks repositories by stars + 2*forks, a stand-in for
// contributor identities the search API does not return.
// When any repository carries a contributor count, only those are ranked.
func TopContributors(repos []trend.Repository) []trend.ContributorStat {
	candidates := withContributors(repos)
	if len(candidates) == 0 {
		candidates = repos
	}

	seen := make(map[string]struct{})
	out := make([]trend.ContributorStat, 0, len(candidates))
	for _, r := range candidates {
		id := r.FullName
		if id == "" {
			id = r.Name
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, trend.ContributorStat{
			Identity: id,
			Language: r.Language,
			Stars:    r.Stars,
			Forks:    r.Forks,
			Score:    r.Stars + r.Forks*2,
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > maxContributors {
		out = out[:maxContributors]
	}
	return out
}

func withContributors(repos []trend.Repository) []trend.Repository {
	var out []trend.Repository
	for _, r := range repos {
		if r.Contributors != nil && *r.Contributors > 0 {
			out = append(out, r)
		}
	}
	return out
}

// RepositoryStats summarizes a batch of enriched repositories
func RepositoryStats(repos []trend.Repository) trend.PlatformStats {
	var stars, forks, issues, contributors int
	var velocity, health float64
	var withVelocity, withHealth int
	languages := make([]string, 0, len(repos))
	texts := make([]string, 0, len(repos))

	for _, r := range repos {
		stars += r.Stars
		forks += r.Forks
		issues += r.OpenIssues
		if r.Contributors != nil {
			contributors += *r.Contributors
		}
		if r.Velocity != nil {
			velocity += *r.Velocity
			withVelocity++
		}
		if r.Health != nil {
			health += *r.Health
			withHealth++
		}
		languages = append(languages, r.Language)
		texts = append(texts, r.Name+" "+r.Description+" "+strings.Join(r.Topics, " "))
	}

	n := len(repos)
	stats := trend.PlatformStats{
		Platform:   trend.PlatformGitHub,
		TotalItems: n,
		TopTopics:  topCounts(languages, maxTopTopics),
		TopItems:   topRepositories(repos),
		Engagement: map[string]float64{
			KeyTotalStars:      float64(stars),
			KeyTotalForks:      float64(forks),
			KeyTotalOpenIssues: float64(issues),
			KeyAvgStars:        average(stars, n),
			KeyAvgForks:        average(forks, n),
			KeyAvgContributors: average(contributors, n),
		},
		TrendingKeywords: TrendingKeywords(texts, n),
	}
	if withVelocity > 0 {
		stats.Engagement[KeyAvgVelocity] = velocity / float64(withVelocity)
	}
	if withHealth > 0 {
		stats.Engagement[KeyAvgHealth] = health / float64(withHealth)
	}
	return stats
}

func topRepositories(repos []trend.Repository) []trend.RankedItem {
	items := make([]trend.RankedItem, len(repos))
	for i, r := range repos {
		items[i] = trend.RankedItem{
			ID:    strconv.FormatInt(r.ID, 10),
			Title: r.FullName,
			URL:   r.URL,
			Score: r.Stars,
		}
	}
	return topItems(items)
}

func topItems(items []trend.RankedItem) []trend.RankedItem {
	sort.SliceStable(items, func(i, j int) bool { return items[i].Score > items[j].Score })
	if len(items) > maxTopItems {
		items = items[:maxTopItems]
	}
	return items
}
