// internal/service/enrich/social.go

package enrich

import (
	"strings"

	"mirror/internal/domain/trend"
)

const maxHashtags = 10

// Engagement metric keys for micro-posts
const (
	KeyTotalLikes      = "total_likes"
	KeyTotalRetweets   = "total_retweets"
	KeyTotalReplies    = "total_replies"
	KeyTotalQuotes     = "total_quotes"
	KeyTotalEngagement = "total_engagement"
	KeyAvgLikes        = "avg_likes"
	KeyAvgRetweets     = "avg_retweets"
	KeyAvgReplies      = "avg_replies"
	KeyAvgQuotes       = "avg_quotes"
	KeyAvgEngagement   = "avg_engagement_per_post"
	KeyLikesRatio      = "likes_ratio"
	KeyRetweetsRatio   = "retweets_ratio"
	KeyRepliesRatio    = "replies_ratio"
	KeyQuotesRatio     = "quotes_ratio"
)

// Engagement metric keys for forum posts
const (
	KeyTotalScore       = "total_score"
	KeyTotalComments    = "total_comments"
	KeyAvgScore         = "avg_score"
	KeyAvgComments      = "avg_comments"
	KeyAvgUpvoteRatio   = "avg_upvote_ratio"
	KeyHighEngagement   = "high_engagement_posts"
	KeyMediumEngagement = "medium_engagement_posts"
	KeyLowEngagement    = "low_engagement_posts"
)

// MicroPostStats computes engagement totals, ratios and trending hashtags
func MicroPostStats(posts []trend.MicroPost) trend.PlatformStats {
	var likes, retweets, replies, quotes int
	var hashtags []string
	texts := make([]string, 0, len(posts))
	items := make([]trend.RankedItem, 0, len(posts))

	for _, p := range posts {
		likes += p.Likes
		retweets += p.Retweets
		replies += p.Replies
		quotes += p.Quotes
		for _, h := range p.Hashtags {
			hashtags = append(hashtags, strings.ToLower(h))
		}
		texts = append(texts, p.Text)
		items = append(items, trend.RankedItem{ID: p.ID, Title: p.Text, URL: p.URL, Score: p.Engagement()})
	}

	n := len(posts)
	total := likes + retweets + replies + quotes
	return trend.PlatformStats{
		Platform:   trend.PlatformTwitter,
		TotalItems: n,
		TopTopics:  topCounts(hashtags, maxHashtags),
		TopItems:   topItems(items),
		Engagement: map[string]float64{
			KeyTotalLikes:      float64(likes),
			KeyTotalRetweets:   float64(retweets),
			KeyTotalReplies:    float64(replies),
			KeyTotalQuotes:     float64(quotes),
			KeyTotalEngagement: float64(total),
			KeyAvgLikes:        average(likes, n),
			KeyAvgRetweets:     average(retweets, n),
			KeyAvgReplies:      average(replies, n),
			KeyAvgQuotes:       average(quotes, n),
			KeyAvgEngagement:   average(total, n),
			KeyLikesRatio:      ratio(likes, total),
			KeyRetweetsRatio:   ratio(retweets, total),
			KeyRepliesRatio:    ratio(replies, total),
			KeyQuotesRatio:     ratio(quotes, total),
		},
		TrendingKeywords: TrendingKeywords(texts, n),
	}
}

// ForumStats computes community metrics, most active communities and
// engagement buckets (high above 100, low below 50).
func ForumStats(posts []trend.ForumPost) trend.PlatformStats {
	var score, comments, high, medium, low int
	var upvotes float64
	subreddits := make([]string, 0, len(posts))
	texts := make([]string, 0, len(posts))
	items := make([]trend.RankedItem, 0, len(posts))

	for _, p := range posts {
		score += p.Score
		comments += p.Comments
		upvotes += p.UpvoteRatio
		switch {
		case p.Score > 100:
			high++
		case p.Score >= 50:
			medium++
		default:
			low++
		}
		subreddits = append(subreddits, p.Subreddit)
		texts = append(texts, p.Title+" "+p.Body)
		items = append(items, trend.RankedItem{ID: p.ID, Title: p.Title, URL: p.URL, Score: p.Score})
	}

	n := len(posts)
	avgUpvote := 0.0
	if n > 0 {
		avgUpvote = upvotes / float64(n)
	}

	return trend.PlatformStats{
		Platform:   trend.PlatformReddit,
		TotalItems: n,
		TopTopics:  topCounts(subreddits, maxTopTopics),
		TopItems:   topItems(items),
		Engagement: map[string]float64{
			KeyTotalScore:       float64(score),
			KeyTotalComments:    float64(comments),
			KeyAvgScore:         average(score, n),
			KeyAvgComments:      average(comments, n),
			KeyAvgUpvoteRatio:   avgUpvote,
			KeyHighEngagement:   float64(high),
			KeyMediumEngagement: float64(medium),
			KeyLowEngagement:    float64(low),
		},
		TrendingKeywords: TrendingKeywords(texts, n),
	}
}
