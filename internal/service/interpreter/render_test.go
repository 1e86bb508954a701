package interpreter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mirror/internal/domain/query"
)

func intPtr(v int) *int { return &v }

func TestRenderQualifierOrder(t *testing.T) {
	f := query.Filter{
		BaseText:        "chat",
		Language:        "go",
		MinStars:        intPtr(10),
		MaxStars:        intPtr(500),
		MinForks:        intPtr(2),
		MinContributors: intPtr(3),
		CreatedAfter:    "2023-01-01",
		UpdatedAfter:    "2024-06-01",
		HasIssues:       query.FlagTrue,
		HasWiki:         query.FlagFalse,
		IsArchived:      query.FlagFalse,
		IsFork:          query.FlagTrue,
		Topics:          []string{"websocket", "grpc"},
		SearchScope:     query.DefaultScope(),
	}

	want := "chat language:go stars:>=10 stars:<=500 forks:>=2 contributors:>=3 " +
		"created:>=2023-01-01 pushed:>=2024-06-01 has:issues no:wiki archived:false fork:true " +
		"topic:websocket topic:grpc"
	assert.Equal(t, want, Render(f))
}

func TestRenderOmitsUnsetFields(t *testing.T) {
	assert.Equal(t, "", Render(query.Filter{}))
	assert.Equal(t, "stars:>=0", Render(query.Filter{MinStars: intPtr(0)}))
	assert.Equal(t, "no:issues archived:true",
		Render(query.Filter{HasIssues: query.FlagFalse, IsArchived: query.FlagTrue}))
}

func TestRenderNarrowedScope(t *testing.T) {
	f := Parse("chat readme only")
	assert.Equal(t, "chat in:readme", Render(f))
}

func TestRenderDeterministic(t *testing.T) {
	f := Parse("rust web frameworks with async support and 100+ stars created in 2022 not archived")
	first := Render(f)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, Render(f))
	}
}

func TestRenderKeywords(t *testing.T) {
	f := Parse("javascript libraries with typescript support and more than 200 stars")
	assert.Equal(t, "javascript typescript", RenderKeywords(f))

	f = query.Filter{BaseText: "real-time chat", Language: "go", Topics: []string{"chat", "websocket"}}
	assert.Equal(t, "real-time chat go websocket", RenderKeywords(f))
}

func TestExplainExposesPopulatedFields(t *testing.T) {
	f := Parse("python projects with at least 50 forks created since 2023 without wiki")
	e := Explain(f)

	assert.Equal(t, "", e.BaseText)
	assert.Equal(t, Render(f), e.RenderedQuery)
	assert.Equal(t, query.DefaultScope(), e.SearchScope)

	p := e.ParsedFilters
	assert.Equal(t, "python", p.Language)
	require.NotNil(t, p.MinForks)
	assert.Equal(t, 50, *p.MinForks)
	assert.Equal(t, "2023-01-01", p.CreatedAfter)
	require.NotNil(t, p.HasWiki)
	assert.False(t, *p.HasWiki)
	assert.Nil(t, p.MinStars)
	assert.Nil(t, p.HasIssues)
	assert.Nil(t, p.IsFork)
	assert.Empty(t, p.Topics)
}

func TestWithBaseTextCopies(t *testing.T) {
	f := Parse("go projects with grpc support and 10 stars")
	g := f.WithBaseText("service mesh")

	assert.Equal(t, "service mesh", g.BaseText)
	assert.NotEqual(t, f.BaseText, g.BaseText)

	*g.MinStars = 99
	g.Topics[0] = "changed"
	assert.Equal(t, 10, *f.MinStars)
	assert.Equal(t, "grpc", f.Topics[0])
}
