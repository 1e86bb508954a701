package interpreter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSuggest(t *testing.T) {
	t.Run("generic", func(t *testing.T) {
		got := Suggest("chat apps")
		assert.Equal(t, []string{
			"repositories about chat apps",
			"tools for chat apps",
			"libraries related to chat apps",
			"frameworks for chat apps",
		}, got)
	})

	t.Run("topic specific first", func(t *testing.T) {
		got := Suggest("MCP servers for Notion")
		assert.Len(t, got, 5)
		assert.Equal(t, "mcp server implementation", got[0])
		assert.Contains(t, got, "mcp integration examples")
		assert.Equal(t, "notion api integration", got[4])
		assert.NotContains(t, got, "tools for MCP servers for Notion")
	})

	t.Run("star threshold", func(t *testing.T) {
		got := Suggest("repos with 100 stars")
		assert.Equal(t, "highly starred repositories", got[0])
	})

	t.Run("empty", func(t *testing.T) {
		assert.Empty(t, Suggest("   "))
	})
}
