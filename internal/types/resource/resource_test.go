package resource

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCountTrendingTopics(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, CountTrendingTopics(nil, 5))
	})

	t.Run("counts across resources", func(t *testing.T) {
		tagLists := [][]string{
			{"go", "databases"},
			{"go", "testing"},
			{"go"},
			{"databases"},
		}

		topics := CountTrendingTopics(tagLists, 5)
		assert.Equal(t, []TrendingTopic{
			{Name: "go", Count: 3},
			{Name: "databases", Count: 2},
			{Name: "testing", Count: 1},
		}, topics)
	})

	t.Run("trims and drops empty tags", func(t *testing.T) {
		tagLists := [][]string{
			{" go ", "", "  "},
			{"go"},
		}

		topics := CountTrendingTopics(tagLists, 5)
		assert.Equal(t, []TrendingTopic{{Name: "go", Count: 2}}, topics)
	})

	t.Run("ties break alphabetically", func(t *testing.T) {
		tagLists := [][]string{
			{"zig", "ada"},
		}

		topics := CountTrendingTopics(tagLists, 5)
		assert.Equal(t, []TrendingTopic{
			{Name: "ada", Count: 1},
			{Name: "zig", Count: 1},
		}, topics)
	})

	t.Run("caps at n", func(t *testing.T) {
		tagLists := [][]string{
			{"a", "b", "c", "d", "e", "f", "g"},
		}

		topics := CountTrendingTopics(tagLists, 5)
		assert.Len(t, topics, 5)
	})
}
