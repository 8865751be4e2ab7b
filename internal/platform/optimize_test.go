package platform_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonesrussell/social-swarm/internal/models"
	"github.com/jonesrussell/social-swarm/internal/platform"
)

var instagramPool = []string{
	"marketing", "business", "socialmedia", "content", "branding",
	"growth", "digitalmarketing", "contentcreation", "smallbusiness", "entrepreneur",
}

func TestOptimize_Truncation(t *testing.T) {
	testCases := []struct {
		name       string
		text       string
		maxLength  int
		wantLength int
		truncated  bool
	}{
		{
			name:       "text over limit truncated to exactly the limit",
			text:       strings.Repeat("a", 300),
			maxLength:  280,
			wantLength: 280,
			truncated:  true,
		},
		{
			name:       "text at limit unchanged",
			text:       strings.Repeat("a", 280),
			maxLength:  280,
			wantLength: 280,
			truncated:  false,
		},
		{
			name:       "short text unchanged",
			text:       "hello",
			maxLength:  280,
			wantLength: 5,
			truncated:  false,
		},
		{
			name:       "multibyte text counted in runes",
			text:       strings.Repeat("é", 300),
			maxLength:  280,
			wantLength: 280,
			truncated:  true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			item := models.ContentItem{Text: tc.text}
			got := platform.Optimize(item, platform.Constraint{MaxTextLength: tc.maxLength})

			assert.Len(t, []rune(got.Text), tc.wantLength)
			if tc.truncated {
				assert.True(t, strings.HasSuffix(got.Text, "..."))
			} else {
				assert.Equal(t, tc.text, got.Text)
			}
		})
	}
}

func TestOptimize_HashtagCap(t *testing.T) {
	item := models.ContentItem{
		Text:     "launch post",
		Hashtags: []string{"one", "two", "three", "four", "five", "six", "seven"},
	}
	got := platform.Optimize(item, platform.Constraint{MaxTextLength: 280, MaxHashtags: 5})

	assert.Equal(t, []string{"one", "two", "three", "four", "five"}, got.Hashtags)
}

func TestOptimize_HashtagPadding(t *testing.T) {
	constraint := platform.Constraint{
		MaxTextLength:   300,
		MaxHashtags:     30,
		MinHashtags:     10,
		DefaultHashtags: instagramPool,
	}

	testCases := []struct {
		name string
		tags []string
		want []string
	}{
		{
			name: "pads from pool preserving originals first",
			tags: []string{"launch", "promo"},
			want: []string{
				"launch", "promo",
				"marketing", "business", "socialmedia", "content",
				"branding", "growth", "digitalmarketing", "contentcreation",
			},
		},
		{
			name: "skips pool tags already present",
			tags: []string{"marketing", "business"},
			want: []string{
				"marketing", "business",
				"socialmedia", "content", "branding", "growth",
				"digitalmarketing", "contentcreation", "smallbusiness", "entrepreneur",
			},
		},
		{
			name: "no padding at or above minimum",
			tags: []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"},
			want: []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			item := models.ContentItem{Text: "post", Hashtags: tc.tags}
			got := platform.Optimize(item, constraint)
			assert.Equal(t, tc.want, got.Hashtags)
		})
	}
}

func TestOptimize_Idempotent(t *testing.T) {
	constraint := platform.Constraint{
		MaxTextLength:   280,
		MaxHashtags:     5,
		MinHashtags:     3,
		DefaultHashtags: []string{"fyp", "viral", "trending"},
	}
	item := models.ContentItem{
		Text:     strings.Repeat("x", 500),
		Hashtags: []string{"one"},
	}

	once := platform.Optimize(item, constraint)
	twice := platform.Optimize(once, constraint)

	assert.Equal(t, once, twice)
}

func TestOptimize_DoesNotMutateInput(t *testing.T) {
	item := models.ContentItem{
		Text:     strings.Repeat("x", 500),
		Hashtags: []string{"one", "two", "three", "four", "five", "six"},
	}
	original := item.Clone()

	_ = platform.Optimize(item, platform.Constraint{MaxTextLength: 280, MaxHashtags: 5})

	assert.Equal(t, original, item)
}

// A single generated draft adapts differently per platform: the same
// 300-character, 7-hashtag item fits Instagram as-is but is truncated
// and capped for Twitter.
func TestOptimize_PerPlatformDivergence(t *testing.T) {
	item := models.ContentItem{
		Text:     strings.Repeat("m", 300),
		Hashtags: []string{"t1", "t2", "t3", "t4", "t5", "t6", "t7"},
	}

	instagram := platform.Optimize(item, platform.Constraint{
		MaxTextLength:   300,
		MaxHashtags:     30,
		MinHashtags:     10,
		DefaultHashtags: instagramPool,
	})
	assert.Equal(t, item.Text, instagram.Text)
	assert.Len(t, instagram.Hashtags, 10)
	assert.Equal(t, item.Hashtags, instagram.Hashtags[:7])

	twitter := platform.Optimize(item, platform.Constraint{
		MaxTextLength: 280,
		MaxHashtags:   5,
	})
	assert.Len(t, []rune(twitter.Text), 280)
	assert.True(t, strings.HasSuffix(twitter.Text, "..."))
	assert.Equal(t, item.Hashtags[:5], twitter.Hashtags)
}
