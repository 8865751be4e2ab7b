package platform

import "github.com/jonesrussell/social-swarm/internal/models"

// ellipsis is appended when text is truncated to a platform's limit.
const ellipsis = "..."

// Constraint is a platform's fixed content constraint table.
type Constraint struct {
	MaxTextLength   int
	MaxHashtags     int
	MinHashtags     int
	DefaultHashtags []string
}

// Optimize returns a new content item satisfying the constraint:
//   - text longer than MaxTextLength is truncated to MaxTextLength-3
//     characters plus an ellipsis, for exactly MaxTextLength total;
//   - hashtags beyond MaxHashtags are dropped, keeping the first
//     MaxHashtags in original order;
//   - hashtags below MinHashtags are padded from the default pool in
//     fixed order, skipping tags already present, until MinHashtags is
//     reached or the pool runs out.
//
// The result is deterministic and idempotent: re-optimizing an item that
// already satisfies the constraint returns it unchanged.
func Optimize(item models.ContentItem, c Constraint) models.ContentItem {
	out := item.Clone()

	if c.MaxTextLength > 0 {
		runes := []rune(out.Text)
		if len(runes) > c.MaxTextLength {
			out.Text = string(runes[:c.MaxTextLength-len(ellipsis)]) + ellipsis
		}
	}

	if c.MaxHashtags > 0 && len(out.Hashtags) > c.MaxHashtags {
		out.Hashtags = out.Hashtags[:c.MaxHashtags]
	}

	if len(out.Hashtags) < c.MinHashtags {
		for _, tag := range c.DefaultHashtags {
			if len(out.Hashtags) >= c.MinHashtags {
				break
			}
			if containsTag(out.Hashtags, tag) {
				continue
			}
			out.Hashtags = append(out.Hashtags, tag)
		}
	}

	return out
}

func containsTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}
