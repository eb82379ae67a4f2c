package thread

import (
	"sort"

	"github.com/spec-kit/triage-service/internal/domain"
)

// TopKinds is how many reaction kinds are shown individually.
const TopKinds = 2

// Group is every reaction of one kind on a comment.
type Group struct {
	Kind    domain.ReactionKind
	Label   string
	Count   int
	Names   []string
	UserIDs []string
}

// Has reports whether userID reacted with this kind.
func (g Group) Has(userID string) bool {
	for _, id := range g.UserIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// Remainder folds every kind beyond the top ones.
type Remainder struct {
	Count  int
	Names  []string
	Groups []Group
}

// Summary is the display aggregate for one comment.
type Summary struct {
	Total int
	Top   []Group
	Rest  Remainder
	// Mine is the viewer's current reaction kind, empty when none.
	Mine domain.ReactionKind
}

// Aggregate groups reactions by kind. Groups are ordered by count
// descending, ties broken by label. Names keep input order.
func Aggregate(reactions []domain.Reaction, viewerID string) Summary {
	byKind := map[domain.ReactionKind]*Group{}
	var order []domain.ReactionKind
	summary := Summary{Top: []Group{}, Rest: Remainder{Names: []string{}, Groups: []Group{}}}

	for _, reaction := range reactions {
		group, ok := byKind[reaction.Kind]
		if !ok {
			group = &Group{Kind: reaction.Kind, Label: reaction.Kind.Label()}
			byKind[reaction.Kind] = group
			order = append(order, reaction.Kind)
		}
		group.Count++
		group.Names = append(group.Names, reaction.UserName)
		group.UserIDs = append(group.UserIDs, reaction.UserID)
		summary.Total++
		if viewerID != "" && reaction.UserID == viewerID {
			summary.Mine = reaction.Kind
		}
	}

	groups := make([]Group, 0, len(order))
	for _, kind := range order {
		groups = append(groups, *byKind[kind])
	}
	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].Count != groups[j].Count {
			return groups[i].Count > groups[j].Count
		}
		return groups[i].Label < groups[j].Label
	})

	for i, group := range groups {
		if i < TopKinds {
			summary.Top = append(summary.Top, group)
			continue
		}
		summary.Rest.Groups = append(summary.Rest.Groups, group)
		summary.Rest.Count += group.Count
		summary.Rest.Names = append(summary.Rest.Names, group.Names...)
	}
	return summary
}

// ToggleAction is the storage effect of a reaction toggle.
type ToggleAction int

const (
	ToggleInsert ToggleAction = iota
	ToggleReplace
	ToggleRemove
)

func (a ToggleAction) String() string {
	switch a {
	case ToggleInsert:
		return "insert"
	case ToggleReplace:
		return "replace"
	case ToggleRemove:
		return "remove"
	}
	return "unknown"
}

// DecideToggle picks the effect of reacting with kind given the user's
// existing reaction on the comment, if any.
func DecideToggle(existing *domain.Reaction, kind domain.ReactionKind) ToggleAction {
	switch {
	case existing == nil:
		return ToggleInsert
	case existing.Kind == kind:
		return ToggleRemove
	default:
		return ToggleReplace
	}
}

// ApplyToggle returns the reactions after toggling userID's reaction. It is
// the in-memory mirror of the storage upsert.
func ApplyToggle(reactions []domain.Reaction, next domain.Reaction) []domain.Reaction {
	out := make([]domain.Reaction, 0, len(reactions)+1)
	var existing *domain.Reaction
	for i := range reactions {
		if reactions[i].UserID == next.UserID {
			existing = &reactions[i]
			continue
		}
		out = append(out, reactions[i])
	}
	if DecideToggle(existing, next.Kind) == ToggleRemove {
		return out
	}
	return append(out, next)
}
