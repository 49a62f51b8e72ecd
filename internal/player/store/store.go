// Package store provides player registry persistence. Stores are pure I/O;
// matching rules and tie-break policy live in the resolver, lifecycle rules
// in the player service.
package store

import "dugout/internal/player/models"

// ListFilter narrows List results. Zero values mean "no filter".
type ListFilter struct {
	Limit    int
	Offset   int
	Status   models.Status
	Team     string
	Position string

	// IncludeInactive widens the listing to soft-deleted rows for audit
	// surfaces. Resolution paths never set this.
	IncludeInactive bool
}

func (f ListFilter) limitOrDefault() int {
	if f.Limit <= 0 || f.Limit > 200 {
		return 50
	}
	return f.Limit
}
