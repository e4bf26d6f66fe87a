// Package ownership decides whether mutation controls render.
package ownership

import "bulletin/models"

// CanMutate reports whether edit/delete affordances should render for a
// resource. True only when the viewer is a resolved, server-confirmed
// identity and the resource has a concrete author with the same id.
// Anonymous viewers, identity not yet resolved, and anonymous-authored
// legacy content all deny.
//
// Taking *models.Identity means only the session controller's
// authoritative answer can pass this gate; a locally decoded token claim
// has no way in. This is a visibility decision, not a security boundary:
// the backend re-checks ownership on every mutation.
func CanMutate(viewer *models.Identity, authorID *int64) bool {
	if viewer == nil || authorID == nil {
		return false
	}
	return viewer.ID == *authorID
}
