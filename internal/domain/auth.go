package domain

// Principal is the verified identity attached to a request by the auth
// middleware: a (userId, role) pair resolved from the bearer token.
type Principal struct {
	UserID string
	Role   Role
}

// CanMutateAd is the single ownership predicate gating every mutation of
// an ad: the author may mutate their own ad, an admin may mutate any.
// Every entry point must call this rather than re-deriving the check.
func CanMutateAd(p Principal, ad *Ad) bool {
	return p.UserID == ad.AuthorID || p.Role == RoleAdmin
}

// IsAdmin gates admin-only surfaces (report moderation and listing,
// user management) independent of any resource ownership.
func IsAdmin(p Principal) bool {
	return p.Role == RoleAdmin
}
