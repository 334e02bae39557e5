package models

// Permission is a bitmask of capabilities granted to a principal.
type Permission uint64

const (
	PermViewPublicInfo Permission = 1 << iota
	PermSeeHidden
)

// Has reports whether all bits of p2 are present in p.
func (p Permission) Has(p2 Permission) bool {
	return p&p2 == p2
}

// Principal is the resolved identity handed to the authentication boundary.
// HashedPassword is compared there, never here.
type Principal struct {
	AccountID      string
	Name           string
	Locked         bool
	Permissions    Permission
	HashedPassword string
}

// CanSee applies the visibility rule used when resolving versions for read:
// public content is visible to everyone, everything else needs PermSeeHidden.
func (p Permission) CanSee(v Visibility) bool {
	if v == VisibilityPublic {
		return true
	}
	return p.Has(PermSeeHidden)
}
