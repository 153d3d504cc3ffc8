package auth

// CanAccess decides whether an identity may read or mutate a resource owned
// by ownerID.  The rule is uniform for every per-item operation: admins may
// touch anything, everyone else only resources they own.  All handlers call
// this one function instead of re-deriving the check inline.
func CanAccess(id Identity, ownerID uint64) bool {
    return id.Role == RoleAdmin || id.SubjectID == ownerID
}
