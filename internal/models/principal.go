package models

// Principal is the requesting identity passed explicitly into every core
// operation: no request-scoped state, the caller resolves it once (HTTP
// middleware or WS handshake) and threads it through.
type Principal struct {
	UserID   string
	Nickname string
	Admin    bool
	GroupIDs []string
}

// NewPrincipal derives a principal from a user loaded with roles and
// groups.
func NewPrincipal(u *User) Principal {
	p := Principal{
		UserID:   u.ID,
		Nickname: u.Nickname,
		Admin:    u.HasRole(AdminRoleName),
	}
	for _, g := range u.Groups {
		p.GroupIDs = append(p.GroupIDs, g.ID)
	}
	return p
}

func (p Principal) InGroup(groupID string) bool {
	for _, id := range p.GroupIDs {
		if id == groupID {
			return true
		}
	}
	return false
}

// CanActAs is the self-or-admin gate shared by profile updates,
// conversation queries and the chat list.
func (p Principal) CanActAs(userID string) bool {
	return p.Admin || p.UserID == userID
}
