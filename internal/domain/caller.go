package domain

// Caller is the identity an authenticated request acts as. The zero value is anonymous.
type Caller struct {
	UserID uint
	Role   string
	IP     string
}

func Anonymous(ip string) Caller { return Caller{IP: ip} }

func (c Caller) IsAuthenticated() bool { return c.UserID != 0 }

// IsStaff covers moderators and admins; staff bypass listing visibility.
func (c Caller) IsStaff() bool {
	return c.IsAuthenticated() && (c.Role == RoleModerator || c.Role == RoleAdmin)
}

func (c Caller) IsAdmin() bool { return c.IsAuthenticated() && c.Role == RoleAdmin }
