package domain

const (
	RoleUser      = "USER"
	RoleModerator = "MODERATOR"
	RoleAdmin     = "ADMIN"
)

const (
	ListingDraft    = "DRAFT"
	ListingActive   = "ACTIVE"
	ListingSold     = "SOLD"
	ListingArchived = "ARCHIVED"
)

const (
	ConditionNew         = "NEUF"
	ConditionUsed        = "OCCASION"
	ConditionRefurbished = "RECONDITIONNE"
)

const (
	PaymentCredits     = "CREDITS"
	PaymentOrangeMoney = "OM"
	PaymentMobileMoney = "MOMO"
)

const DefaultCurrency = "XAF"

// IsListingStatus reports whether s is one of the listing lifecycle states.
func IsListingStatus(s string) bool {
	switch s {
	case ListingDraft, ListingActive, ListingSold, ListingArchived:
		return true
	}
	return false
}

func IsCondition(s string) bool {
	switch s {
	case ConditionNew, ConditionUsed, ConditionRefurbished:
		return true
	}
	return false
}

func IsRole(s string) bool {
	return s == RoleUser || s == RoleModerator || s == RoleAdmin
}
