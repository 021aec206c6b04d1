package middleware

import (
	"net/http"

	"chezben/internal/domain"

	"github.com/gin-gonic/gin"
)

type Audience int

const (
	Anyone Audience = iota
	SignedIn
	Staff
	AdminOnly
)

type Action string

const (
	ActionListingsList     Action = "listings.list"
	ActionListingsRead     Action = "listings.read"
	ActionListingsCreate   Action = "listings.create"
	ActionListingsUpdate   Action = "listings.update"
	ActionListingsDelete   Action = "listings.delete"
	ActionListingsModerate Action = "listings.moderate"
	ActionPhotosManage     Action = "photos.manage"

	ActionCategoriesRead   Action = "categories.read"
	ActionCategoriesManage Action = "categories.manage"

	ActionFavorites Action = "favorites"
	ActionHistory   Action = "history"

	ActionConversations Action = "conversations"
	ActionNotifications Action = "notifications"

	ActionBoostsOwn    Action = "boosts.own"
	ActionBoostsAll    Action = "boosts.all"
	ActionCreditsBuy   Action = "credits.buy"
	ActionAccountRead  Action = "account.read"
	ActionAccountWrite Action = "account.write"
	ActionProfilesRead Action = "profiles.read"
	ActionAuthPublic   Action = "auth.public"

	ActionAdminStats     Action = "admin.stats"
	ActionAdminUsers     Action = "admin.users"
	ActionAdminSettings  Action = "admin.settings"
	ActionAdminBroadcast Action = "admin.broadcast"
)

// Policy maps every routed action to the least privileged audience allowed to run it.
var Policy = map[Action]Audience{
	ActionListingsList:     Anyone,
	ActionListingsRead:     Anyone,
	ActionListingsCreate:   SignedIn,
	ActionListingsUpdate:   SignedIn,
	ActionListingsDelete:   SignedIn,
	ActionListingsModerate: Staff,
	ActionPhotosManage:     SignedIn,

	ActionCategoriesRead:   Anyone,
	ActionCategoriesManage: AdminOnly,

	ActionFavorites: SignedIn,
	ActionHistory:   SignedIn,

	ActionConversations: SignedIn,
	ActionNotifications: SignedIn,

	ActionBoostsOwn:    SignedIn,
	ActionBoostsAll:    Staff,
	ActionCreditsBuy:   SignedIn,
	ActionAccountRead:  SignedIn,
	ActionAccountWrite: SignedIn,
	ActionProfilesRead: Anyone,
	ActionAuthPublic:   Anyone,

	ActionAdminStats:     AdminOnly,
	ActionAdminUsers:     AdminOnly,
	ActionAdminSettings:  AdminOnly,
	ActionAdminBroadcast: AdminOnly,
}

// Allowed reports whether caller may perform action. Unknown actions are denied.
func Allowed(action Action, caller domain.Caller) bool {
	aud, ok := Policy[action]
	if !ok {
		return false
	}
	switch aud {
	case Anyone:
		return true
	case SignedIn:
		return caller.IsAuthenticated()
	case Staff:
		return caller.IsStaff()
	case AdminOnly:
		return caller.IsAdmin()
	}
	return false
}

// Authorize checks the policy table before the handler runs. Anonymous callers
// get 401 and signed-in callers without the role get 403.
func Authorize(action Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := CallerFrom(c)
		if Allowed(action, caller) {
			c.Next()
			return
		}
		if !caller.IsAuthenticated() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	}
}
