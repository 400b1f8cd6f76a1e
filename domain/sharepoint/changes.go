package sharepoint

import (
	"fmt"
	"time"
)

// ChangeNotification is one entry of the payload SharePoint delivers to a
// webhook notification URL when a subscribed list changes.
type ChangeNotification struct {
	SubscriptionID     string `json:"subscriptionId"`
	ClientState        string `json:"clientState"`
	ExpirationDateTime string `json:"expirationDateTime"`
	Resource           string `json:"resource"`
	TenantID           string `json:"tenantId"`
	SiteURL            string `json:"siteUrl"`
	WebID              string `json:"webId"`
}

// SP.ChangeType codes returned by the GetChanges API
const (
	ChangeTypeAdd          = 1
	ChangeTypeUpdate       = 2
	ChangeTypeDeleteObject = 3
	ChangeTypeRename       = 4
	ChangeTypeMoveAway     = 5
	ChangeTypeMoveInto     = 6
	ChangeTypeRestore      = 7
)

// ChangeTypeLabel maps an SP.ChangeType code to a readable name.
func ChangeTypeLabel(changeType int) string {
	switch changeType {
	case ChangeTypeAdd:
		return "Add"
	case ChangeTypeUpdate:
		return "Update"
	case ChangeTypeDeleteObject:
		return "Delete"
	case ChangeTypeRename:
		return "Rename"
	case ChangeTypeMoveAway:
		return "MoveAway"
	case ChangeTypeMoveInto:
		return "MoveInto"
	case ChangeTypeRestore:
		return "Restore"
	default:
		return fmt.Sprintf("Unknown(%d)", changeType)
	}
}

// ListChange is one row from a list GetChanges query.
type ListChange struct {
	Token  string    `json:"token"`
	Type   string    `json:"type"`
	ItemID int       `json:"itemId,omitempty"`
	ListID string    `json:"listId"`
	WebID  string    `json:"webId"`
	SiteID string    `json:"siteId"`
	Time   time.Time `json:"time"`
}
