package sharepoint

import "time"

// MaxSubscriptionLifetime is the longest lifetime SharePoint accepts for a
// list webhook subscription (180 days).
const MaxSubscriptionLifetime = 180 * 24 * time.Hour

// Subscription represents a SharePoint list webhook subscription.
type Subscription struct {
	ID                 string    `json:"id"`
	Resource           string    `json:"resource"`
	NotificationURL    string    `json:"notificationUrl"`
	ClientState        string    `json:"clientState,omitempty"`
	ExpirationDateTime time.Time `json:"expirationDateTime"`
}

// IsExpired returns true if the subscription has lapsed as of now.
func (s *Subscription) IsExpired(now time.Time) bool {
	return !s.ExpirationDateTime.After(now)
}

// ExpiresWithin returns true if the subscription expires within d of now.
func (s *Subscription) ExpiresWithin(now time.Time, d time.Duration) bool {
	return s.ExpirationDateTime.Before(now.Add(d))
}

// ClampExpiration bounds a requested expiration to SharePoint's maximum
// subscription lifetime relative to now.
func ClampExpiration(now, requested time.Time) time.Time {
	limit := now.Add(MaxSubscriptionLifetime)
	if requested.After(limit) {
		return limit
	}
	return requested
}
