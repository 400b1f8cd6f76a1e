package spclient

import (
	"time"

	"spwebhooks/domain/sharepoint"
)

// mapSubscription converts a subscription API payload to the domain model.
func mapSubscription(data *subscriptionApiData) *sharepoint.Subscription {
	return &sharepoint.Subscription{
		ID:                 data.ID,
		Resource:           data.Resource,
		NotificationURL:    data.NotificationURL,
		ClientState:        data.ClientState,
		ExpirationDateTime: parseSharePointTime(data.ExpirationDateTime),
	}
}

// mapListChange converts an SP.Change row to the domain model.
func mapListChange(data *changeApiData) *sharepoint.ListChange {
	return &sharepoint.ListChange{
		Token:  data.ChangeToken.StringValue,
		Type:   sharepoint.ChangeTypeLabel(data.ChangeType),
		ItemID: data.ItemID,
		ListID: data.ListID,
		WebID:  data.WebID,
		SiteID: data.SiteID,
		Time:   parseSharePointTime(data.Time),
	}
}

// parseSharePointTime parses SharePoint's ISO timestamps, which carry up to
// seven fractional digits. Unparseable values map to the zero time.
func parseSharePointTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t
	}
	return time.Time{}
}

// formatSubscriptionTime renders an expiration the way the subscriptions API
// expects it.
func formatSubscriptionTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
