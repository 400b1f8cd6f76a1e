package spclient

import (
	"encoding/json"
)

// ---------- Wire models ----------

// subscriptionApiData mirrors the Microsoft.SharePoint.Webhooks.Subscription
// REST payload. Field names are camelCase on the wire regardless of OData
// metadata level.
type subscriptionApiData struct {
	ID                 string `json:"id,omitempty"`
	ClientState        string `json:"clientState,omitempty"`
	ExpirationDateTime string `json:"expirationDateTime,omitempty"`
	NotificationURL    string `json:"notificationUrl,omitempty"`
	Resource           string `json:"resource,omitempty"`
	ResourceData       string `json:"resourceData,omitempty"`
}

// changeQueryApiData is the GetChanges request body.
type changeQueryApiData struct {
	Query changeQueryFields `json:"query"`
}

// changeQueryFields selects which change classes SharePoint returns.
// Property names are PascalCase per SP.ChangeQuery.
type changeQueryFields struct {
	Item         bool `json:"Item"`
	Add          bool `json:"Add"`
	Update       bool `json:"Update"`
	DeleteObject bool `json:"DeleteObject"`
	FetchLimit   int  `json:"FetchLimit,omitempty"`
}

// changeApiData mirrors one SP.Change row from a GetChanges response.
type changeApiData struct {
	ChangeToken struct {
		StringValue string `json:"StringValue"`
	} `json:"ChangeToken"`
	ChangeType int    `json:"ChangeType"`
	ItemID     int    `json:"ItemId"`
	ListID     string `json:"ListId"`
	WebID      string `json:"WebId"`
	SiteID     string `json:"SiteId"`
	Time       string `json:"Time"`
}

// ---------- Envelope decoding ----------

// decodeCollection unwraps a SharePoint collection response. Nometadata
// responses arrive as {"value":[...]}; verbose responses as
// {"d":{"results":[...]}}; some endpoints return a bare array.
func decodeCollection[T any](data []byte) ([]T, error) {
	var envelope struct {
		Value []T `json:"value"`
		D     struct {
			Results []T `json:"results"`
		} `json:"d"`
	}
	if err := json.Unmarshal(data, &envelope); err == nil {
		if envelope.Value != nil {
			return envelope.Value, nil
		}
		if envelope.D.Results != nil {
			return envelope.D.Results, nil
		}
	}

	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// decodeObject unwraps a single-object response, tolerating the verbose
// {"d":{...}} envelope.
func decodeObject[T any](data []byte) (T, error) {
	var zero T

	var envelope struct {
		D json.RawMessage `json:"d"`
	}
	if err := json.Unmarshal(data, &envelope); err == nil && len(envelope.D) > 0 && string(envelope.D) != "null" {
		var out T
		if err := json.Unmarshal(envelope.D, &out); err != nil {
			return zero, err
		}
		return out, nil
	}

	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return zero, err
	}
	return out, nil
}
