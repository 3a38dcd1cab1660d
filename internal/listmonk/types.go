package listmonk

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Subscriber statuses recognized by the platform.
const (
	StatusEnabled  = "enabled"
	StatusDisabled = "disabled"
)

// Bulk list-membership actions for UpdateSubscriberLists.
const (
	ListActionAdd         = "add"
	ListActionRemove      = "remove"
	ListActionUnsubscribe = "unsubscribe"
)

// Subscriber is a platform-side record keyed uniquely by email.
type Subscriber struct {
	ID     int              `json:"id"`
	UUID   string           `json:"uuid"`
	Email  string           `json:"email"`
	Name   string           `json:"name"`
	Status string           `json:"status"`
	Lists  []ListMembership `json:"lists"`
}

// ListMembership is a list a subscriber belongs to, as embedded in
// subscriber responses.
type ListMembership struct {
	ID   int       `json:"id"`
	UUID uuid.UUID `json:"uuid"`
	Name string    `json:"name"`
}

// NewSubscriber is the request payload for creating a subscriber.
type NewSubscriber struct {
	Email  string `json:"email"`
	Name   string `json:"name"`
	Status string `json:"status"`
	Lists  []int  `json:"lists"`
}

// List is a recipient group. The numeric ID is caller-facing; the UUID is
// what the public subscription endpoint requires.
type List struct {
	ID   int       `json:"id"`
	UUID uuid.UUID `json:"uuid"`
	Name string    `json:"name"`
}

// SubscriberPage is one page of a subscriber query.
type SubscriberPage struct {
	Results []Subscriber `json:"results"`
	Total   int          `json:"total"`
	PerPage int          `json:"per_page"`
	Page    int          `json:"page"`
}

// TxMessage is the request payload for a templated transactional send.
type TxMessage struct {
	SubscriberEmail string            `json:"subscriber_email"`
	TemplateID      int               `json:"template_id"`
	Data            map[string]string `json:"data,omitempty"`
}

// envelope is the {"data": ...} wrapper listmonk puts around every
// successful response.
type envelope struct {
	Data json.RawMessage `json:"data"`
}

// decodeData unwraps the response envelope and unmarshals its data field
// into v. Any shape mismatch is reported as a ProtocolError for endpoint.
func decodeData(endpoint string, body []byte, v any) error {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return &ProtocolError{Endpoint: endpoint, Message: "body is not a JSON envelope", Cause: err}
	}
	if len(env.Data) == 0 {
		return &ProtocolError{Endpoint: endpoint, Message: "missing data field"}
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		return &ProtocolError{Endpoint: endpoint, Message: "data field has unexpected shape", Cause: err}
	}
	return nil
}
