package listmonk

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
)

// GetList fetches a list by its numeric id, including the UUID required
// by the public subscription endpoint.
func (c *Client) GetList(ctx context.Context, id int) (*List, error) {
	endpoint := fmt.Sprintf("/lists/%d", id)
	body, err := c.doRequest(ctx, http.MethodGet, endpoint, nil, nil)
	if err != nil {
		return nil, err
	}

	var list List
	if err := decodeData(endpoint, body, &list); err != nil {
		return nil, err
	}
	if list.UUID == uuid.Nil {
		return nil, &ProtocolError{Endpoint: endpoint, Message: "list has no uuid"}
	}
	return &list, nil
}

// PublicSubscribe attaches an existing subscriber to lists through the
// platform's public, unauthenticated subscription endpoint. Lists must be
// identified by UUID here; the endpoint does not accept numeric ids.
func (c *Client) PublicSubscribe(ctx context.Context, email string, listUUIDs []uuid.UUID) error {
	payload := struct {
		Email     string      `json:"email"`
		ListUUIDs []uuid.UUID `json:"list_uuids"`
	}{Email: email, ListUUIDs: listUUIDs}

	_, err := c.doPublicRequest(ctx, http.MethodPost, "/public/subscription", payload)
	return err
}
