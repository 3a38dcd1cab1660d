package listmonk

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// CreateSubscriber creates a subscriber with the given list memberships.
// A 409 from the platform (email already exists) is returned as an
// *APIError detectable with IsConflict.
func (c *Client) CreateSubscriber(ctx context.Context, sub NewSubscriber) error {
	_, err := c.doRequest(ctx, http.MethodPost, "/subscribers", nil, sub)
	return err
}

// GetSubscribersByEmail queries subscribers matching the exact email.
// Email uniqueness is platform-enforced, so anything other than zero or
// one result indicates corrupted platform data; classifying that is left
// to the caller.
func (c *Client) GetSubscribersByEmail(ctx context.Context, email string) ([]Subscriber, error) {
	params := url.Values{}
	// The query is a SQL fragment evaluated by the platform; single quotes
	// in the email must be doubled to keep it well-formed.
	escaped := strings.ReplaceAll(email, "'", "''")
	params.Set("query", fmt.Sprintf("subscribers.email = '%s'", escaped))

	body, err := c.doRequest(ctx, http.MethodGet, "/subscribers", params, nil)
	if err != nil {
		return nil, err
	}

	var page SubscriberPage
	if err := decodeData("/subscribers", body, &page); err != nil {
		return nil, err
	}
	return page.Results, nil
}

// ListSubscribers fetches one page of a list's membership.
func (c *Client) ListSubscribers(ctx context.Context, listID, page, perPage int) (*SubscriberPage, error) {
	params := url.Values{}
	params.Set("list_id", strconv.Itoa(listID))
	if page > 0 {
		params.Set("page", strconv.Itoa(page))
	}
	if perPage > 0 {
		params.Set("per_page", strconv.Itoa(perPage))
	}

	body, err := c.doRequest(ctx, http.MethodGet, "/subscribers", params, nil)
	if err != nil {
		return nil, err
	}

	var result SubscriberPage
	if err := decodeData("/subscribers", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// UpdateSubscriberLists applies a bulk membership action (add, remove,
// unsubscribe) for the given subscriber ids against the target lists.
func (c *Client) UpdateSubscriberLists(ctx context.Context, ids []int, action string, targetListIDs []int) error {
	payload := struct {
		IDs           []int  `json:"ids"`
		Action        string `json:"action"`
		TargetListIDs []int  `json:"target_list_ids"`
	}{IDs: ids, Action: action, TargetListIDs: targetListIDs}

	_, err := c.doRequest(ctx, http.MethodPut, "/subscribers/lists", nil, payload)
	return err
}

// DeleteSubscriber deletes the subscriber record by platform id.
func (c *Client) DeleteSubscriber(ctx context.Context, id int) error {
	_, err := c.doRequest(ctx, http.MethodDelete, fmt.Sprintf("/subscribers/%d", id), nil, nil)
	return err
}
