package listmonk

import (
	"context"
	"net/http"
)

// SendTransactional posts a single templated send. The platform fills the
// referenced template with msg.Data and delivers to msg.SubscriberEmail,
// who must already exist as a subscriber.
func (c *Client) SendTransactional(ctx context.Context, msg TxMessage) error {
	_, err := c.doRequest(ctx, http.MethodPost, "/tx", nil, msg)
	return err
}
