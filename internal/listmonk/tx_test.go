package listmonk

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendTransactionalPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/tx", r.URL.Path)

		var payload struct {
			SubscriberEmail string            `json:"subscriber_email"`
			TemplateID      int               `json:"template_id"`
			Data            map[string]string `json:"data"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "user@example.com", payload.SubscriberEmail)
		assert.Equal(t, 5, payload.TemplateID)
		assert.Equal(t, map[string]string{"code": "123456"}, payload.Data)

		w.Write([]byte(`{"data":true}`))
	}))
	defer server.Close()

	client := newTestClient(server)

	err := client.SendTransactional(context.Background(), TxMessage{
		SubscriberEmail: "user@example.com",
		TemplateID:      5,
		Data:            map[string]string{"code": "123456"},
	})
	require.NoError(t, err)
}
