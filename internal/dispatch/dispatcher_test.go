package dispatch

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/listmonk-bridge/internal/listmonk"
	"github.com/ignite/listmonk-bridge/internal/pkg/logger"
)

type fakeGateway struct {
	mu sync.Mutex

	sendErrs map[string]error
	sent     []listmonk.TxMessage

	pages   map[int]*listmonk.SubscriberPage
	listErr error
}

func (f *fakeGateway) SendTransactional(_ context.Context, msg listmonk.TxMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.sendErrs[msg.SubscriberEmail]; ok {
		return err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeGateway) ListSubscribers(_ context.Context, _, page, _ int) (*listmonk.SubscriberPage, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	if p, ok := f.pages[page]; ok {
		return p, nil
	}
	return &listmonk.SubscriberPage{Page: page}, nil
}

type fakeRegistrar struct {
	err error

	email string
	name  string
	lists []int
	calls int
}

func (f *fakeRegistrar) EnsureSubscriber(_ context.Context, email, name, _ string, listIDs []int) error {
	f.calls++
	f.email = email
	f.name = name
	f.lists = listIDs
	return f.err
}

func newTestDispatcher(gw *fakeGateway, reg *fakeRegistrar) *Dispatcher {
	return NewDispatcher(gw, reg, "", logger.New(io.Discard, logger.ERROR))
}

func TestSendOneEnsuresRecipientFirst(t *testing.T) {
	gw := &fakeGateway{}
	reg := &fakeRegistrar{}
	d := newTestDispatcher(gw, reg)

	err := d.SendOne(context.Background(), Transactional{
		TemplateID:      7,
		RecipientEmail:  "jo@example.com",
		RecipientName:   "Jo",
		Variables:       map[string]string{"code": "1234"},
		AssociatedLists: []int{3},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, reg.calls)
	assert.Equal(t, "jo@example.com", reg.email)
	assert.Equal(t, "Jo", reg.name)
	assert.Equal(t, []int{3}, reg.lists)

	require.Len(t, gw.sent, 1)
	assert.Equal(t, "jo@example.com", gw.sent[0].SubscriberEmail)
	assert.Equal(t, 7, gw.sent[0].TemplateID)
	assert.Equal(t, "1234", gw.sent[0].Data["code"])
}

func TestSendOneDefaultsRecipientName(t *testing.T) {
	gw := &fakeGateway{}
	reg := &fakeRegistrar{}
	d := newTestDispatcher(gw, reg)

	err := d.SendOne(context.Background(), Transactional{
		TemplateID:     7,
		RecipientEmail: "jo@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "Anonymous", reg.name)
}

func TestSendOneAbortsWhenEnsureFails(t *testing.T) {
	gw := &fakeGateway{}
	reg := &fakeRegistrar{err: errors.New("boom")}
	d := newTestDispatcher(gw, reg)

	err := d.SendOne(context.Background(), Transactional{TemplateID: 7, RecipientEmail: "jo@example.com"})
	require.Error(t, err)
	assert.Empty(t, gw.sent, "send must not happen when the recipient cannot be ensured")
}

func TestSendOneSurfacesSendError(t *testing.T) {
	gw := &fakeGateway{sendErrs: map[string]error{
		"jo@example.com": &listmonk.APIError{Status: http.StatusInternalServerError, Body: "template render failed"},
	}}
	d := newTestDispatcher(gw, &fakeRegistrar{})

	err := d.SendOne(context.Background(), Transactional{TemplateID: 7, RecipientEmail: "jo@example.com"})
	require.Error(t, err)

	var apiErr *listmonk.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.Contains(t, apiErr.Body, "template render failed")
}

func TestSendBatchAggregatesPartialFailures(t *testing.T) {
	gw := &fakeGateway{sendErrs: map[string]error{
		"b@example.com": &listmonk.APIError{Status: http.StatusBadRequest, Body: "bad address"},
		"d@example.com": errors.New("connection reset"),
	}}
	d := newTestDispatcher(gw, &fakeRegistrar{})

	emails := []string{"a@example.com", "b@example.com", "c@example.com", "d@example.com", "e@example.com"}
	res, err := d.SendBatch(context.Background(), 9, Recipients{Emails: emails}, map[string]string{"v": "1"})
	require.NoError(t, err, "per-recipient failures must not fail the batch")

	assert.Equal(t, BatchResult{Sent: 3, Failed: 2}, res)
	assert.Len(t, gw.sent, 3)
	for _, msg := range gw.sent {
		assert.Equal(t, 9, msg.TemplateID)
		assert.Equal(t, "1", msg.Data["v"])
	}
}

func TestSendBatchExpandsListMembership(t *testing.T) {
	gw := &fakeGateway{pages: map[int]*listmonk.SubscriberPage{
		1: {
			Results: []listmonk.Subscriber{{Email: "a@example.com"}, {Email: "b@example.com"}},
			Total:   3, Page: 1, PerPage: memberPageSize,
		},
		2: {
			Results: []listmonk.Subscriber{{Email: "c@example.com"}},
			Total:   3, Page: 2, PerPage: memberPageSize,
		},
	}}
	d := newTestDispatcher(gw, &fakeRegistrar{})

	res, err := d.SendBatch(context.Background(), 9, Recipients{ListID: 4}, nil)
	require.NoError(t, err)
	assert.Equal(t, BatchResult{Sent: 3}, res)

	var got []string
	for _, msg := range gw.sent {
		got = append(got, msg.SubscriberEmail)
	}
	assert.ElementsMatch(t, []string{"a@example.com", "b@example.com", "c@example.com"}, got)
}

func TestSendBatchRejectsBadSelector(t *testing.T) {
	d := newTestDispatcher(&fakeGateway{}, &fakeRegistrar{})

	_, err := d.SendBatch(context.Background(), 9, Recipients{}, nil)
	assert.Error(t, err)

	_, err = d.SendBatch(context.Background(), 9, Recipients{Emails: []string{"a@example.com"}, ListID: 4}, nil)
	assert.Error(t, err)
}

func TestSendBatchFailsWhenListingFails(t *testing.T) {
	gw := &fakeGateway{listErr: &listmonk.APIError{Status: http.StatusNotFound, Body: "list not found"}}
	d := newTestDispatcher(gw, &fakeRegistrar{})

	_, err := d.SendBatch(context.Background(), 9, Recipients{ListID: 4}, nil)
	require.Error(t, err)

	var apiErr *listmonk.APIError
	assert.ErrorAs(t, err, &apiErr)
}
