package audience

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/ignite/listmonk-bridge/internal/listmonk"
)

// fakePlatform implements the client slices the audience components
// depend on, recording every call.
type fakePlatform struct {
	mu sync.Mutex

	createErr error
	created   []listmonk.NewSubscriber

	lists    map[int]*listmonk.List
	listErrs map[int]error

	linkErr     error
	linkedEmail string
	linkedUUIDs [][]uuid.UUID

	subs   []listmonk.Subscriber
	getErr error

	updateErr     error
	updatedIDs    [][]int
	updatedAction string
	updatedLists  []int

	deleteErr  error
	deletedIDs []int
}

func (f *fakePlatform) CreateSubscriber(ctx context.Context, sub listmonk.NewSubscriber) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, sub)
	return f.createErr
}

func (f *fakePlatform) GetList(ctx context.Context, id int) (*listmonk.List, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.listErrs[id]; err != nil {
		return nil, err
	}
	if list, ok := f.lists[id]; ok {
		return list, nil
	}
	return nil, &listmonk.APIError{Status: 400, Body: "list not found"}
}

func (f *fakePlatform) PublicSubscribe(ctx context.Context, email string, listUUIDs []uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.linkedEmail = email
	f.linkedUUIDs = append(f.linkedUUIDs, listUUIDs)
	return f.linkErr
}

func (f *fakePlatform) GetSubscribersByEmail(ctx context.Context, email string) ([]listmonk.Subscriber, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.subs, nil
}

func (f *fakePlatform) UpdateSubscriberLists(ctx context.Context, ids []int, action string, targetListIDs []int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updatedIDs = append(f.updatedIDs, ids)
	f.updatedAction = action
	f.updatedLists = targetListIDs
	return f.updateErr
}

func (f *fakePlatform) DeleteSubscriber(ctx context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletedIDs = append(f.deletedIDs, id)
	return f.deleteErr
}
