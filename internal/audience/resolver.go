package audience

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/ignite/listmonk-bridge/internal/listmonk"
	"github.com/ignite/listmonk-bridge/internal/pkg/logger"
)

// ListDirectory is the slice of the platform client the resolver needs.
type ListDirectory interface {
	GetList(ctx context.Context, id int) (*listmonk.List, error)
	PublicSubscribe(ctx context.Context, email string, listUUIDs []uuid.UUID) error
}

// Resolver maps caller-facing numeric list ids to platform UUIDs and
// links existing subscribers to lists through the public subscription
// endpoint.
type Resolver struct {
	client ListDirectory
	log    logger.Interface
}

// NewResolver creates a Resolver. A nil log falls back to the default
// logger.
func NewResolver(client ListDirectory, log logger.Interface) *Resolver {
	if log == nil {
		log = logger.Default()
	}
	return &Resolver{client: client, log: log}
}

// ResolveUUIDs resolves list ids to UUIDs, one concurrent lookup per id.
// Resolution is best-effort: a failed lookup is logged and its id dropped,
// so the result may be shorter than the input. No order is guaranteed.
func (r *Resolver) ResolveUUIDs(ctx context.Context, listIDs []int) []uuid.UUID {
	if len(listIDs) == 0 {
		return nil
	}

	var wg sync.WaitGroup
	results := make(chan uuid.UUID, len(listIDs))

	for _, id := range listIDs {
		id := id
		wg.Add(1)
		go func() {
			defer wg.Done()
			list, err := r.client.GetList(ctx, id)
			if err != nil {
				r.log.Warn("list lookup failed, dropping id from resolution", "list_id", id, "error", err)
				return
			}
			results <- list.UUID
		}()
	}
	wg.Wait()
	close(results)

	uuids := make([]uuid.UUID, 0, len(listIDs))
	for u := range results {
		uuids = append(uuids, u)
	}
	return uuids
}

// Link attaches an existing subscriber to the given lists. Failure is
// logged, never propagated: this path recovers from a create race, and
// the primary contract (subscriber exists) is already satisfied by then.
func (r *Resolver) Link(ctx context.Context, email string, listUUIDs []uuid.UUID) {
	if len(listUUIDs) == 0 {
		return
	}
	if err := r.client.PublicSubscribe(ctx, email, listUUIDs); err != nil {
		r.log.Warn("linking subscriber to lists failed", "email", email, "error", err)
		return
	}
	r.log.Info("linked subscriber to lists", "email", email, "list_count", len(listUUIDs))
}
