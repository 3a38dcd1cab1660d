// Package audience reconciles subscriber records and list membership
// against the mailing platform. The platform is the system of record:
// every operation here is an independent read-modify-write with no local
// state beyond the injected client.
package audience

import (
	"context"
	"fmt"

	"github.com/ignite/listmonk-bridge/internal/listmonk"
	"github.com/ignite/listmonk-bridge/internal/pkg/logger"
)

// SubscriberCreator is the slice of the platform client the registrar
// needs.
type SubscriberCreator interface {
	CreateSubscriber(ctx context.Context, sub listmonk.NewSubscriber) error
}

// Registrar idempotently creates subscribers, recovering from
// already-exists conflicts by linking the existing record to the
// requested lists.
type Registrar struct {
	client   SubscriberCreator
	resolver *Resolver
	log      logger.Interface
}

// NewRegistrar creates a Registrar. A nil log falls back to the default
// logger.
func NewRegistrar(client SubscriberCreator, resolver *Resolver, log logger.Interface) *Registrar {
	if log == nil {
		log = logger.Default()
	}
	return &Registrar{client: client, resolver: resolver, log: log}
}

// EnsureSubscriber creates the subscriber with the given lists. If the
// platform reports the email already exists, the requested lists are
// resolved to UUIDs and linked to the existing record instead; with no
// lists requested, the conflict is a no-op success. Any other creation
// failure is returned with the platform's status and body. Repeated calls
// with the same arguments converge to the same membership state.
func (g *Registrar) EnsureSubscriber(ctx context.Context, email, name, status string, listIDs []int) error {
	err := g.client.CreateSubscriber(ctx, listmonk.NewSubscriber{
		Email:  email,
		Name:   name,
		Status: status,
		Lists:  listIDs,
	})
	if err == nil {
		g.log.Info("subscriber created", "email", email, "list_count", len(listIDs))
		return nil
	}
	if !listmonk.IsConflict(err) {
		return fmt.Errorf("creating subscriber: %w", err)
	}

	if len(listIDs) == 0 {
		g.log.Debug("subscriber already exists, nothing to link", "email", email)
		return nil
	}

	g.log.Info("subscriber already exists, linking lists", "email", email, "list_count", len(listIDs))
	uuids := g.resolver.ResolveUUIDs(ctx, listIDs)
	g.resolver.Link(ctx, email, uuids)
	return nil
}
