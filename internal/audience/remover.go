package audience

import (
	"context"
	"errors"
	"fmt"

	"github.com/ignite/listmonk-bridge/internal/listmonk"
	"github.com/ignite/listmonk-bridge/internal/pkg/logger"
)

// SubscriberStore is the slice of the platform client the remover needs.
type SubscriberStore interface {
	GetSubscribersByEmail(ctx context.Context, email string) ([]listmonk.Subscriber, error)
	UpdateSubscriberLists(ctx context.Context, ids []int, action string, targetListIDs []int) error
	DeleteSubscriber(ctx context.Context, id int) error
}

// Remover looks up subscribers by email, enforcing the one-subscriber-
// per-email invariant, and removes list memberships or whole records.
type Remover struct {
	client SubscriberStore
	policy DuplicatePolicy
	log    logger.Interface
}

// NewRemover creates a Remover with the given duplicate policy. A nil
// log falls back to the default logger.
func NewRemover(client SubscriberStore, policy DuplicatePolicy, log logger.Interface) *Remover {
	if log == nil {
		log = logger.Default()
	}
	if policy == "" {
		policy = DuplicateFail
	}
	return &Remover{client: client, policy: policy, log: log}
}

// findMatches looks up all subscribers for the email. Zero matches is
// ErrNotFound. More than one match is a DuplicateError unless the
// remover's policy is warn and strict is false, in which case all
// matches are returned and the violation only logged.
func (r *Remover) findMatches(ctx context.Context, email string, strict bool) ([]listmonk.Subscriber, error) {
	subs, err := r.client.GetSubscribersByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("looking up subscriber: %w", err)
	}
	switch {
	case len(subs) == 0:
		return nil, ErrNotFound
	case len(subs) == 1:
		return subs, nil
	}
	if strict || r.policy != DuplicateWarn {
		return nil, &DuplicateError{Email: email, Count: len(subs)}
	}
	r.log.Warn("multiple subscribers share one email, continuing with all of them",
		"email", email, "count", len(subs))
	return subs, nil
}

// FindByEmail returns the subscriber for the email. It returns
// ErrNotFound for zero matches and, per the configured policy, either a
// DuplicateError or the first match for more than one.
func (r *Remover) FindByEmail(ctx context.Context, email string) (*listmonk.Subscriber, error) {
	subs, err := r.findMatches(ctx, email, false)
	if err != nil {
		return nil, err
	}
	return &subs[0], nil
}

// RemoveFromLists removes the subscriber's membership in the given lists
// with a single bulk request. A missing subscriber is a no-op. A failed
// bulk request is logged, not raised: membership removal is a best-effort
// side effect.
func (r *Remover) RemoveFromLists(ctx context.Context, email string, listIDs []int) error {
	subs, err := r.findMatches(ctx, email, false)
	if errors.Is(err, ErrNotFound) {
		r.log.Info("nothing to remove, subscriber not found", "email", email)
		return nil
	}
	if err != nil {
		return err
	}

	ids := make([]int, len(subs))
	for i, s := range subs {
		ids[i] = s.ID
	}
	if err := r.client.UpdateSubscriberLists(ctx, ids, listmonk.ListActionRemove, listIDs); err != nil {
		r.log.Warn("removing list memberships failed", "email", email, "error", err)
		return nil
	}
	r.log.Info("removed subscriber from lists", "email", email, "lists", fmt.Sprint(listIDs))
	return nil
}

// Delete removes the subscriber record. A missing subscriber is a no-op.
// More than one match always fails regardless of the duplicate policy.
// A failed delete request is logged, not raised.
func (r *Remover) Delete(ctx context.Context, email string) error {
	subs, err := r.findMatches(ctx, email, true)
	if errors.Is(err, ErrNotFound) {
		r.log.Info("nothing to delete, subscriber not found", "email", email)
		return nil
	}
	if err != nil {
		return err
	}

	if err := r.client.DeleteSubscriber(ctx, subs[0].ID); err != nil {
		r.log.Warn("deleting subscriber failed", "email", email, "error", err)
		return nil
	}
	r.log.Info("deleted subscriber", "email", email, "subscriber_id", subs[0].ID)
	return nil
}
