// Package dispatch sends templated emails through the mailing platform,
// one recipient at a time or fanned out across a batch.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/ignite/listmonk-bridge/internal/listmonk"
	"github.com/ignite/listmonk-bridge/internal/pkg/logger"
)

// Gateway is the slice of the platform client the dispatcher needs.
type Gateway interface {
	SendTransactional(ctx context.Context, msg listmonk.TxMessage) error
	ListSubscribers(ctx context.Context, listID, page, perPage int) (*listmonk.SubscriberPage, error)
}

// Registrar guarantees a recipient exists before a transactional send.
type Registrar interface {
	EnsureSubscriber(ctx context.Context, email, name, status string, listIDs []int) error
}

// Transactional is a single-recipient templated send tied to a user
// action. AssociatedLists are lists the recipient is subscribed to as a
// side effect of the send.
type Transactional struct {
	TemplateID      int
	RecipientEmail  string
	RecipientName   string
	Variables       map[string]string
	AssociatedLists []int
}

// Recipients selects the audience of a batch send: either a literal set
// of emails, or the membership of a list. Exactly one form must be set;
// the list form is the canonical one for operator notifications.
type Recipients struct {
	Emails []string
	ListID int
}

func (r Recipients) validate() error {
	if len(r.Emails) > 0 && r.ListID != 0 {
		return errors.New("recipients: set either emails or a list id, not both")
	}
	if len(r.Emails) == 0 && r.ListID == 0 {
		return errors.New("recipients: no emails or list id given")
	}
	return nil
}

// BatchResult aggregates per-recipient outcomes of a batch send.
type BatchResult struct {
	Sent   int
	Failed int
}

const (
	fallbackName = "Anonymous"

	// Page size used when expanding a list's membership.
	memberPageSize = 500
)

// Dispatcher sends templated emails. All methods are safe for concurrent
// use.
type Dispatcher struct {
	client      Gateway
	registrar   Registrar
	defaultName string
	log         logger.Interface
}

// NewDispatcher creates a Dispatcher. defaultName is the display name for
// recipients created on the fly; empty means "Anonymous". A nil log falls
// back to the default logger.
func NewDispatcher(client Gateway, registrar Registrar, defaultName string, log logger.Interface) *Dispatcher {
	if defaultName == "" {
		defaultName = fallbackName
	}
	if log == nil {
		log = logger.Default()
	}
	return &Dispatcher{client: client, registrar: registrar, defaultName: defaultName, log: log}
}

// SendOne posts a single templated send. The platform cannot deliver to
// an unknown subscriber, so the recipient is created (or linked to the
// associated lists) first; a failure there aborts the send. A non-success
// response from the send itself is returned with status and body.
func (d *Dispatcher) SendOne(ctx context.Context, tx Transactional) error {
	name := tx.RecipientName
	if name == "" {
		name = d.defaultName
	}
	if err := d.registrar.EnsureSubscriber(ctx, tx.RecipientEmail, name, listmonk.StatusEnabled, tx.AssociatedLists); err != nil {
		return fmt.Errorf("ensuring recipient exists: %w", err)
	}

	err := d.client.SendTransactional(ctx, listmonk.TxMessage{
		SubscriberEmail: tx.RecipientEmail,
		TemplateID:      tx.TemplateID,
		Data:            tx.Variables,
	})
	if err != nil {
		return fmt.Errorf("sending template %d: %w", tx.TemplateID, err)
	}
	d.log.Info("transactional email sent", "email", tx.RecipientEmail, "template_id", tx.TemplateID)
	return nil
}

// SendBatch sends one templated email per recipient, all concurrently and
// independently: one recipient's failure never cancels or blocks the
// others. Per-recipient failures are logged and reported only through the
// aggregate counts; the call errors only when the recipient set itself
// cannot be established.
func (d *Dispatcher) SendBatch(ctx context.Context, templateID int, recipients Recipients, variables map[string]string) (BatchResult, error) {
	emails, err := d.expandRecipients(ctx, recipients)
	if err != nil {
		return BatchResult{}, err
	}

	var sent, failed atomic.Int64
	var wg sync.WaitGroup
	for _, email := range emails {
		email := email
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := d.client.SendTransactional(ctx, listmonk.TxMessage{
				SubscriberEmail: email,
				TemplateID:      templateID,
				Data:            variables,
			})
			if err != nil {
				failed.Add(1)
				d.log.Warn("batch send failed", "email", email, "template_id", templateID, "error", err)
				return
			}
			sent.Add(1)
		}()
	}
	wg.Wait()

	result := BatchResult{Sent: int(sent.Load()), Failed: int(failed.Load())}
	d.log.Info("batch dispatch complete",
		"template_id", templateID, "sent", result.Sent, "failed", result.Failed)
	return result, nil
}

// expandRecipients turns the selector into a flat email list, walking the
// platform's paginated membership listing for the list form.
func (d *Dispatcher) expandRecipients(ctx context.Context, recipients Recipients) ([]string, error) {
	if err := recipients.validate(); err != nil {
		return nil, err
	}
	if len(recipients.Emails) > 0 {
		return recipients.Emails, nil
	}

	var emails []string
	for page := 1; ; page++ {
		p, err := d.client.ListSubscribers(ctx, recipients.ListID, page, memberPageSize)
		if err != nil {
			return nil, fmt.Errorf("listing members of list %d: %w", recipients.ListID, err)
		}
		for _, sub := range p.Results {
			emails = append(emails, sub.Email)
		}
		if len(p.Results) == 0 || len(emails) >= p.Total || len(p.Results) < memberPageSize {
			break
		}
	}
	return emails, nil
}
