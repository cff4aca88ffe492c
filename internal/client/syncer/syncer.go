// Package syncer coordinates the local chat ledger with the backend: it
// records conversation turns locally first, pushes finished conversations to
// the end-of-conversation endpoint, and retries days that never made it.
package syncer

import (
	"context"
	"fmt"

	"github.com/catusdev/catus-client/internal/client/api"
	"github.com/catusdev/catus-client/internal/client/ledger"
	"github.com/catusdev/catus-client/internal/client/models"
	"github.com/catusdev/catus-client/internal/logging"
)

// Coordinator ties the chat API to the local ledger. Writes go local-first:
// a turn lands on disk before its network round trip, so a crash or offline
// stretch never loses anything.
type Coordinator struct {
	client api.Client
	store  *ledger.Store
	log    logging.Logger
}

func NewCoordinator(client api.Client, store *ledger.Store, log logging.Logger) *Coordinator {
	return &Coordinator{
		client: client,
		store:  store,
		log:    log.With("component", "syncer"),
	}
}

// RecordTurn sends the user's message, persists both sides of the exchange
// unsynced, and returns the assistant's reply. The user message is saved
// before the network call so it survives a failed send.
func (c *Coordinator) RecordTurn(ctx context.Context, date, content string) (*models.ChatMessage, error) {
	userMsg := models.ChatMessage{Role: models.RoleUser, Content: content}
	if err := c.store.SaveWithQuotaCheck(ctx, date, userMsg); err != nil {
		return nil, fmt.Errorf("failed to persist user message: %w", err)
	}

	reply, err := c.client.SendMessage(ctx, content)
	if err != nil {
		return nil, err
	}

	if err := c.store.SaveWithQuotaCheck(ctx, date, *reply); err != nil {
		// The reply is already on screen; losing its local copy is
		// recoverable, losing the reply itself is not.
		c.log.Warn(ctx, "failed to persist assistant reply", "date", date, "error", err)
	}
	return reply, nil
}

// EndConversation uploads the day's full transcript and, once the backend
// confirms, marks the day synced. The transcript is re-read from the ledger
// rather than taken from the caller so the upload matches what is persisted.
func (c *Coordinator) EndConversation(ctx context.Context, date string) (*models.ChatAnalysis, error) {
	messages, err := c.store.ListByDate(ctx, date)
	if err != nil {
		return nil, err
	}
	if len(messages) == 0 {
		return nil, fmt.Errorf("no conversation recorded for %s", date)
	}

	analysis, err := c.client.EndConversation(ctx, date, messages)
	if err != nil {
		return nil, err
	}

	if err := c.store.MarkSynced(ctx, date); err != nil {
		// The backend has the data; the local flag will be corrected by
		// the next Resync pass.
		c.log.Warn(ctx, "failed to mark conversation synced", "date", date, "error", err)
	}
	c.log.Info(ctx, "conversation synced", "date", date, "messages", len(messages))
	return analysis, nil
}

// Unsynced lists the days with locally recorded messages the backend has not
// confirmed yet.
func (c *Coordinator) Unsynced(ctx context.Context) ([]models.UnsyncedBatch, error) {
	return c.store.ListUnsynced(ctx)
}

// Resync re-uploads every day with unsynced messages. Each day's upload
// carries the full local transcript, not just the unconfirmed tail: a day
// that was ended once and then continued must regenerate its diary from the
// whole conversation. Days are independent: one failure is logged and
// skipped so the rest still go through. Returns how many days were
// confirmed.
func (c *Coordinator) Resync(ctx context.Context) (int, error) {
	batches, err := c.store.ListUnsynced(ctx)
	if err != nil {
		return 0, err
	}

	synced := 0
	for _, batch := range batches {
		messages, err := c.store.ListByDate(ctx, batch.Date)
		if err != nil {
			c.log.Warn(ctx, "resync failed for day", "date", batch.Date, "error", err)
			continue
		}
		if _, err := c.client.EndConversation(ctx, batch.Date, messages); err != nil {
			c.log.Warn(ctx, "resync failed for day", "date", batch.Date, "error", err)
			continue
		}
		if err := c.store.MarkSynced(ctx, batch.Date); err != nil {
			c.log.Warn(ctx, "failed to mark resynced day", "date", batch.Date, "error", err)
			continue
		}
		synced++
	}

	if synced > 0 {
		c.log.Info(ctx, "resync finished", "days", synced, "pending", len(batches)-synced)
	}
	return synced, nil
}
