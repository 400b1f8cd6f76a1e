package application

import (
	"context"
	"time"

	"spwebhooks/domain/sharepoint"
	"spwebhooks/infrastructure/config"
	"spwebhooks/logging"
)

// RenewalWorker periodically renews this service's own webhook subscriptions
// before SharePoint expires them. With no persistence, it only considers the
// lists named in configuration, and it only touches subscriptions pointing at
// the configured notification URL.
type RenewalWorker struct {
	webhookService *WebhookService
	siteService    *SiteService
	cfg            *config.WebhookConfig
	logger         *logging.Logger
}

// NewRenewalWorker creates a new renewal worker.
func NewRenewalWorker(webhookService *WebhookService, siteService *SiteService, cfg *config.WebhookConfig) *RenewalWorker {
	return &RenewalWorker{
		webhookService: webhookService,
		siteService:    siteService,
		cfg:            cfg,
		logger:         logging.Default().WithComponent("renewal_worker"),
	}
}

// Run sweeps on the configured interval until ctx is cancelled.
func (w *RenewalWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.RenewalInterval)
	defer ticker.Stop()

	w.logger.Info("Renewal worker started",
		"interval", w.cfg.RenewalInterval.String(),
		"window", w.cfg.RenewalWindow.String(),
		"lists", len(w.cfg.RenewalLists),
	)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Renewal worker stopped")
			return
		case <-ticker.C:
			w.Sweep(ctx)
		}
	}
}

// Sweep renews every owned subscription expiring within the renewal window.
// Failures are logged and the sweep moves on to the next subscription.
func (w *RenewalWorker) Sweep(ctx context.Context) {
	identity := w.siteService.ResolveSiteIdentity("", "")
	now := time.Now()

	for _, listID := range w.cfg.RenewalLists {
		subscriptions, err := w.webhookService.List(ctx, identity, listID)
		if err != nil {
			w.logger.Error("Renewal sweep failed to list subscriptions", "list_id", listID, "error", err)
			continue
		}

		for _, sub := range subscriptions {
			if !w.owns(sub) || !sub.ExpiresWithin(now, w.cfg.RenewalWindow) {
				continue
			}

			renewed, err := w.webhookService.Renew(ctx, identity, listID, sub.ID, time.Time{})
			if err != nil {
				w.logger.Error("Failed to renew subscription", "list_id", listID, "subscription_id", sub.ID, "error", err)
				continue
			}

			w.logger.Info("Renewed subscription",
				"list_id", listID,
				"subscription_id", renewed.ID,
				"expires", renewed.ExpirationDateTime,
			)
		}
	}
}

// owns reports whether a subscription belongs to this service.
func (w *RenewalWorker) owns(sub *sharepoint.Subscription) bool {
	return w.cfg.NotificationURL != "" && sub.NotificationURL == w.cfg.NotificationURL
}
