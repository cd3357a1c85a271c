package scheduler

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"tubedigest-backend/internal/models"
	"tubedigest-backend/internal/storage"
)

// Checker analyzes one channel's videos published after since.
type Checker interface {
	CheckChannelUpdates(ctx context.Context, channelURL string, since time.Time) ([]models.AnalysisResult, error)
}

// Sender delivers one consolidated digest to a subscriber.
type Sender interface {
	SendDigest(batch models.NotificationBatch) error
}

// Daemon runs subscription checks at configured local times. Ticks are
// serialized: a tick that fires while the previous one is still running waits
// for it instead of overlapping or being dropped.
type Daemon struct {
	store    *storage.SubscriptionStore
	checker  Checker
	sender   Sender
	location *time.Location
	times    []string
	cron     *cron.Cron

	mu  sync.Mutex // serializes manual triggers against cron ticks
	now func() time.Time
}

func New(store *storage.SubscriptionStore, checker Checker, sender Sender, location *time.Location, times []string) *Daemon {
	return &Daemon{
		store:    store,
		checker:  checker,
		sender:   sender,
		location: location,
		times:    times,
		cron: cron.New(
			cron.WithLocation(location),
			cron.WithChain(cron.DelayIfStillRunning(cron.DefaultLogger)),
		),
		now: time.Now,
	}
}

// Start registers one cron entry per configured "HH:MM" time and begins
// ticking. It returns immediately; Stop shuts the ticker down.
func (d *Daemon) Start(ctx context.Context) error {
	for _, t := range d.times {
		spec, err := cronSpec(t)
		if err != nil {
			return err
		}
		if _, err := d.cron.AddFunc(spec, func() {
			if err := d.RunOnce(ctx); err != nil {
				log.Printf("Scheduled subscription check failed: %v", err)
			}
		}); err != nil {
			return fmt.Errorf("failed to add cron entry for %s: %w", t, err)
		}
	}

	d.cron.Start()
	log.Printf("✓ Subscription scheduler started (times: %s, timezone: %s)", strings.Join(d.times, ", "), d.location)
	return nil
}

func (d *Daemon) Stop() {
	ctx := d.cron.Stop()
	<-ctx.Done()
}

// cronSpec converts a local "HH:MM" wall time into a standard cron expression.
func cronSpec(hhmm string) (string, error) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return "", fmt.Errorf("invalid schedule time %q: %w", hhmm, err)
	}
	return fmt.Sprintf("%d %d * * *", t.Minute(), t.Hour()), nil
}

// RunOnce performs one complete tick: check every active subscription, group
// updates per subscriber, send one digest per subscriber with updates, and
// advance cursors only for subscriptions whose digest was delivered.
func (d *Daemon) RunOnce(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	tickStart := d.now().UTC()

	subs, err := d.store.List()
	if err != nil {
		return fmt.Errorf("failed to list subscriptions: %w", err)
	}
	if len(subs) == 0 {
		log.Println("Subscription check: no active subscriptions")
		return nil
	}

	log.Printf("Subscription check started (%d subscriptions)", len(subs))

	byEmail := make(map[string][]models.Subscription)
	var emails []string
	for _, sub := range subs {
		key := strings.ToLower(sub.UserEmail)
		if _, ok := byEmail[key]; !ok {
			emails = append(emails, key)
		}
		byEmail[key] = append(byEmail[key], sub)
	}

	// Subscribers are processed concurrently; each subscriber's channels are
	// checked sequentially so a digest is assembled in subscription order.
	var wg sync.WaitGroup
	for _, email := range emails {
		wg.Add(1)
		go func(subscriptions []models.Subscription) {
			defer wg.Done()
			d.checkSubscriber(ctx, subscriptions, tickStart)
		}(byEmail[email])
	}
	wg.Wait()

	log.Printf("Subscription check finished in %s", d.now().UTC().Sub(tickStart).Round(time.Millisecond))
	return nil
}

func (d *Daemon) checkSubscriber(ctx context.Context, subs []models.Subscription, tickStart time.Time) {
	batch := models.NotificationBatch{
		SubscriberEmail: subs[0].UserEmail,
		GeneratedAt:     tickStart,
	}

	for _, sub := range subs {
		since := d.sinceFor(sub, tickStart)

		results, err := d.checker.CheckChannelUpdates(ctx, sub.ChannelURL, since)
		if err != nil {
			// The channel stays on its old cursor and is retried next tick.
			log.Printf("Failed to check %s for %s: %v", sub.ChannelURL, sub.UserEmail, err)
			continue
		}
		if len(results) == 0 {
			continue
		}

		batch.Channels = append(batch.Channels, models.ChannelUpdate{
			ChannelName:    sub.ChannelName,
			ChannelURL:     sub.ChannelURL,
			SubscriptionID: sub.ID,
			Results:        results,
		})
	}

	// Cursors move only for channels whose videos were actually delivered.
	// An empty tick is a no-op, so re-running it is harmless.
	if len(batch.Channels) == 0 {
		return
	}

	if err := d.sender.SendDigest(batch); err != nil {
		// Cursors stay put so these videos are re-sent next tick rather
		// than silently lost.
		log.Printf("Skipping cursor advance for %s: %v", batch.SubscriberEmail, err)
		return
	}
	log.Printf("Digest sent to %s (%d videos, %d AI summaries)", batch.SubscriberEmail, batch.TotalVideos(), batch.AISummaryCount())

	deliveredIDs := make([]string, 0, len(batch.Channels))
	for _, ch := range batch.Channels {
		deliveredIDs = append(deliveredIDs, ch.SubscriptionID)
	}
	if err := d.store.UpdateLastChecked(deliveredIDs, tickStart); err != nil {
		log.Printf("Failed to advance cursors for %s: %v", batch.SubscriberEmail, err)
	}
}

// sinceFor derives the lookback cutoff for one subscription. A never-checked
// subscription covers the current local day only, so a fresh subscription does
// not flood its subscriber with the channel's back catalog.
func (d *Daemon) sinceFor(sub models.Subscription, tickStart time.Time) time.Time {
	if sub.LastChecked != nil && !sub.LastChecked.IsZero() {
		return sub.LastChecked.UTC()
	}
	local := tickStart.In(d.location)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, d.location).UTC()
}
