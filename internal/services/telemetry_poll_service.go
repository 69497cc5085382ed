package services

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/marq24/ebike-flow-api/internal/appmetrics"
	"github.com/marq24/ebike-flow-api/internal/config"
	"github.com/marq24/ebike-flow-api/internal/constants"
)

// PollStateStore persists the bits of poll state that must survive restarts,
// the activity bookmark above all.
type PollStateStore interface {
	StoreBookmark(ctx context.Context, bikeID, activityID string) error
	RetrieveBookmark(ctx context.Context, bikeID string) (string, error)
	StoreBikePass(ctx context.Context, bikeID string, pass any) error
	RetrieveBikePass(ctx context.Context, bikeID string, pass any) error
}

const defaultPollInterval = 300 * time.Second

// UsageStats are lifetime ride totals, accumulated from reconciled
// activities. They only ever grow.
type UsageStats struct {
	Rides    int64   `json:"rides"`
	Distance float64 `json:"distance"` // meters
	Duration float64 `json:"duration"` // seconds
	Calories float64 `json:"calories"`
}

// ErrBikeNotFound is returned by snapshot lookups for ids the poller does not
// manage.
var ErrBikeNotFound = errors.New("no bike with that id is being polled")

type bikeState struct {
	stats      UsageStats
	bookmark   string
	pass       *BikePass
	refreshNow chan struct{}
}

// TelemetryPollService owns the per-bike poll loops. Each tick fetches the
// profile, overlays live data when the account subscription allows it,
// publishes the merged snapshot and folds any new activities into the usage
// stats exactly once.
type TelemetryPollService struct {
	settings *config.Settings
	api      FlowAPIService
	events   EventService
	store    PollStateStore
	log      *zerolog.Logger

	snapshots *gocache.Cache

	mu         sync.RWMutex
	bikes      map[string]*bikeState
	subscribed bool

	wg sync.WaitGroup
}

func NewTelemetryPollService(settings *config.Settings, api FlowAPIService, events EventService, store PollStateStore, logger *zerolog.Logger) *TelemetryPollService {
	return &TelemetryPollService{
		settings:  settings,
		api:       api,
		events:    events,
		store:     store,
		log:       logger,
		snapshots: gocache.New(gocache.NoExpiration, 0),
		bikes:     map[string]*bikeState{},
	}
}

// Start discovers the account's bikes, runs the startup reconciliation and
// launches one poll loop per bike. It returns once the loops are running.
func (t *TelemetryPollService) Start(ctx context.Context) error {
	bikeIDs := t.settings.BikeIDList()
	if len(bikeIDs) == 0 {
		bikes, err := t.api.GetBikes(ctx)
		if err != nil {
			return errors.Wrap(err, "failed to discover bikes for the account")
		}
		for _, b := range bikes {
			bikeIDs = append(bikeIDs, b.ID)
		}
	}
	if len(bikeIDs) == 0 {
		return errors.New("the account has no bikes to poll")
	}

	// the subscription gates live data for every bike on the account
	t.mu.Lock()
	t.subscribed = t.api.GetSubscriptionStatus(ctx)
	t.mu.Unlock()
	t.log.Info().Bool("subscribed", t.subscribed).Int("bikes", len(bikeIDs)).Msg("Starting telemetry polling.")

	for _, bikeID := range bikeIDs {
		state := &bikeState{refreshNow: make(chan struct{}, 1)}
		if bm, err := t.store.RetrieveBookmark(ctx, bikeID); err == nil {
			state.bookmark = bm
		}
		t.loadBikePass(ctx, bikeID, state)

		t.mu.Lock()
		t.bikes[bikeID] = state
		t.mu.Unlock()

		t.pollOnce(ctx, bikeID)

		t.wg.Add(1)
		go t.runLoop(ctx, bikeID)
	}
	return nil
}

// Wait blocks until every poll loop has exited.
func (t *TelemetryPollService) Wait() {
	t.wg.Wait()
}

func (t *TelemetryPollService) runLoop(ctx context.Context, bikeID string) {
	defer t.wg.Done()

	interval := defaultPollInterval
	if t.settings.PollIntervalSeconds > 0 {
		interval = time.Duration(t.settings.PollIntervalSeconds) * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	t.mu.RLock()
	refresh := t.bikes[bikeID].refreshNow
	t.mu.RUnlock()

	for {
		select {
		case <-ctx.Done():
			t.log.Info().Str("bikeId", bikeID).Msg("Stopping poll loop.")
			return
		case <-ticker.C:
			t.pollOnce(ctx, bikeID)
		case <-refresh:
			t.pollOnce(ctx, bikeID)
		}
	}
}

// pollOnce runs one full update cycle. A failed profile fetch marks the last
// snapshot stale and leaves everything else untouched, the next tick simply
// tries again.
func (t *TelemetryPollService) pollOnce(ctx context.Context, bikeID string) {
	appmetrics.FlowPollTotalOps.Inc()

	profile, err := t.api.GetBikeProfile(ctx, bikeID)
	if err != nil {
		appmetrics.FlowPollFailedOps.Inc()
		t.log.Err(err).Str("bikeId", bikeID).Msg("Poll failed, keeping previous snapshot.")
		t.markStale(bikeID)
		return
	}

	var soc *StateOfCharge
	if t.isSubscribed() {
		// live data failures are tolerated, the profile alone is a valid update
		if soc, err = t.api.GetStateOfCharge(ctx, bikeID); err != nil {
			t.log.Warn().Err(err).Str("bikeId", bikeID).Msg("Live data fetch failed, continuing with profile data.")
			soc = nil
		}
	}

	snap := CombineBikeData(bikeID, profile, soc)
	t.snapshots.Set(bikeID, snap, gocache.NoExpiration)
	appmetrics.FlowPollSuccessOps.Inc()

	if err := t.events.Emit(&CloudEventAlias{
		Type:    constants.TelemetrySnapshotEventType,
		Subject: bikeID,
		Source:  t.settings.ServiceName,
		Data:    TelemetrySnapshotEvent{Timestamp: time.Now().UTC(), Bike: snap},
	}); err != nil {
		t.log.Err(err).Str("bikeId", bikeID).Msg("Failed to publish telemetry snapshot.")
	}

	if err := t.reconcileActivities(ctx, bikeID); err != nil {
		t.log.Err(err).Str("bikeId", bikeID).Msg("Activity reconciliation failed, retrying next tick.")
	}
}

// reconcileActivities folds new rides into the usage stats. The newest page
// is compared against the bookmark, the id of the newest ride already
// counted:
//
//   - no bookmark yet: import the complete history
//   - bookmark is the newest entry: nothing to do
//   - bookmark found further down the page: count everything above it
//   - bookmark not on the page: too many new rides, reimport the history
func (t *TelemetryPollService) reconcileActivities(ctx context.Context, bikeID string) error {
	recent, err := t.api.GetRecentActivities(ctx, bikeID)
	if err != nil {
		return err
	}

	t.mu.RLock()
	bookmark := t.bikes[bikeID].bookmark
	t.mu.RUnlock()

	if bookmark == "" {
		return t.fullImport(ctx, bikeID)
	}
	if len(recent) == 0 {
		return nil
	}

	idx := -1
	for i, a := range recent {
		if a.ID == bookmark {
			idx = i
			break
		}
	}
	switch {
	case idx == 0:
		return nil
	case idx > 0:
		return t.applyActivities(ctx, bikeID, recent[:idx], false)
	default:
		t.log.Info().Str("bikeId", bikeID).Msg("Bookmark fell off the recent page, reimporting activity history.")
		return t.fullImport(ctx, bikeID)
	}
}

func (t *TelemetryPollService) fullImport(ctx context.Context, bikeID string) error {
	all, err := t.api.GetAllActivities(ctx, bikeID)
	if err != nil {
		return err
	}
	if len(all) == 0 {
		return nil
	}
	return t.applyActivities(ctx, bikeID, all, true)
}

// applyActivities counts rides oldest first so the stats and bookmark move
// forward in ride order. A reset recomputes the totals from the full history,
// which can only grow them since the history contains every counted ride.
func (t *TelemetryPollService) applyActivities(ctx context.Context, bikeID string, newestFirst []Activity, reset bool) error {
	if len(newestFirst) == 0 && !reset {
		return nil
	}

	t.mu.Lock()
	state := t.bikes[bikeID]
	if reset {
		state.stats = UsageStats{}
	}
	for i := len(newestFirst) - 1; i >= 0; i-- {
		a := newestFirst[i]
		state.stats.Rides++
		state.stats.Distance += a.Attributes.Distance.Float64
		state.stats.Duration += a.Attributes.RidingTime.Float64
		state.stats.Calories += a.Attributes.Calories.Float64
		appmetrics.ActivitiesProcessedTotal.Inc()

		if err := t.events.Emit(&CloudEventAlias{
			Type:    constants.ActivityProcessedEventType,
			Subject: bikeID,
			Source:  t.settings.ServiceName,
			Data: ActivityProcessedEvent{
				Timestamp:  time.Now().UTC(),
				BikeID:     bikeID,
				ActivityID: a.ID,
				StartTime:  a.Attributes.StartTime,
				Distance:   a.Attributes.Distance.Float64,
				RidingTime: a.Attributes.RidingTime.Float64,
				Calories:   a.Attributes.Calories.Float64,
				Stats:      state.stats,
			},
		}); err != nil {
			t.log.Err(err).Str("activityId", a.ID).Msg("Failed to publish processed activity.")
		}
	}
	if len(newestFirst) > 0 {
		state.bookmark = newestFirst[0].ID
	}
	bookmark := state.bookmark
	t.mu.Unlock()

	if bookmark == "" {
		return nil
	}
	return t.store.StoreBookmark(ctx, bikeID, bookmark)
}

// loadBikePass serves the pass from redis when present, the document never
// changes so one fetch per bike is enough.
func (t *TelemetryPollService) loadBikePass(ctx context.Context, bikeID string, state *bikeState) {
	cached := new(BikePass)
	if err := t.store.RetrieveBikePass(ctx, bikeID, cached); err == nil {
		state.pass = cached
		return
	}

	pass, err := t.api.GetBikePass(ctx, bikeID)
	if err != nil {
		t.log.Warn().Err(err).Str("bikeId", bikeID).Msg("Could not fetch bike pass.")
		return
	}
	if pass == nil {
		return
	}
	state.pass = pass
	if err := t.store.StoreBikePass(ctx, bikeID, pass); err != nil {
		t.log.Warn().Err(err).Str("bikeId", bikeID).Msg("Could not cache bike pass.")
	}
}

func (t *TelemetryPollService) isSubscribed() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.subscribed
}

// markStale replaces the cached snapshot with a stale copy. The cached
// pointer has been handed out to readers, it must never be written again.
func (t *TelemetryPollService) markStale(bikeID string) {
	if cached, ok := t.snapshots.Get(bikeID); ok {
		snap := *cached.(*BikeSnapshot)
		snap.Stale = true
		t.snapshots.Set(bikeID, &snap, gocache.NoExpiration)
	}
}

// BikeIDs returns the managed bike ids.
func (t *TelemetryPollService) BikeIDs() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	ids := make([]string, 0, len(t.bikes))
	for id := range t.bikes {
		ids = append(ids, id)
	}
	return ids
}

// Snapshot returns the latest merged view for one bike.
func (t *TelemetryPollService) Snapshot(bikeID string) (*BikeSnapshot, error) {
	cached, ok := t.snapshots.Get(bikeID)
	if !ok {
		t.mu.RLock()
		_, managed := t.bikes[bikeID]
		t.mu.RUnlock()
		if !managed {
			return nil, ErrBikeNotFound
		}
		return nil, errors.New("no snapshot collected yet")
	}
	return cached.(*BikeSnapshot), nil
}

// Stats returns the accumulated usage stats for one bike.
func (t *TelemetryPollService) Stats(bikeID string) (UsageStats, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	state, ok := t.bikes[bikeID]
	if !ok {
		return UsageStats{}, ErrBikeNotFound
	}
	return state.stats, nil
}

// Bookmark returns the id of the newest activity already counted for a bike.
func (t *TelemetryPollService) Bookmark(bikeID string) (string, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	state, ok := t.bikes[bikeID]
	if !ok {
		return "", ErrBikeNotFound
	}
	return state.bookmark, nil
}

// BikePass returns the cached pass document, nil when the account holds none.
func (t *TelemetryPollService) BikePass(bikeID string) (*BikePass, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	state, ok := t.bikes[bikeID]
	if !ok {
		return nil, ErrBikeNotFound
	}
	return state.pass, nil
}

// RequestRefresh pokes the bike's poll loop to run ahead of its ticker.
func (t *TelemetryPollService) RequestRefresh(bikeID string) error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	state, ok := t.bikes[bikeID]
	if !ok {
		return ErrBikeNotFound
	}
	select {
	case state.refreshNow <- struct{}{}:
	default:
	}
	return nil
}
