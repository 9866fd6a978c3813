package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"streaming_watcher/internal/config"
	"streaming_watcher/internal/domain"
)

// ErrNotEligible is returned when the YouTube API gate is still in the
// future and the run was skipped without side effects.
var ErrNotEligible = errors.New("next notification time has not come yet")

// NotifyService runs one notification pass: it merges feed and social
// candidates with persisted per-video state, fetches authoritative
// metadata for videos that need it, emits due notices and rewrites the
// rate-limit gates from this run's quota consumption.
//
// Overlapping invocations may both observe an eligible gate before
// either rewrites it; at-most-one-effective-run is best effort only.
type NotifyService struct {
	channels  ChannelStore
	videos    VideoStore
	gates     GateStore
	feed      FeedSource
	metadata  MetadataSource
	mentions  MentionScanner // nil when the social scan is disabled
	messenger Messenger
	publisher Publisher // nil when event fan-out is disabled
	logger    *slog.Logger
	cfg       config.NotifyConfig
	loc       *time.Location
}

func NewNotifyService(
	channels ChannelStore,
	videos VideoStore,
	gates GateStore,
	feed FeedSource,
	metadata MetadataSource,
	mentions MentionScanner,
	messenger Messenger,
	publisher Publisher,
	logger *slog.Logger,
	cfg config.NotifyConfig,
) *NotifyService {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Warn("unknown timezone, falling back to UTC", "timezone", cfg.Timezone)
		loc = time.UTC
	}

	return &NotifyService{
		channels:  channels,
		videos:    videos,
		gates:     gates,
		feed:      feed,
		metadata:  metadata,
		mentions:  mentions,
		messenger: messenger,
		publisher: publisher,
		logger:    logger,
		cfg:       cfg,
		loc:       loc,
	}
}

func (s *NotifyService) Run(ctx context.Context) (*domain.NotifyStats, error) {
	gates, err := s.gates.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("get gates: %w", err)
	}

	now := time.Now()
	if at, ok := gates[domain.GateYouTubeDaily]; ok && now.Before(at) {
		s.logger.Info("next notification time has not come yet", "next_eligible_at", at)
		return nil, ErrNotEligible
	}

	scanEligible := s.mentions != nil &&
		!now.Before(gates[domain.GateTwitterMonthly]) &&
		!now.Before(gates[domain.GateTwitter15Min])

	stats := &domain.NotifyStats{}
	usage := &domain.QuotaUsage{}
	start := time.Now()

	// The gate rewrite must happen exactly once per effective run, on
	// every exit path, or the self-pacing bookkeeping is lost.
	defer s.updateGates(context.WithoutCancel(ctx), usage)

	channels, err := s.channels.List(ctx)
	if err != nil {
		return stats, fmt.Errorf("list channels: %w", err)
	}

	if len(channels) == 0 {
		s.logger.Info("registered channels are not found")
		return stats, nil
	}

	stats.Channels = len(channels)

	pending := make([]*channelBatch, 0, len(channels))
	for _, ch := range channels {
		batch, err := s.collectChannel(ctx, ch, scanEligible, usage, stats)
		if err != nil {
			stats.Errors++
			s.logger.Error("channel pass failed", "channel_id", ch.ID, "error", err)
			continue
		}
		if batch != nil {
			pending = append(pending, batch)
		}
	}

	s.notifyAll(ctx, pending, stats)

	stats.Duration = time.Since(start)
	s.logger.Info("notify run completed",
		"channels", stats.Channels,
		"fetched", stats.Fetched,
		"new", stats.New,
		"updated", stats.Updated,
		"reminded", stats.Reminded,
		"retracted", stats.Retracted,
		"purged", stats.Purged,
		"published", stats.Published,
		"errors", stats.Errors,
		"youtube_units", usage.YouTubeUnits,
		"tweets_retrieved", usage.TweetsRetrieved,
		"twitter_requests", usage.TwitterRequests,
		"duration", stats.Duration,
	)

	return stats, nil
}

// collectChannel fetches one channel's candidates, reconciles them with
// persisted state and fetches authoritative metadata where needed. It
// returns the batch of videos still due for a notice, or nil when the
// channel has nothing to process this pass.
func (s *NotifyService) collectChannel(
	ctx context.Context,
	ch domain.Channel,
	scanEligible bool,
	usage *domain.QuotaUsage,
	stats *domain.NotifyStats,
) (*channelBatch, error) {
	feed, err := s.feed.Fetch(ctx, ch.ID)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}

	batch := newChannelBatch(ch.ID, feed.Title)
	needMeta := make(map[string]struct{})

	for _, item := range feed.Items {
		batch.put(&domain.Video{
			ChannelID:       ch.ID,
			VideoID:         item.VideoID,
			Title:           item.Title,
			UpdatedTime:     item.Updated,
			NeedInsert:      true,
			IsLiveStreaming: true,
			PrivacyStatus:   domain.PrivacyPublic,
		})
		needMeta[item.VideoID] = struct{}{}
	}
	stats.Fetched += len(feed.Items)

	if scanEligible && ch.TwitterAccountID != nil {
		s.expandFromMentions(ctx, ch, batch, needMeta, usage, stats)
	}

	if len(batch.videos) == 0 {
		s.logger.Info("no videos to process", "channel_id", ch.ID)
		return nil, nil
	}

	if err := s.reconcile(ctx, batch, needMeta, stats); err != nil {
		return nil, err
	}

	if len(needMeta) == 0 {
		s.logger.Debug("videos that need authoritative data are not found", "channel_id", ch.ID)
		return batch, nil
	}

	if err := s.fetchMetadata(ctx, batch, needMeta, usage, stats); err != nil {
		return nil, fmt.Errorf("fetch metadata: %w", err)
	}

	// Whatever is left in needMeta was asked for and not returned:
	// the video disappeared upstream.
	for _, id := range batch.order {
		if _, ok := needMeta[id]; !ok {
			continue
		}
		v := batch.get(id)
		if v == nil {
			continue
		}
		batch.remove(id)
		if v.NeedInsert {
			// Never persisted, nothing to retract.
			s.logger.Info("video can not be resolved", "channel_id", ch.ID, "video_id", id)
			continue
		}
		s.retract(ctx, batch, id, stats)
	}

	return batch, nil
}

func (s *NotifyService) expandFromMentions(
	ctx context.Context,
	ch domain.Channel,
	batch *channelBatch,
	needMeta map[string]struct{},
	usage *domain.QuotaUsage,
	stats *domain.NotifyStats,
) {
	known := make(map[string]struct{}, len(batch.videos))
	for id := range batch.videos {
		known[id] = struct{}{}
	}

	scan, err := s.mentions.Scan(ctx, *ch.TwitterAccountID, known)
	if scan != nil {
		usage.TweetsRetrieved += scan.TweetsRetrieved
		usage.TwitterRequests += scan.Requests
	}
	if err != nil {
		stats.Errors++
		s.logger.Error("social mention scan failed", "channel_id", ch.ID, "error", err)
		return
	}
	if scan.RateLimited {
		s.logger.Warn("twitter rate limit reached, scan abandoned for this run", "channel_id", ch.ID)
	}

	now := time.Now()
	for _, id := range scan.VideoIDs {
		if _, ok := batch.videos[id]; ok {
			continue
		}
		batch.put(&domain.Video{
			ChannelID:       ch.ID,
			VideoID:         id,
			UpdatedTime:     now,
			NeedInsert:      true,
			IsLiveStreaming: true,
			PrivacyStatus:   domain.PrivacyPublic,
		})
		needMeta[id] = struct{}{}
	}
}

// reconcile merges persisted state into the candidate batch and applies
// the skip/purge rules. Videos left in needMeta afterwards still need
// an authoritative metadata lookup.
func (s *NotifyService) reconcile(
	ctx context.Context,
	batch *channelBatch,
	needMeta map[string]struct{},
	stats *domain.NotifyStats,
) error {
	persisted, err := s.videos.GetByIDs(ctx, batch.channelID, batch.ids())
	if err != nil {
		return fmt.Errorf("get videos: %w", err)
	}

	now := time.Now()
	for id, row := range persisted {
		v := batch.get(id)
		if v == nil {
			continue
		}

		v.NeedInsert = false
		v.NotifyMode = row.NotifyMode
		v.PrivacyStatus = row.PrivacyStatus
		v.IsLiveStreaming = row.IsLiveStreaming
		v.IsCollab = row.IsCollab
		v.CollabChannelID = row.CollabChannelID
		v.CollabChannelTitle = row.CollabChannelTitle
		if v.Title == "" {
			v.Title = row.Title
		}

		if row.StartTime == nil {
			// Registration never finished; still needs a lookup.
			continue
		}

		startTime := *row.StartTime
		v.StartTime = row.StartTime

		switch {
		case row.NotifyMode == domain.NotifyModeNotifyRemind || !now.Before(startTime):
			// Terminal for this video: the reminder was already sent,
			// or the start time has passed.
			s.logger.Debug("skip", "channel_id", batch.channelID, "video_id", id)
			delete(needMeta, id)
			batch.remove(id)
			s.purgeIfStale(ctx, batch.channelID, v, now, stats)
		case now.Before(startTime.Add(-time.Hour)):
			if v.UpdatedTime.After(row.UpdatedTime) {
				// Content changed upstream; persist the fresh timestamp
				// first so one edit yields one notice, then notify from
				// stored data without another lookup.
				delete(needMeta, id)
				if err := s.videos.Upsert(ctx, v); err != nil {
					stats.Errors++
					s.logger.Error("upsert video failed",
						"channel_id", batch.channelID, "video_id", id, "error", err)
					batch.remove(id)
					continue
				}
				v.IsUpdated = true
			} else {
				// More than an hour out and unchanged: too early.
				s.logger.Debug("too early", "channel_id", batch.channelID, "video_id", id)
				delete(needMeta, id)
				batch.remove(id)
			}
		default:
			// Inside the one hour window and not yet reminded.
			delete(needMeta, id)
		}
	}

	return nil
}

// purgeIfStale deletes a video whose start time has receded far enough
// that further tracking is pointless: immediately for live streams,
// after one day for plain videos.
func (s *NotifyService) purgeIfStale(ctx context.Context, channelID string, v *domain.Video, now time.Time, stats *domain.NotifyStats) {
	if v.StartTime == nil {
		return
	}

	startTime := *v.StartTime
	stale := (v.IsLiveStreaming && startTime.Before(now)) ||
		(!v.IsLiveStreaming && startTime.Before(now.AddDate(0, 0, -1)))
	if !stale {
		return
	}

	s.logger.Info("start time has passed",
		"channel_id", channelID, "video_id", v.VideoID, "start_time", startTime)

	if err := s.videos.Delete(ctx, channelID, v.VideoID); err != nil {
		stats.Errors++
		s.logger.Error("delete video failed", "channel_id", channelID, "video_id", v.VideoID, "error", err)
		return
	}
	stats.Purged++
}

// fetchMetadata resolves authoritative scheduling data for every video
// in needMeta, persisting each video's state as soon as its metadata
// arrives so a crash mid-run loses at most the in-flight batch.
func (s *NotifyService) fetchMetadata(
	ctx context.Context,
	batch *channelBatch,
	needMeta map[string]struct{},
	usage *domain.QuotaUsage,
	stats *domain.NotifyStats,
) error {
	var ids []string
	for _, id := range batch.order {
		if _, ok := needMeta[id]; ok {
			ids = append(ids, id)
		}
	}

	batchSize := s.cfg.MetadataBatchSize
	if batchSize <= 0 {
		batchSize = 50
	}

	for from := 0; from < len(ids); from += batchSize {
		to := from + batchSize
		if to > len(ids) {
			to = len(ids)
		}
		chunk := ids[from:to]

		pageToken := ""
		for {
			s.pace(ctx)

			page, err := s.metadata.ListVideos(ctx, chunk, pageToken)
			if err != nil {
				return err
			}
			usage.YouTubeUnits++

			now := time.Now()
			for _, item := range page.Items {
				delete(needMeta, item.VideoID)
				s.applyMetadata(ctx, batch, item, now, stats)
			}

			if page.NextPageToken == "" {
				break
			}
			pageToken = page.NextPageToken
		}
	}

	return nil
}

func (s *NotifyService) applyMetadata(
	ctx context.Context,
	batch *channelBatch,
	item domain.VideoMetadata,
	now time.Time,
	stats *domain.NotifyStats,
) {
	v := batch.get(item.VideoID)
	if v == nil {
		return
	}

	startTime := item.ScheduledStartTime
	if startTime == nil {
		if item.PublishedAt == nil {
			// Neither a scheduled start nor a publish time: the video
			// cannot be scheduled at all, drop it for this pass.
			s.logger.Warn("start time can not get",
				"channel_id", batch.channelID, "video_id", item.VideoID)
			batch.remove(item.VideoID)
			return
		}
		startTime = item.PublishedAt
		v.IsLiveStreaming = false
	}

	v.StartTime = startTime
	if v.NotifyMode == domain.NotifyModeNone {
		v.NotifyMode = domain.NotifyModeRegistered
	}
	if item.PrivacyStatus != "" {
		v.PrivacyStatus = item.PrivacyStatus
	}
	if item.ChannelID != "" && item.ChannelID != batch.channelID {
		collabID := item.ChannelID
		collabTitle := item.ChannelTitle
		v.IsCollab = true
		v.CollabChannelID = &collabID
		v.CollabChannelTitle = &collabTitle
	}

	if err := s.videos.Upsert(ctx, v); err != nil {
		stats.Errors++
		s.logger.Error("upsert video failed",
			"channel_id", batch.channelID, "video_id", item.VideoID, "error", err)
		batch.remove(item.VideoID)
		return
	}
	v.NeedInsert = false

	before := stats.Purged
	s.purgeIfStale(ctx, batch.channelID, v, now, stats)
	if stats.Purged > before {
		batch.remove(item.VideoID)
	}
}

// retract emits a deletion notice for a previously tracked video that
// disappeared upstream, then purges its row. The row is kept when the
// notice cannot be delivered so the next run retries.
func (s *NotifyService) retract(ctx context.Context, batch *channelBatch, videoID string, stats *domain.NotifyStats) {
	text := buildRetractionText(batch.channelID, batch.title, videoID)

	s.pace(ctx)
	if err := s.messenger.PostMessage(ctx, text); err != nil {
		stats.Errors++
		s.logger.Error("post retraction failed",
			"channel_id", batch.channelID, "video_id", videoID, "error", err)
		return
	}

	if err := s.videos.Delete(ctx, batch.channelID, videoID); err != nil {
		stats.Errors++
		s.logger.Error("delete video failed",
			"channel_id", batch.channelID, "video_id", videoID, "error", err)
		return
	}

	stats.Retracted++
	s.publish(ctx, &domain.NotificationEvent{
		Action:    "retract",
		ChannelID: batch.channelID,
		VideoID:   videoID,
		Timestamp: time.Now().UTC(),
	}, stats)
}

// notifyAll emits one notice per due video, advancing the notify mode
// ratchet after each successful delivery.
func (s *NotifyService) notifyAll(ctx context.Context, batches []*channelBatch, stats *domain.NotifyStats) {
	for _, b := range batches {
		for _, id := range b.order {
			v := b.get(id)
			if v == nil {
				continue
			}

			if v.StartTime == nil {
				s.logger.Warn("start time is not set", "channel_id", b.channelID, "video_id", id)
				continue
			}

			kind, next := noticeFor(v)
			text := s.buildNoticeText(b.channelID, b.title, v, kind)

			s.pace(ctx)
			s.logger.Info("call chat.postMessage", "channel_id", b.channelID, "video_id", id, "kind", string(kind))
			if err := s.messenger.PostMessage(ctx, text); err != nil {
				stats.Errors++
				s.logger.Error("post notice failed", "channel_id", b.channelID, "video_id", id, "error", err)
				continue
			}

			switch kind {
			case noticeNew:
				stats.New++
			case noticeUpdated:
				stats.Updated++
			case noticeRemind:
				stats.Reminded++
			}

			s.publish(ctx, &domain.NotificationEvent{
				Action:          string(kind),
				ChannelID:       b.channelID,
				VideoID:         id,
				Title:           v.Title,
				StartTime:       v.StartTime,
				IsLiveStreaming: v.IsLiveStreaming,
				Timestamp:       time.Now().UTC(),
			}, stats)

			if next == domain.NotifyModeNone {
				continue
			}
			if err := s.videos.UpdateNotifyMode(ctx, b.channelID, id, next); err != nil {
				stats.Errors++
				s.logger.Error("update notify mode failed", "channel_id", b.channelID, "video_id", id, "error", err)
			}
		}
	}
}

func (s *NotifyService) publish(ctx context.Context, event *domain.NotificationEvent, stats *domain.NotifyStats) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("publish event failed",
			"channel_id", event.ChannelID, "video_id", event.VideoID, "error", err)
		return
	}
	stats.Published++
}

// pace inserts the fixed inter-call delay that keeps outbound traffic
// under the providers' per-second limits.
func (s *NotifyService) pace(ctx context.Context) {
	if s.cfg.Pacing <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(s.cfg.Pacing):
	}
}

// updateGates rewrites every gate from this run's consumption. With no
// consumption a gate cools down for exactly one second.
func (s *NotifyService) updateGates(ctx context.Context, usage *domain.QuotaUsage) {
	now := time.Now()
	limits := []struct {
		name     string
		consumed int
		capacity int
		window   time.Duration
	}{
		{domain.GateYouTubeDaily, usage.YouTubeUnits, s.cfg.YouTubeDailyQuota, 24 * time.Hour},
		{domain.GateTwitterMonthly, usage.TweetsRetrieved, s.cfg.TwitterMonthlyTweetCap, 30 * 24 * time.Hour},
		{domain.GateTwitter15Min, usage.TwitterRequests, s.cfg.TwitterRequestsPer15Min, 15 * time.Minute},
	}

	for _, l := range limits {
		next := now.Add(Cooldown(l.consumed, l.capacity, l.window))
		if err := s.gates.Set(ctx, l.name, next); err != nil {
			s.logger.Error("set gate failed", "gate", l.name, "error", err)
			continue
		}
		s.logger.Info("next notification gate updated", "gate", l.name, "next_eligible_at", next)
	}
}

// Cooldown spreads the consumed share of a rate limit over its window:
// ceil(consumed * window / capacity) plus one second of slack.
func Cooldown(consumed, capacity int, window time.Duration) time.Duration {
	if capacity <= 0 {
		return time.Second
	}
	secs := math.Ceil(float64(consumed)*window.Seconds()/float64(capacity)) + 1
	return time.Duration(secs) * time.Second
}
