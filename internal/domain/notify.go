package domain

import "time"

// Gate names. Each names one external rate limit with a persisted
// next-eligible timestamp. The YouTube gate gates the whole job; the
// Twitter gates only gate the social mention scan.
const (
	GateYouTubeDaily   = "youtube_api_daily"
	GateTwitterMonthly = "twitter_api_monthly"
	GateTwitter15Min   = "twitter_api_15min"
)

// QuotaUsage accumulates this run's consumption against each limit.
type QuotaUsage struct {
	YouTubeUnits    int
	TweetsRetrieved int
	TwitterRequests int
}

// NotifyStats holds statistics about one notify run.
type NotifyStats struct {
	Channels  int
	Fetched   int
	New       int
	Updated   int
	Reminded  int
	Retracted int
	Purged    int
	Errors    int
	Published int
	Duration  time.Duration
}

// NotificationEvent mirrors an emitted notice for downstream consumers.
type NotificationEvent struct {
	Action          string     `json:"action"` // "new", "updated", "remind" or "retract"
	ChannelID       string     `json:"channel_id"`
	VideoID         string     `json:"video_id"`
	Title           string     `json:"title,omitempty"`
	StartTime       *time.Time `json:"start_time,omitempty"`
	IsLiveStreaming bool       `json:"is_live_streaming"`
	Timestamp       time.Time  `json:"timestamp"`
}
