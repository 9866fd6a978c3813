package domain

import "time"

// NotifyMode tracks how far a video has progressed through its
// notification lifecycle. It only ever moves forward:
// none -> Registered -> NotifyRegistered -> NotifyRemind.
type NotifyMode string

const (
	// NotifyModeNone means the video has never been processed.
	NotifyModeNone NotifyMode = ""
	// NotifyModeRegistered means the row exists but no notice was sent yet.
	NotifyModeRegistered NotifyMode = "Registered"
	// NotifyModeNotifyRegistered means the "new" notice was sent.
	NotifyModeNotifyRegistered NotifyMode = "NotifyRegistered"
	// NotifyModeNotifyRemind means the pre-start reminder was sent.
	// No further notice is ever sent for this video.
	NotifyModeNotifyRemind NotifyMode = "NotifyRemind"
)

// PrivacyStatus mirrors the video platform's privacy status values.
type PrivacyStatus string

const (
	PrivacyPublic   PrivacyStatus = "public"
	PrivacyUnlisted PrivacyStatus = "unlisted"
	PrivacyPrivate  PrivacyStatus = "private"
)

// Channel is a watched channel. Owned by the registration subsystem;
// the notify job only reads it.
type Channel struct {
	ID               string    `db:"channel_id"`
	TwitterAccountID *string   `db:"twitter_account_id"`
	CreatedAt        time.Time `db:"created_at"`
}

// Video is one tracked video, keyed by (channel, video).
// NeedInsert and IsUpdated are per-pass reconciliation flags and are
// never persisted.
type Video struct {
	ChannelID          string        `db:"channel_id"`
	VideoID            string        `db:"video_id"`
	Title              string        `db:"title"`
	StartTime          *time.Time    `db:"start_time"`
	UpdatedTime        time.Time     `db:"updated_time"`
	NotifyMode         NotifyMode    `db:"notify_mode"`
	PrivacyStatus      PrivacyStatus `db:"privacy_status"`
	IsLiveStreaming    bool          `db:"is_live_streaming"`
	IsCollab           bool          `db:"is_collab"`
	CollabChannelID    *string       `db:"collab_channel_id"`
	CollabChannelTitle *string       `db:"collab_channel_title"`
	CreatedAt          time.Time     `db:"created_at"`

	NeedInsert bool `db:"-"`
	IsUpdated  bool `db:"-"`
}

// Feed is one channel's parsed video feed.
type Feed struct {
	ChannelID string
	Title     string
	Items     []FeedItem
}

type FeedItem struct {
	VideoID string
	Title   string
	Updated time.Time
}

// VideoMetadata is the authoritative scheduling data for one video.
type VideoMetadata struct {
	VideoID            string
	ScheduledStartTime *time.Time
	PublishedAt        *time.Time
	PrivacyStatus      PrivacyStatus
	ChannelID          string
	ChannelTitle       string
}

// VideoPage is one page of a videos.list response.
type VideoPage struct {
	Items         []VideoMetadata
	NextPageToken string
}

// MentionScan is the outcome of scanning a linked social account for
// video mentions. Counters are reported even on partial scans so quota
// bookkeeping stays accurate.
type MentionScan struct {
	VideoIDs        []string
	TweetsRetrieved int
	Requests        int
	RateLimited     bool
}
