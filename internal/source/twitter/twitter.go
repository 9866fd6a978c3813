// Package twitter scans a channel's linked Twitter account for tweets
// that announce streams, resolving linked URLs down to video ids.
package twitter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/dghubble/go-twitter/twitter"
	"golang.org/x/oauth2"

	"streaming_watcher/internal/config"
	"streaming_watcher/internal/domain"
)

// SeenStore persists which tweets were already processed so a scan can
// resume from where the last one stopped.
type SeenStore interface {
	LastSeenID(ctx context.Context, accountID string) (int64, error)
	MarkSeen(ctx context.Context, accountID string, tweetID int64) error
	SaveLink(ctx context.Context, tweetID int64, videoID string) error
}

type timelineAPI interface {
	UserTimeline(params *twitter.UserTimelineParams) ([]twitter.Tweet, *http.Response, error)
}

type statusAPI interface {
	Show(id int64, params *twitter.StatusShowParams) (*twitter.Tweet, *http.Response, error)
}

type Scanner struct {
	timeline timelineAPI
	statuses statusAPI
	resolver *http.Client
	seen     SeenStore
	cfg      config.TwitterConfig
	logger   *slog.Logger
}

func NewScanner(cfg config.TwitterConfig, seen SeenStore, logger *slog.Logger) *Scanner {
	tokenSource := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.BearerToken})
	httpClient := oauth2.NewClient(context.Background(), tokenSource)
	client := twitter.NewClient(httpClient)

	return &Scanner{
		timeline: client.Timelines,
		statuses: client.Statuses,
		resolver: http.DefaultClient,
		seen:     seen,
		cfg:      cfg,
		logger:   logger,
	}
}

// Scan walks the account's timeline since the last seen tweet and
// resolves announced video ids. Hitting the rate limit abandons the
// scan but keeps everything resolved so far.
func (s *Scanner) Scan(ctx context.Context, accountID string, known map[string]struct{}) (*domain.MentionScan, error) {
	scan := &domain.MentionScan{}

	sinceID, err := s.seen.LastSeenID(ctx, accountID)
	if err != nil {
		return scan, fmt.Errorf("last seen id: %w", err)
	}

	params := &twitter.UserTimelineParams{
		ScreenName: accountID,
		Count:      s.cfg.MaxResults,
		SinceID:    sinceID,
		TweetMode:  "extended",
	}

	s.logger.Debug("call statuses/user_timeline", "account_id", accountID, "since_id", sinceID)
	tweets, _, err := s.timeline.UserTimeline(params)
	scan.Requests++
	if err != nil {
		if isRateLimit(err) {
			scan.RateLimited = true
			return scan, nil
		}
		return scan, fmt.Errorf("user timeline: %w", err)
	}
	scan.TweetsRetrieved = len(tweets)

	found := make(map[string]struct{})

	// Oldest first so the seen marker never skips over an unprocessed
	// tweet when the scan is cut short.
	for i := len(tweets) - 1; i >= 0; i-- {
		tweet := tweets[i]

		videoIDs := s.resolveTweet(ctx, &tweet, s.cfg.ExpansionRounds, scan)

		for _, id := range videoIDs {
			if err := s.seen.SaveLink(ctx, tweet.ID, id); err != nil {
				return scan, fmt.Errorf("save link: %w", err)
			}
			if _, ok := known[id]; ok {
				continue
			}
			if _, ok := found[id]; ok {
				continue
			}
			found[id] = struct{}{}
			scan.VideoIDs = append(scan.VideoIDs, id)
		}

		if scan.RateLimited {
			// The tweet was only partially resolved. Leave it unseen
			// so the next scan picks it up again.
			return scan, nil
		}

		if err := s.seen.MarkSeen(ctx, accountID, tweet.ID); err != nil {
			return scan, fmt.Errorf("mark seen: %w", err)
		}
	}

	return scan, nil
}

// resolveTweet extracts video ids from a tweet's URLs. Status permalinks
// are expanded recursively up to rounds levels; other URLs are resolved
// by following redirects.
func (s *Scanner) resolveTweet(ctx context.Context, tweet *twitter.Tweet, rounds int, scan *domain.MentionScan) []string {
	if tweet.Entities == nil {
		return nil
	}

	var videoIDs []string
	for _, u := range tweet.Entities.Urls {
		target := u.ExpandedURL
		if target == "" {
			target = u.URL
		}

		if id := videoIDFromURL(target); id != "" {
			videoIDs = append(videoIDs, id)
			continue
		}

		if statusID := statusIDFromURL(target); statusID != 0 {
			if rounds <= 0 || scan.RateLimited {
				continue
			}

			s.logger.Debug("call statuses/show", "status_id", statusID)
			quoted, _, err := s.statuses.Show(statusID, &twitter.StatusShowParams{TweetMode: "extended"})
			scan.Requests++
			if err != nil {
				if isRateLimit(err) {
					scan.RateLimited = true
					return videoIDs
				}
				s.logger.Warn("show status failed", "status_id", statusID, "error", err)
				continue
			}

			videoIDs = append(videoIDs, s.resolveTweet(ctx, quoted, rounds-1, scan)...)
			continue
		}

		if id := videoIDFromURL(s.resolveRedirect(ctx, target)); id != "" {
			videoIDs = append(videoIDs, id)
		}
	}

	return videoIDs
}

// resolveRedirect follows a shortened URL to its final destination.
func (s *Scanner) resolveRedirect(ctx context.Context, rawURL string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return ""
	}

	resp, err := s.resolver.Do(req)
	if err != nil {
		return ""
	}
	defer resp.Body.Close()

	return resp.Request.URL.String()
}

func videoIDFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}

	host := strings.TrimPrefix(u.Hostname(), "www.")
	switch host {
	case "youtube.com", "m.youtube.com":
		switch {
		case u.Path == "/watch":
			return u.Query().Get("v")
		case strings.HasPrefix(u.Path, "/live/"):
			return strings.TrimPrefix(u.Path, "/live/")
		case strings.HasPrefix(u.Path, "/shorts/"):
			return strings.TrimPrefix(u.Path, "/shorts/")
		}
	case "youtu.be":
		return strings.TrimPrefix(u.Path, "/")
	}

	return ""
}

func statusIDFromURL(rawURL string) int64 {
	u, err := url.Parse(rawURL)
	if err != nil {
		return 0
	}

	host := strings.TrimPrefix(u.Hostname(), "www.")
	if host != "twitter.com" && host != "x.com" {
		return 0
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 3 || parts[1] != "status" {
		return 0
	}

	id, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return 0
	}

	return id
}

// isRateLimit reports whether the API rejected the call with the rate
// limit exceeded error (code 88).
func isRateLimit(err error) bool {
	var apiErr twitter.APIError
	if errors.As(err, &apiErr) {
		for _, detail := range apiErr.Errors {
			if detail.Code == 88 {
				return true
			}
		}
	}
	return false
}
