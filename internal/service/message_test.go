package service

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"streaming_watcher/internal/config"
	"streaming_watcher/internal/domain"
	"streaming_watcher/testdata/utils"
)

func messageTestService(t *testing.T, timezone string) *NotifyService {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewNotifyService(nil, nil, nil, nil, nil, nil, nil, nil, logger,
		config.NotifyConfig{Timezone: timezone})
}

func TestNoticeFor(t *testing.T) {
	tests := []struct {
		name     string
		video    *domain.Video
		wantKind noticeKind
		wantNext domain.NotifyMode
	}{
		{
			name:     "registered gets new notice",
			video:    &domain.Video{NotifyMode: domain.NotifyModeRegistered},
			wantKind: noticeNew,
			wantNext: domain.NotifyModeNotifyRegistered,
		},
		{
			name:     "registered and updated still gets new notice",
			video:    &domain.Video{NotifyMode: domain.NotifyModeRegistered, IsUpdated: true},
			wantKind: noticeNew,
			wantNext: domain.NotifyModeNotifyRegistered,
		},
		{
			name:     "notified and updated gets updated notice without advancing",
			video:    &domain.Video{NotifyMode: domain.NotifyModeNotifyRegistered, IsUpdated: true},
			wantKind: noticeUpdated,
			wantNext: domain.NotifyModeNone,
		},
		{
			name:     "notified gets reminder",
			video:    &domain.Video{NotifyMode: domain.NotifyModeNotifyRegistered},
			wantKind: noticeRemind,
			wantNext: domain.NotifyModeNotifyRemind,
		},
		{
			name:     "absent mode jumps straight to reminder",
			video:    &domain.Video{NotifyMode: domain.NotifyModeNone},
			wantKind: noticeRemind,
			wantNext: domain.NotifyModeNotifyRemind,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, next := noticeFor(tt.video)
			assert.Equal(t, tt.wantKind, kind)
			assert.Equal(t, tt.wantNext, next)
		})
	}
}

func TestBuildNoticeText_LiveStream(t *testing.T) {
	s := messageTestService(t, "Asia/Tokyo")

	// 2024-04-06 21:00:00 JST is a Saturday.
	startTime := time.Date(2024, 4, 6, 12, 0, 0, 0, time.UTC)
	v := &domain.Video{
		VideoID:         "abc123",
		Title:           "Game Night",
		StartTime:       &startTime,
		PrivacyStatus:   domain.PrivacyPublic,
		IsLiveStreaming: true,
	}

	text := s.buildNoticeText("UC1", "My Channel", v, noticeNew)

	assert.Equal(t,
		":new: 新着配信\n"+
			"チャンネル名: <https://www.youtube.com/channel/UC1|My Channel>\n"+
			"配信名: <https://www.youtube.com/watch?v=abc123|Game Night>\n"+
			"開始時刻: 2024年4月6日 (土) 21時0分0秒",
		text)
}

func TestBuildNoticeText_PlainVideo(t *testing.T) {
	s := messageTestService(t, "UTC")

	startTime := time.Date(2024, 4, 7, 9, 30, 15, 0, time.UTC)
	v := &domain.Video{
		VideoID:       "abc123",
		Title:         "Upload",
		StartTime:     &startTime,
		PrivacyStatus: domain.PrivacyPublic,
	}

	assert.Contains(t, s.buildNoticeText("UC1", "My Channel", v, noticeNew), ":new: 新着動画")
	assert.Contains(t, s.buildNoticeText("UC1", "My Channel", v, noticeUpdated), ":repeat: 動画情報更新")
	assert.Contains(t, s.buildNoticeText("UC1", "My Channel", v, noticeRemind), ":bell: もうすぐ公開")
	assert.Contains(t, s.buildNoticeText("UC1", "My Channel", v, noticeRemind),
		"開始時刻: 2024年4月7日 (日) 9時30分15秒")
}

func TestBuildNoticeText_Unlisted(t *testing.T) {
	s := messageTestService(t, "UTC")

	startTime := time.Date(2024, 4, 7, 9, 0, 0, 0, time.UTC)
	v := &domain.Video{
		VideoID:         "abc123",
		Title:           "Members Only",
		StartTime:       &startTime,
		PrivacyStatus:   domain.PrivacyUnlisted,
		IsLiveStreaming: true,
	}

	text := s.buildNoticeText("UC1", "My Channel", v, noticeRemind)
	assert.Contains(t, text, ":bell: もうすぐ配信開始 (メンバーシップ限定・限定公開)")
}

func TestBuildNoticeText_Collab(t *testing.T) {
	s := messageTestService(t, "UTC")

	startTime := time.Date(2024, 4, 7, 9, 0, 0, 0, time.UTC)
	v := &domain.Video{
		VideoID:            "abc123",
		Title:              "Collab Stream",
		StartTime:          &startTime,
		PrivacyStatus:      domain.PrivacyPublic,
		IsLiveStreaming:    true,
		IsCollab:           true,
		CollabChannelID:    utils.Ptr("UC9"),
		CollabChannelTitle: utils.Ptr("Partner"),
	}

	text := s.buildNoticeText("UC1", "My Channel", v, noticeNew)
	assert.Contains(t, text, "コラボチャンネル: <https://www.youtube.com/channel/UC9|Partner>")
}

func TestBuildNoticeText_MissingTitles(t *testing.T) {
	s := messageTestService(t, "UTC")

	startTime := time.Date(2024, 4, 7, 9, 0, 0, 0, time.UTC)
	v := &domain.Video{
		VideoID:         "abc123",
		StartTime:       &startTime,
		PrivacyStatus:   domain.PrivacyPublic,
		IsLiveStreaming: true,
	}

	text := s.buildNoticeText("UC1", "", v, noticeNew)
	assert.NotContains(t, text, "チャンネル名")
	assert.NotContains(t, text, "配信名")
	assert.Contains(t, text, "開始時刻")
}

func TestBuildRetractionText(t *testing.T) {
	assert.Equal(t,
		":x: 配信削除\n"+
			"チャンネル名: <https://www.youtube.com/channel/UC1|My Channel>\n"+
			"配信URL: <https://www.youtube.com/watch?v=abc123>",
		buildRetractionText("UC1", "My Channel", "abc123"))

	assert.Equal(t,
		":x: 配信削除\n"+
			"配信URL: <https://www.youtube.com/watch?v=abc123>",
		buildRetractionText("UC1", "", "abc123"))
}
