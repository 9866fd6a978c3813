package service

import (
	"fmt"
	"strings"

	"streaming_watcher/internal/domain"
)

type noticeKind string

const (
	noticeNew     noticeKind = "new"
	noticeUpdated noticeKind = "updated"
	noticeRemind  noticeKind = "remind"
)

var dayOfWeeks = [7]string{"日", "月", "火", "水", "木", "金", "土"}

// noticeFor decides which notice a due video gets and which notify mode
// it advances to afterwards. Updated notices never advance the ratchet.
func noticeFor(v *domain.Video) (noticeKind, domain.NotifyMode) {
	switch {
	case v.NotifyMode == domain.NotifyModeRegistered:
		return noticeNew, domain.NotifyModeNotifyRegistered
	case v.IsUpdated:
		return noticeUpdated, domain.NotifyModeNone
	default:
		return noticeRemind, domain.NotifyModeNotifyRemind
	}
}

func (s *NotifyService) buildNoticeText(channelID, channelTitle string, v *domain.Video, kind noticeKind) string {
	var b strings.Builder

	switch kind {
	case noticeNew:
		b.WriteString(":new: 新着")
		if v.IsLiveStreaming {
			b.WriteString("配信")
		} else {
			b.WriteString("動画")
		}
	case noticeUpdated:
		b.WriteString(":repeat: ")
		if v.IsLiveStreaming {
			b.WriteString("配信")
		} else {
			b.WriteString("動画")
		}
		b.WriteString("情報更新")
	case noticeRemind:
		b.WriteString(":bell: もうすぐ")
		if v.IsLiveStreaming {
			b.WriteString("配信開始")
		} else {
			b.WriteString("公開")
		}
	}

	if v.PrivacyStatus == domain.PrivacyUnlisted {
		b.WriteString(" (メンバーシップ限定・限定公開)")
	}

	b.WriteString("\n")

	if channelTitle != "" {
		fmt.Fprintf(&b, "チャンネル名: <https://www.youtube.com/channel/%s|%s>\n", channelID, channelTitle)
	}
	if v.IsCollab && v.CollabChannelID != nil {
		title := *v.CollabChannelID
		if v.CollabChannelTitle != nil {
			title = *v.CollabChannelTitle
		}
		fmt.Fprintf(&b, "コラボチャンネル: <https://www.youtube.com/channel/%s|%s>\n", *v.CollabChannelID, title)
	}
	if v.Title != "" {
		fmt.Fprintf(&b, "配信名: <https://www.youtube.com/watch?v=%s|%s>\n", v.VideoID, v.Title)
	}

	t := v.StartTime.In(s.loc)
	fmt.Fprintf(&b, "開始時刻: %d年%d月%d日 (%s) %d時%d分%d秒",
		t.Year(), int(t.Month()), t.Day(), dayOfWeeks[int(t.Weekday())],
		t.Hour(), t.Minute(), t.Second())

	return b.String()
}

func buildRetractionText(channelID, channelTitle, videoID string) string {
	var b strings.Builder

	b.WriteString(":x: 配信削除\n")
	if channelTitle != "" {
		fmt.Fprintf(&b, "チャンネル名: <https://www.youtube.com/channel/%s|%s>\n", channelID, channelTitle)
	}
	fmt.Fprintf(&b, "配信URL: <https://www.youtube.com/watch?v=%s>", videoID)

	return b.String()
}
