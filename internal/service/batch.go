package service

import "streaming_watcher/internal/domain"

// channelBatch is one channel's candidate videos for this pass,
// iterated in first-sighting order.
type channelBatch struct {
	channelID string
	title     string
	// order keeps ids in first-sighting order and may retain ids whose
	// videos were since removed; readers filter by map presence.
	order  []string
	videos map[string]*domain.Video
}

func newChannelBatch(channelID, title string) *channelBatch {
	return &channelBatch{
		channelID: channelID,
		title:     title,
		videos:    make(map[string]*domain.Video),
	}
}

func (b *channelBatch) put(v *domain.Video) {
	if _, ok := b.videos[v.VideoID]; !ok {
		b.order = append(b.order, v.VideoID)
	}
	b.videos[v.VideoID] = v
}

func (b *channelBatch) get(videoID string) *domain.Video {
	return b.videos[videoID]
}

func (b *channelBatch) remove(videoID string) {
	delete(b.videos, videoID)
}

func (b *channelBatch) ids() []string {
	ids := make([]string, 0, len(b.videos))
	for _, id := range b.order {
		if _, ok := b.videos[id]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}
