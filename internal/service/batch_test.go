package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"streaming_watcher/internal/domain"
)

func TestChannelBatchIDs(t *testing.T) {
	b := newChannelBatch("UC1", "Channel")
	b.put(&domain.Video{VideoID: "v1"})
	b.put(&domain.Video{VideoID: "v2"})
	b.put(&domain.Video{VideoID: "v3"})
	b.put(&domain.Video{VideoID: "v2"})

	assert.Equal(t, []string{"v1", "v2", "v3"}, b.ids())

	b.remove("v2")
	assert.Equal(t, []string{"v1", "v3"}, b.ids())
	assert.Nil(t, b.get("v2"))

	b.remove("v2")
	assert.Equal(t, []string{"v1", "v3"}, b.ids())
}
