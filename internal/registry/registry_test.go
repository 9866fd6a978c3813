package registry

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChannels struct {
	existing map[string]bool
	err      error
}

func (f *fakeChannels) Insert(ctx context.Context, channelID string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	if f.existing[channelID] {
		return false, nil
	}
	if f.existing == nil {
		f.existing = make(map[string]bool)
	}
	f.existing[channelID] = true
	return true, nil
}

func (f *fakeChannels) Delete(ctx context.Context, channelID string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	if !f.existing[channelID] {
		return false, nil
	}
	delete(f.existing, channelID)
	return true, nil
}

func testService(channels *fakeChannels) *Service {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewService(channels, logger)
}

func TestHandleMessage_Add(t *testing.T) {
	svc := testService(&fakeChannels{})

	reply, err := svc.HandleMessage(context.Background(), "<@BOT> add UCabc123")

	require.NoError(t, err)
	assert.Equal(t, "このチャンネルを通知対象に追加しました: https://www.youtube.com/channel/UCabc123", reply)
}

func TestHandleMessage_AddURL(t *testing.T) {
	svc := testService(&fakeChannels{})

	reply, err := svc.HandleMessage(context.Background(),
		"<@BOT> add <https://www.youtube.com/channel/UCabc123>")

	require.NoError(t, err)
	assert.Contains(t, reply, "追加しました")
	assert.Contains(t, reply, "UCabc123")
}

func TestHandleMessage_AddExisting(t *testing.T) {
	svc := testService(&fakeChannels{existing: map[string]bool{"UCabc123": true}})

	reply, err := svc.HandleMessage(context.Background(), "<@BOT> add UCabc123")

	require.NoError(t, err)
	assert.Equal(t, "このチャンネルは既に通知対象に追加されています: https://www.youtube.com/channel/UCabc123", reply)
}

func TestHandleMessage_AddMissingArg(t *testing.T) {
	svc := testService(&fakeChannels{})

	reply, err := svc.HandleMessage(context.Background(), "<@BOT> add")

	require.NoError(t, err)
	assert.Equal(t, "引数としてチャンネルIDかチャンネルのURLを指定してください。", reply)
}

func TestHandleMessage_Delete(t *testing.T) {
	svc := testService(&fakeChannels{existing: map[string]bool{"UCabc123": true}})

	reply, err := svc.HandleMessage(context.Background(), "<@BOT> delete UCabc123")

	require.NoError(t, err)
	assert.Equal(t, "このチャンネルを通知対象から削除しました: https://www.youtube.com/channel/UCabc123", reply)
}

func TestHandleMessage_DeleteUnknown(t *testing.T) {
	svc := testService(&fakeChannels{})

	reply, err := svc.HandleMessage(context.Background(), "<@BOT> delete UCabc123")

	require.NoError(t, err)
	assert.Equal(t, "このチャンネルは通知対象ではありません: https://www.youtube.com/channel/UCabc123", reply)
}

func TestHandleMessage_NoCommand(t *testing.T) {
	svc := testService(&fakeChannels{})

	reply, err := svc.HandleMessage(context.Background(), "<@BOT> hello there")

	require.NoError(t, err)
	assert.Empty(t, reply)
}

func TestHandleMessage_StoreError(t *testing.T) {
	svc := testService(&fakeChannels{err: errors.New("db down")})

	_, err := svc.HandleMessage(context.Background(), "<@BOT> add UCabc123")

	assert.ErrorContains(t, err, "register channel")
}

func TestParseChannelID(t *testing.T) {
	tests := []struct {
		arg  string
		want string
	}{
		{"UCabc123", "UCabc123"},
		{"<https://www.youtube.com/channel/UCabc123>", "UCabc123"},
		{"https://www.youtube.com/channel/UCabc123", "UCabc123"},
		{"https://www.youtube.com/channel/UCabc123/videos", "UCabc123"},
		{"<https://www.youtube.com/channel/UCabc123|My Channel>", "UCabc123"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseChannelID(tt.arg), tt.arg)
	}
}
