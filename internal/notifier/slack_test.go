package notifier

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSlackAPI struct {
	err error

	gotChannel string
	calls      int
}

func (f *fakeSlackAPI) PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error) {
	f.calls++
	f.gotChannel = channelID
	if f.err != nil {
		return "", "", f.err
	}
	return channelID, "1700000000.000100", nil
}

func testSlack(api slackAPI) *Slack {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	return &Slack{client: api, channel: "#notify", logger: logger}
}

func TestPostMessage(t *testing.T) {
	api := &fakeSlackAPI{}

	err := testSlack(api).PostMessage(context.Background(), "hello")

	require.NoError(t, err)
	assert.Equal(t, 1, api.calls)
	assert.Equal(t, "#notify", api.gotChannel)
}

func TestPostMessage_Error(t *testing.T) {
	api := &fakeSlackAPI{err: errors.New("channel_not_found")}

	err := testSlack(api).PostMessage(context.Background(), "hello")

	assert.ErrorContains(t, err, "chat.postMessage")
}
