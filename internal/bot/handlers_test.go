package bot

import (
	"testing"

	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"
)

// senderlessContext simulates an update without a sender, as channel
// posts deliver them.
type senderlessContext struct {
	tele.Context
}

func (senderlessContext) Sender() *tele.User { return nil }

func TestHandleStartWithoutSender(t *testing.T) {
	a := &App{}
	require.NoError(t, a.handleStart(senderlessContext{}))
}
