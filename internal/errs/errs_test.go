package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentinelMatchingSurvivesWrapping(t *testing.T) {
	wrapped := fmt.Errorf("joining: %w", RoomFull)
	assert.ErrorIs(t, wrapped, RoomFull)
	assert.NotErrorIs(t, wrapped, WrongPassword)
}

func TestFromCodeRoundTrip(t *testing.T) {
	for _, sentinel := range []*Error{
		RoomFull, WrongPassword, RoomNotFound, PlayerNotFound, NotHost,
		InsufficientPlayers, NotAllReady, NotYourTurn, CardNotInHand, GameNotActive,
	} {
		rebuilt := FromCode(CodeOf(sentinel), sentinel.Message)
		assert.ErrorIs(t, rebuilt, sentinel, "code %s", sentinel.Code)
		assert.Equal(t, sentinel.Kind, rebuilt.Kind)
	}
}

func TestFromCodeUnknown(t *testing.T) {
	err := FromCode("SOMETHING_ELSE", "")
	require.NotNil(t, err)
	assert.Equal(t, KindTransport, err.Kind)
	assert.NotEmpty(t, err.Message)
}

func TestCodeOfForeignError(t *testing.T) {
	assert.Equal(t, CodeConnectionFailed, CodeOf(errors.New("plain")))
}

func TestTransportUnwraps(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := Transport("request failed", cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "CONNECTION_FAILED")
}
