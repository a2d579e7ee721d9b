package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateMessageBody(t *testing.T) {
	require.True(t, ValidateMessageBody("hello"))
	require.False(t, ValidateMessageBody(""))
	require.False(t, ValidateMessageBody("   \n\t"))
	require.True(t, ValidateMessageBody(strings.Repeat("a", MaxMessageLength())))
	require.False(t, ValidateMessageBody(strings.Repeat("a", MaxMessageLength()+1)))
}

func TestMaxMessageLengthFromEnv(t *testing.T) {
	t.Setenv("MAX_MESSAGE_LENGTH", "10")
	require.Equal(t, 10, MaxMessageLength())
	require.False(t, ValidateMessageBody(strings.Repeat("a", 11)))

	t.Setenv("MAX_MESSAGE_LENGTH", "not a number")
	require.Equal(t, 4000, MaxMessageLength())
}

func TestValidateGroupName(t *testing.T) {
	require.True(t, ValidateGroupName("ops"))
	require.False(t, ValidateGroupName("  "))
	require.False(t, ValidateGroupName(strings.Repeat("g", MaxGroupNameLength()+1)))
}

func TestValidateUserID(t *testing.T) {
	require.True(t, ValidateUserID("alice"))
	require.False(t, ValidateUserID(""))
	require.False(t, ValidateUserID("al_ice"), "ids containing the separator would corrupt room ids")
}
