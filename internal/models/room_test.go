package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDirectRoomIDIsOrderIndependent(t *testing.T) {
	require.Equal(t, DirectRoomID("alice", "bob"), DirectRoomID("bob", "alice"))
	require.Equal(t, "alice_bob", DirectRoomID("bob", "alice"))
}

func TestDirectRoomIDDistinctPairsDiffer(t *testing.T) {
	require.NotEqual(t, DirectRoomID("alice", "bob"), DirectRoomID("alice", "carol"))
}

func TestRoomParticipants(t *testing.T) {
	a, b, ok := RoomParticipants("alice_bob")
	require.True(t, ok)
	require.Equal(t, "alice", a)
	require.Equal(t, "bob", b)

	for _, bad := range []string{"", "alice", "_bob", "alice_"} {
		_, _, ok := RoomParticipants(bad)
		require.False(t, ok, "room id %q must not parse", bad)
	}
}

func TestIsParticipant(t *testing.T) {
	roomID := DirectRoomID("alice", "bob")
	require.True(t, IsParticipant(roomID, "alice"))
	require.True(t, IsParticipant(roomID, "bob"))
	require.False(t, IsParticipant(roomID, "carol"))
}
