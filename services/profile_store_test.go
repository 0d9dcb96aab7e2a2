package services

import (
	"fmt"
	"testing"

	"cafe-server/utils/errors"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestBuildProfileUpdates(t *testing.T) {
	t.Run("send request pairs one add per document", func(t *testing.T) {
		updates := buildProfileUpdates([]ListOp{
			AddOp("b", FieldFriendRequests, "a"),
			AddOp("a", FieldSentRequests, "b"),
		})

		require.Len(t, updates, 2)
		// Caller order is the commit order on the sequential path: recipient first.
		require.Equal(t, "b", updates[0].userID)
		require.Equal(t, bson.M{"$addToSet": bson.M{"friend_requests": "a"}}, updates[0].update)
		require.Equal(t, "a", updates[1].userID)
		require.Equal(t, bson.M{"$addToSet": bson.M{"sent_requests": "b"}}, updates[1].update)
	})

	t.Run("accept groups both mutations per user into one update", func(t *testing.T) {
		updates := buildProfileUpdates([]ListOp{
			RemoveOp("b", FieldFriendRequests, "a"),
			AddOp("b", FieldFriends, "a"),
			RemoveOp("a", FieldSentRequests, "b"),
			AddOp("a", FieldFriends, "b"),
		})

		require.Len(t, updates, 2)
		require.Equal(t, "b", updates[0].userID)
		require.Equal(t, bson.M{
			"$addToSet": bson.M{"friends": "a"},
			"$pull":     bson.M{"friend_requests": "a"},
		}, updates[0].update)
		require.Equal(t, "a", updates[1].userID)
		require.Equal(t, bson.M{
			"$addToSet": bson.M{"friends": "b"},
			"$pull":     bson.M{"sent_requests": "b"},
		}, updates[1].update)
	})

	t.Run("pull-only ops omit the addToSet document", func(t *testing.T) {
		updates := buildProfileUpdates([]ListOp{
			RemoveOp("a", FieldFriends, "b"),
			RemoveOp("b", FieldFriends, "a"),
		})

		require.Len(t, updates, 2)
		require.Equal(t, bson.M{"$pull": bson.M{"friends": "b"}}, updates[0].update)
		require.Equal(t, bson.M{"$pull": bson.M{"friends": "a"}}, updates[1].update)
	})

	t.Run("no ops yields no updates", func(t *testing.T) {
		require.Empty(t, buildProfileUpdates(nil))
	})
}

func TestIsTransactionUnsupported(t *testing.T) {
	standaloneErr := fmt.Errorf("(IllegalOperation) Transaction numbers are only allowed on a replica set member or mongos")

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "standalone server message", err: standaloneErr, want: true},
		{name: "explicit unsupported message", err: fmt.Errorf("transactions are not supported"), want: true},
		{name: "unrelated store error", err: fmt.Errorf("connection reset by peer"), want: false},
		{
			// Wrapping moves the server message into APIError.Details, so the
			// check has to happen on the raw error before any wrapping.
			name: "wrapped server error is not detected",
			err:  errors.Wrap(standaloneErr, "STORE_ERROR", "Failed to update profiles", errors.ErrUnavailable.Status),
			want: false,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, isTransactionUnsupported(tc.err))
		})
	}
}
