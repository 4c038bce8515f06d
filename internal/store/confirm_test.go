package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/somahq/soma/internal/domain/records"
	"github.com/somahq/soma/internal/domain/repository"
)

func awaiting(now time.Time) records.Withdrawal {
	exp := now.Add(time.Hour)
	return records.Withdrawal{
		ID:                    "w1",
		StoreID:               "s1",
		Amount:                5000,
		Currency:              "NGN",
		Status:                records.WithdrawalAwaitingConfirmation,
		ConfirmationTokenHash: "hash-ok",
		ConfirmationExpiresAt: &exp,
		CreatedAt:             now.Add(-time.Minute),
	}
}

func TestConfirmTransition(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("valid token moves to pending", func(t *testing.T) {
		next, already, err := confirmTransition(awaiting(now), "hash-ok", now)
		require.NoError(t, err)
		assert.False(t, already)
		assert.Equal(t, records.WithdrawalPending, next.Status)
		assert.Empty(t, next.ConfirmationTokenHash)
		assert.Nil(t, next.ConfirmationExpiresAt)
		require.NotNil(t, next.ConfirmedAt)
		assert.True(t, next.ConfirmedAt.Equal(now))
	})

	t.Run("confirmed record without token hash is idempotent", func(t *testing.T) {
		w := awaiting(now)
		w.Status = records.WithdrawalPending
		w.ConfirmationTokenHash = ""
		w.ConfirmationExpiresAt = nil

		next, already, err := confirmTransition(w, "anything", now.Add(72*time.Hour))
		require.NoError(t, err)
		assert.True(t, already)
		assert.Equal(t, records.WithdrawalPending, next.Status)
	})

	t.Run("already confirmed answers only the confirming token", func(t *testing.T) {
		next, _, err := confirmTransition(awaiting(now), "hash-ok", now)
		require.NoError(t, err)
		assert.Equal(t, "hash-ok", next.ConfirmedTokenHash)

		again, already, err := confirmTransition(next, "hash-ok", now.Add(72*time.Hour))
		require.NoError(t, err)
		assert.True(t, already)
		assert.Equal(t, records.WithdrawalPending, again.Status)

		_, already, err = confirmTransition(next, "hash-bad", now)
		assert.ErrorIs(t, err, repository.ErrUnauthorized)
		assert.False(t, already)

		_, _, err = confirmTransition(next, "", now)
		assert.ErrorIs(t, err, repository.ErrUnauthorized)
	})

	t.Run("wrong token", func(t *testing.T) {
		_, _, err := confirmTransition(awaiting(now), "hash-bad", now)
		assert.ErrorIs(t, err, repository.ErrUnauthorized)
	})

	t.Run("missing token", func(t *testing.T) {
		_, _, err := confirmTransition(awaiting(now), "", now)
		assert.ErrorIs(t, err, repository.ErrUnauthorized)
	})

	t.Run("expired at the boundary", func(t *testing.T) {
		w := awaiting(now)
		_, _, err := confirmTransition(w, "hash-ok", *w.ConfirmationExpiresAt)
		assert.ErrorIs(t, err, repository.ErrTokenExpired)
	})

	t.Run("other statuses conflict", func(t *testing.T) {
		for _, st := range []records.WithdrawalStatus{records.WithdrawalPaid, records.WithdrawalRejected, records.WithdrawalCancelled} {
			w := awaiting(now)
			w.Status = st
			_, _, err := confirmTransition(w, "hash-ok", now)
			assert.ErrorIs(t, err, repository.ErrConflict, st)
		}
	})
}
