// Package storagetest holds the behaviour every storage.Store backend must
// share. Backend packages call Run from their own tests.
package storagetest

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/legalease/backend/internal/storage"
)

func Run(t *testing.T, newStore func(t *testing.T) storage.Store) {
	t.Helper()

	t.Run("GetAllPreservesInsertionOrder", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		for _, id := range []string{"murder", "theft", "contract"} {
			require.NoError(t, s.Set(ctx, storage.CollectionLegalDataset, id, storage.Fields{"category": id}))
		}
		// Overwriting keeps the original position.
		require.NoError(t, s.Set(ctx, storage.CollectionLegalDataset, "murder", storage.Fields{"category": "Murder"}))

		docs, err := s.GetAll(ctx, storage.CollectionLegalDataset)
		require.NoError(t, err)
		require.Len(t, docs, 3)
		assert.Equal(t, "murder", docs[0].ID)
		assert.Equal(t, "Murder", docs[0].Fields.String("category"))
		assert.Equal(t, "theft", docs[1].ID)
		assert.Equal(t, "contract", docs[2].ID)
	})

	t.Run("GetAllOnEmptyCollection", func(t *testing.T) {
		s := newStore(t)

		docs, err := s.GetAll(context.Background(), "nothing_here")
		require.NoError(t, err)
		assert.Empty(t, docs)
	})

	t.Run("GetReportsAbsence", func(t *testing.T) {
		s := newStore(t)

		_, found, err := s.Get(context.Background(), storage.CollectionBookings, "missing")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("UpdateMergesFields", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.Set(ctx, storage.CollectionBookings, "b1", storage.Fields{"lawyerId": "l1", "status": "Pending"}))
		require.NoError(t, s.Update(ctx, storage.CollectionBookings, "b1", storage.Fields{"status": "Won"}))

		doc, found, err := s.Get(ctx, storage.CollectionBookings, "b1")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, "l1", doc.Fields.String("lawyerId"))
		assert.Equal(t, "Won", doc.Fields.String("status"))
	})

	t.Run("UpdateMissingDocument", func(t *testing.T) {
		s := newStore(t)

		err := s.Update(context.Background(), storage.CollectionBookings, "nope", storage.Fields{"status": "Won"})
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("IncrementCounters", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.Set(ctx, storage.CollectionLawyers, "l1", storage.Fields{"fullName": "A. Khan", "totalCases": 4}))
		require.NoError(t, s.Increment(ctx, storage.CollectionLawyers, "l1", map[string]int64{"totalCases": 1, "wonCases": 1}))
		require.NoError(t, s.Increment(ctx, storage.CollectionLawyers, "l1", map[string]int64{"totalCases": 1}))

		doc, found, err := s.Get(ctx, storage.CollectionLawyers, "l1")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, int64(6), doc.Fields.Int64("totalCases"))
		assert.Equal(t, int64(1), doc.Fields.Int64("wonCases"))
		assert.Equal(t, int64(0), doc.Fields.Int64("lostCases"))
		assert.Equal(t, "A. Khan", doc.Fields.String("fullName"))
	})

	t.Run("IncrementMissingDocument", func(t *testing.T) {
		s := newStore(t)

		err := s.Increment(context.Background(), storage.CollectionLawyers, "ghost", map[string]int64{"totalCases": 1})
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("ListFieldsRoundTrip", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.Set(ctx, storage.CollectionChats, "c1", storage.Fields{"participants": []string{"u1", "u2"}}))

		doc, found, err := s.Get(ctx, storage.CollectionChats, "c1")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, []string{"u1", "u2"}, doc.Fields.Strings("participants"))
	})

	t.Run("DeleteRemovesDocument", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.Set(ctx, storage.CollectionQueryHistory, "q1", storage.Fields{"question": "theft"}))
		require.NoError(t, s.Set(ctx, storage.CollectionQueryHistory, "q2", storage.Fields{"question": "murder"}))
		require.NoError(t, s.Delete(ctx, storage.CollectionQueryHistory, "q1"))
		require.NoError(t, s.Delete(ctx, storage.CollectionQueryHistory, "never-existed"))

		docs, err := s.GetAll(ctx, storage.CollectionQueryHistory)
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, "q2", docs[0].ID)
	})

	t.Run("ReturnedFieldsAreCopies", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.Set(ctx, storage.CollectionUsers, "u1", storage.Fields{"displayName": "Sara"}))

		doc, _, err := s.Get(ctx, storage.CollectionUsers, "u1")
		require.NoError(t, err)
		doc.Fields["displayName"] = "changed"

		again, _, err := s.Get(ctx, storage.CollectionUsers, "u1")
		require.NoError(t, err)
		assert.Equal(t, "Sara", again.Fields.String("displayName"))
	})

	t.Run("TransactionCommitsAllWrites", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.Set(ctx, storage.CollectionBookings, "b1", storage.Fields{"status": "Pending"}))
		require.NoError(t, s.Set(ctx, storage.CollectionLawyers, "l1", storage.Fields{"totalCases": 0}))

		err := s.RunInTransaction(ctx, func(ctx context.Context, tx storage.Tx) error {
			if err := tx.Update(ctx, storage.CollectionBookings, "b1", storage.Fields{"status": "Won"}); err != nil {
				return err
			}
			if err := tx.Create(ctx, storage.CollectionChats, "c1", storage.Fields{"participants": []string{"u1"}}); err != nil {
				return err
			}
			return tx.Increment(ctx, storage.CollectionLawyers, "l1", map[string]int64{"totalCases": 1})
		})
		require.NoError(t, err)

		booking, _, err := s.Get(ctx, storage.CollectionBookings, "b1")
		require.NoError(t, err)
		assert.Equal(t, "Won", booking.Fields.String("status"))

		lawyer, _, err := s.Get(ctx, storage.CollectionLawyers, "l1")
		require.NoError(t, err)
		assert.Equal(t, int64(1), lawyer.Fields.Int64("totalCases"))

		_, found, err := s.Get(ctx, storage.CollectionChats, "c1")
		require.NoError(t, err)
		assert.True(t, found)
	})

	t.Run("TransactionSeesItsOwnWrites", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		err := s.RunInTransaction(ctx, func(ctx context.Context, tx storage.Tx) error {
			require.NoError(t, tx.Set(ctx, storage.CollectionUsers, "u1", storage.Fields{"displayName": "Sara"}))
			require.NoError(t, tx.Increment(ctx, storage.CollectionUsers, "u1", map[string]int64{"logins": 2}))

			doc, found, err := tx.Get(ctx, storage.CollectionUsers, "u1")
			require.NoError(t, err)
			require.True(t, found)
			assert.Equal(t, "Sara", doc.Fields.String("displayName"))
			assert.Equal(t, int64(2), doc.Fields.Int64("logins"))
			return nil
		})
		require.NoError(t, err)
	})

	t.Run("TransactionRollsBackOnError", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		errAbort := errors.New("abort")

		require.NoError(t, s.Set(ctx, storage.CollectionBookings, "b1", storage.Fields{"status": "Pending"}))

		err := s.RunInTransaction(ctx, func(ctx context.Context, tx storage.Tx) error {
			require.NoError(t, tx.Update(ctx, storage.CollectionBookings, "b1", storage.Fields{"status": "Won"}))
			require.NoError(t, tx.Set(ctx, storage.CollectionBookings, "b2", storage.Fields{"status": "Pending"}))
			return errAbort
		})
		assert.ErrorIs(t, err, errAbort)

		booking, _, err := s.Get(ctx, storage.CollectionBookings, "b1")
		require.NoError(t, err)
		assert.Equal(t, "Pending", booking.Fields.String("status"))

		_, found, err := s.Get(ctx, storage.CollectionBookings, "b2")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("CreateRejectsExistingID", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.Set(ctx, storage.CollectionUsernames, "sara", storage.Fields{"userId": "u1"}))

		err := s.RunInTransaction(ctx, func(ctx context.Context, tx storage.Tx) error {
			return tx.Create(ctx, storage.CollectionUsernames, "sara", storage.Fields{"userId": "u2"})
		})
		assert.ErrorIs(t, err, storage.ErrAlreadyExists)

		doc, _, err := s.Get(ctx, storage.CollectionUsernames, "sara")
		require.NoError(t, err)
		assert.Equal(t, "u1", doc.Fields.String("userId"))
	})

	t.Run("ConcurrentTransactionsDoNotLoseUpdates", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		const workers = 8

		require.NoError(t, s.Set(ctx, storage.CollectionUsers, "u1", storage.Fields{"pushTokens": []string{}}))

		var wg sync.WaitGroup
		errs := make(chan error, workers)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(token string) {
				defer wg.Done()
				errs <- s.RunInTransaction(ctx, func(ctx context.Context, tx storage.Tx) error {
					doc, _, err := tx.Get(ctx, storage.CollectionUsers, "u1")
					if err != nil {
						return err
					}
					tokens := append(doc.Fields.Strings("pushTokens"), token)
					return tx.Update(ctx, storage.CollectionUsers, "u1", storage.Fields{"pushTokens": tokens})
				})
			}(string(rune('a' + i)))
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		doc, _, err := s.Get(ctx, storage.CollectionUsers, "u1")
		require.NoError(t, err)
		assert.Len(t, doc.Fields.Strings("pushTokens"), workers)
	})
}
