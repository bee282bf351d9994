// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package logstore_test

import (
	"crypto/sha256"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/H0llyW00dzZ/ct-submission-checker/src/internal/ct/logstore"
)

// newSequencedEntry creates an entry with a unique body, sequenced at seq.
func newSequencedEntry(t *testing.T, seq int64) *logstore.Entry {
	t.Helper()

	entry, err := logstore.NewX509Entry([]byte(fmt.Sprintf("certificate %d", seq)), uint64(1000+seq))
	require.NoError(t, err, "failed to build entry")
	entry.SetSequenceNumber(seq)
	return entry
}

// recordingObserver captures every tree head it is notified with.
type recordingObserver struct {
	heads []logstore.TreeHead
}

func (r *recordingObserver) TreeHeadUpdated(th logstore.TreeHead) {
	r.heads = append(r.heads, th)
}

func TestCreateSequencedEntry(t *testing.T) {
	db := logstore.NewMemoryDB()

	entry := newSequencedEntry(t, 0)
	assert.Equal(t, logstore.WriteOK, db.CreateSequencedEntry(entry), "first write should succeed")

	t.Run("Missing Sequence", func(t *testing.T) {
		unsequenced, err := logstore.NewX509Entry([]byte("unsequenced"), 1000)
		require.NoError(t, err, "failed to build entry")

		assert.Equal(t, logstore.WriteMissingSequence, db.CreateSequencedEntry(unsequenced),
			"unsequenced entry must be rejected")
	})

	t.Run("Duplicate Hash", func(t *testing.T) {
		dup, err := logstore.NewX509Entry(entry.Body(), 9999)
		require.NoError(t, err, "failed to build duplicate")
		dup.SetSequenceNumber(5)

		assert.Equal(t, logstore.WriteDuplicateHash, db.CreateSequencedEntry(dup),
			"same content must be rejected even at a new sequence and time")
	})

	t.Run("Sequence In Use", func(t *testing.T) {
		rival := newSequencedEntry(t, 99)
		rival.SetSequenceNumber(0)

		assert.Equal(t, logstore.WriteSequenceInUse, db.CreateSequencedEntry(rival),
			"occupied sequence slot must be rejected")
	})
}

func TestLookup(t *testing.T) {
	db := logstore.NewMemoryDB()

	entry := newSequencedEntry(t, 3)
	require.Equal(t, logstore.WriteOK, db.CreateSequencedEntry(entry), "setup write failed")

	t.Run("By Hash", func(t *testing.T) {
		got, err := db.LookupByHash(entry.Hash())
		require.NoError(t, err, "LookupByHash() error")
		assert.Equal(t, entry.Hash(), got.Hash(), "wrong entry returned")
	})

	t.Run("By Index", func(t *testing.T) {
		got, err := db.LookupByIndex(3)
		require.NoError(t, err, "LookupByIndex() error")
		assert.Equal(t, entry.Hash(), got.Hash(), "wrong entry returned")
	})

	t.Run("Unknown Hash", func(t *testing.T) {
		_, err := db.LookupByHash(sha256.Sum256([]byte("nothing")))
		assert.Equal(t, logstore.ErrNotFound, err, "expected ErrNotFound")
	})

	t.Run("Unknown Index", func(t *testing.T) {
		_, err := db.LookupByIndex(77)
		assert.Equal(t, logstore.ErrNotFound, err, "expected ErrNotFound")
	})
}

func TestTreeSizeAndScan(t *testing.T) {
	db := logstore.NewMemoryDB()

	// Sequences 0..2 populated, then a gap, then 4.
	for _, seq := range []int64{0, 1, 2, 4} {
		require.Equal(t, logstore.WriteOK, db.CreateSequencedEntry(newSequencedEntry(t, seq)),
			"setup write failed")
	}

	size, err := db.TreeSize()
	require.NoError(t, err, "TreeSize() error")
	assert.Equal(t, int64(4), size, "unexpected tree size")

	t.Run("Stops At Gap", func(t *testing.T) {
		var seen []int64
		err := db.Scan(0, func(entry logstore.Logged) bool {
			seq, _ := entry.SequenceNumber()
			seen = append(seen, seq)
			return true
		})
		require.NoError(t, err, "Scan() error")

		assert.Equal(t, []int64{0, 1, 2}, seen, "scan must stop at the first gap")
	})

	t.Run("Stops When Told", func(t *testing.T) {
		count := 0
		err := db.Scan(0, func(logstore.Logged) bool {
			count++
			return count < 2
		})
		require.NoError(t, err, "Scan() error")

		assert.Equal(t, 2, count, "scan must stop when fn returns false")
	})

	t.Run("Starts Mid-Tree", func(t *testing.T) {
		var seen []int64
		err := db.Scan(1, func(entry logstore.Logged) bool {
			seq, _ := entry.SequenceNumber()
			seen = append(seen, seq)
			return true
		})
		require.NoError(t, err, "Scan() error")

		assert.Equal(t, []int64{1, 2}, seen, "scan should start at the given sequence")
	})
}

func TestWriteTreeHead(t *testing.T) {
	db := logstore.NewMemoryDB()

	first := logstore.TreeHead{Timestamp: 100, TreeSize: 1, RootHash: sha256.Sum256([]byte("a"))}
	second := logstore.TreeHead{Timestamp: 200, TreeSize: 2, RootHash: sha256.Sum256([]byte("b"))}

	t.Run("Missing Timestamp", func(t *testing.T) {
		assert.Equal(t, logstore.WriteMissingTimestamp, db.WriteTreeHead(logstore.TreeHead{}),
			"zero timestamp must be rejected")
	})

	t.Run("No Head Yet", func(t *testing.T) {
		_, err := db.LatestTreeHead()
		assert.Equal(t, logstore.ErrNoTreeHead, err, "expected ErrNoTreeHead")
	})

	t.Run("Latest Follows Timestamps", func(t *testing.T) {
		require.Equal(t, logstore.WriteOK, db.WriteTreeHead(second), "write error")
		require.Equal(t, logstore.WriteOK, db.WriteTreeHead(first), "write error")

		latest, err := db.LatestTreeHead()
		require.NoError(t, err, "LatestTreeHead() error")

		assert.Equal(t, second, latest, "an older head must not displace the latest")
	})

	t.Run("Duplicate Timestamp", func(t *testing.T) {
		assert.Equal(t, logstore.WriteDuplicateTimestamp, db.WriteTreeHead(first),
			"reused timestamp must be rejected")
	})
}

func TestTreeHeadObservers(t *testing.T) {
	t.Run("Notified On New Latest Only", func(t *testing.T) {
		db := logstore.NewMemoryDB()
		obs := &recordingObserver{}
		require.NoError(t, db.AddTreeHeadObserver(obs), "AddTreeHeadObserver() error")

		newer := logstore.TreeHead{Timestamp: 200, TreeSize: 2}
		older := logstore.TreeHead{Timestamp: 100, TreeSize: 1}

		require.Equal(t, logstore.WriteOK, db.WriteTreeHead(newer), "write error")
		require.Equal(t, logstore.WriteOK, db.WriteTreeHead(older), "write error")

		assert.Equal(t, []logstore.TreeHead{newer}, obs.heads,
			"only a head that becomes latest may be delivered")
	})

	t.Run("Late Subscriber Gets Current Head", func(t *testing.T) {
		db := logstore.NewMemoryDB()
		head := logstore.TreeHead{Timestamp: 100, TreeSize: 1}
		require.Equal(t, logstore.WriteOK, db.WriteTreeHead(head), "write error")

		obs := &recordingObserver{}
		require.NoError(t, db.AddTreeHeadObserver(obs), "AddTreeHeadObserver() error")

		assert.Equal(t, []logstore.TreeHead{head}, obs.heads,
			"a late subscriber must immediately see the latest head")
	})

	t.Run("Registration Is Symmetric", func(t *testing.T) {
		db := logstore.NewMemoryDB()
		obs := &recordingObserver{}

		require.NoError(t, db.AddTreeHeadObserver(obs), "AddTreeHeadObserver() error")
		assert.Equal(t, logstore.ErrObserverRegistered, db.AddTreeHeadObserver(obs),
			"double registration must be rejected")

		require.NoError(t, db.RemoveTreeHeadObserver(obs), "RemoveTreeHeadObserver() error")
		assert.Equal(t, logstore.ErrObserverNotRegistered, db.RemoveTreeHeadObserver(obs),
			"removing twice must be rejected")
	})
}

func TestClose(t *testing.T) {
	t.Run("Observers Must Be Removed First", func(t *testing.T) {
		db := logstore.NewMemoryDB()
		obs := &recordingObserver{}
		require.NoError(t, db.AddTreeHeadObserver(obs), "AddTreeHeadObserver() error")

		assert.Equal(t, logstore.ErrObserversRemain, db.Close(),
			"closing with live observers is a caller bug")

		require.NoError(t, db.RemoveTreeHeadObserver(obs), "RemoveTreeHeadObserver() error")
		assert.NoError(t, db.Close(), "close should succeed once observers are gone")
	})

	t.Run("Double Close", func(t *testing.T) {
		db := logstore.NewMemoryDB()
		require.NoError(t, db.Close(), "first close should succeed")
		assert.Equal(t, logstore.ErrClosed, db.Close(), "second close must report ErrClosed")
	})
}
