package journal

import (
	"os"
	"path/filepath"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"
)

var (
	bucketSessions = []byte("sessions")
	// ErrNotFound is returned by Get for an unknown session id.
	ErrNotFound = errors.New("journal: record not found")
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Record is what remains of a finished session. It never holds credentials.
type Record struct {
	ID         string    `json:"id"`
	Mode       string    `json:"mode"`
	State      string    `json:"state"`
	Outcome    string    `json:"outcome"`
	Delivery   string    `json:"delivery,omitempty"`
	Attempts   int       `json:"attempts"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Journal keeps finished-session records in a bbolt file.
type Journal struct {
	db *bolt.DB
}

// Open opens or creates the journal file.
func Open(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, errors.Wrap(err, "journal: create data dir")
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "journal: open %s", path)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketSessions)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "journal: create bucket")
	}
	return &Journal{db: db}, nil
}

// Put stores r under its id, replacing any previous record.
func (j *Journal) Put(r Record) error {
	data, err := json.Marshal(r)
	if err != nil {
		return errors.Wrap(err, "journal: encode record")
	}
	return j.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSessions).Put([]byte(r.ID), data)
	})
}

// Get returns the record of a finished session.
func (j *Journal) Get(id string) (Record, error) {
	var r Record
	err := j.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketSessions).Get([]byte(id))
		if data == nil {
			return ErrNotFound
		}
		return json.Unmarshal(data, &r)
	})
	return r, err
}

// Counts returns the number of records per outcome finished since since.
func (j *Journal) Counts(since time.Time) (map[string]int, error) {
	counts := make(map[string]int)
	err := j.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSessions).ForEach(func(_, v []byte) error {
			var r Record
			if err := json.Unmarshal(v, &r); err != nil {
				return nil
			}
			if r.FinishedAt.Before(since) {
				return nil
			}
			counts[r.Outcome]++
			return nil
		})
	})
	return counts, err
}

// Prune deletes records finished before cutoff and returns how many went.
func (j *Journal) Prune(cutoff time.Time) (int, error) {
	removed := 0
	err := j.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSessions)
		var stale [][]byte
		err := b.ForEach(func(k, v []byte) error {
			var r Record
			if err := json.Unmarshal(v, &r); err != nil || r.FinishedAt.Before(cutoff) {
				stale = append(stale, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		removed = len(stale)
		return nil
	})
	if err != nil {
		return 0, errors.Wrap(err, "journal: prune")
	}
	if removed > 0 {
		zap.L().Info("journal: pruned records", zap.Int("removed", removed))
	}
	return removed, nil
}

func (j *Journal) Close() error {
	return j.db.Close()
}
