// Package journal implements the log of issued envelopes.
//
// Every envelope sealed by the command-line frontend is appended to the
// journal under the identifier of its record, so that an issuer can list
// what it vouched for and re-issue a fresh envelope when one expires. The
// core packages never read the journal: it is operational tooling around
// them.
package journal

import (
	"go.dedis.ch/harvest/core/store/kv"
	"golang.org/x/xerrors"
)

var bucket = []byte("journal")

// Journal is a log of the envelopes issued, keyed by record identifier.
type Journal struct {
	db kv.DB
}

// New returns a journal persisted in the given database.
func New(db kv.DB) Journal {
	return Journal{db: db}
}

// Append stores the sealed envelope under the record identifier, replacing a
// previous issuance for the same record.
func (j Journal) Append(id string, sealed string) error {
	if id == "" {
		return xerrors.New("missing record identifier")
	}

	err := j.db.Update(bucket, func(b kv.Bucket) error {
		return b.Set([]byte(id), []byte(sealed))
	})
	if err != nil {
		return xerrors.Errorf("failed to append: %v", err)
	}

	return nil
}

// Get returns the latest envelope issued for the record, or an error if none
// exists.
func (j Journal) Get(id string) (string, error) {
	var sealed string

	err := j.db.View(bucket, func(b kv.Bucket) error {
		value := b.Get([]byte(id))
		if value == nil {
			return xerrors.Errorf("no envelope for '%s'", id)
		}

		sealed = string(value)

		return nil
	})
	if err != nil {
		return "", xerrors.Errorf("failed to read: %v", err)
	}

	return sealed, nil
}

// Remove deletes the issuance of the record, if any.
func (j Journal) Remove(id string) error {
	err := j.db.Update(bucket, func(b kv.Bucket) error {
		return b.Delete([]byte(id))
	})
	if err != nil {
		return xerrors.Errorf("failed to remove: %v", err)
	}

	return nil
}

// Range calls the function for every issuance, in lexicographic order of the
// identifiers, until it returns an error.
func (j Journal) Range(fn func(id, sealed string) error) error {
	err := j.db.View(bucket, func(b kv.Bucket) error {
		return b.ForEach(func(k, v []byte) error {
			return fn(string(k), string(v))
		})
	})
	if err != nil {
		return xerrors.Errorf("failed to iterate: %v", err)
	}

	return nil
}

// Len returns the number of issuances in the journal.
func (j Journal) Len() int {
	count := 0

	// The bucket does not exist before the first issuance, in which case the
	// view fails and the count stays at zero.
	j.db.View(bucket, func(b kv.Bucket) error {
		return b.ForEach(func(k, v []byte) error {
			count++
			return nil
		})
	})

	return count
}
