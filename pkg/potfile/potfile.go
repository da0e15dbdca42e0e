// Package potfile is a persistent record of cracked hashes, so that a hash is
// only ever brute-forced once per machine.
package potfile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/go-hclog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hashicorp-forge/uidcrack/pkg/digits"
)

// ErrMismatch is returned when saving an entry whose UID does not hash to
// the entry's hash.
var ErrMismatch = errors.New("uid does not match hash")

// Entry is one cracked hash.
type Entry struct {
	// Hash is the lower-case hex MD5.
	Hash string `gorm:"type:varchar(32);primaryKey"`

	// UID is the recovered preimage value.
	UID uint64 `gorm:"not null"`

	// Encoding is the preimage encoding the UID was found under.
	Encoding digits.Encoding `gorm:"not null"`

	// Engine names the engine that cracked the hash.
	Engine string `gorm:"type:varchar(32)"`

	// RunID identifies the run that cracked the hash.
	RunID string `gorm:"type:varchar(36)"`

	CrackedAt time.Time `gorm:"not null"`
}

// TableName specifies the table name for GORM.
func (Entry) TableName() string {
	return "cracked_hashes"
}

// Verify checks that the entry's UID hashes to its hash.
func (e Entry) Verify() error {
	if digits.MD5(e.UID, e.Encoding) != digits.NormalizeHash(e.Hash) {
		return fmt.Errorf("%w: %d (%s) for %s", ErrMismatch, e.UID, e.Encoding, e.Hash)
	}
	return nil
}

// Store reads and writes entries.
type Store struct {
	db     *gorm.DB
	logger hclog.Logger
}

// New migrates the schema and returns a store backed by db.
func New(db *gorm.DB, log hclog.Logger) (*Store, error) {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, fmt.Errorf("error migrating potfile schema: %w", err)
	}
	return &Store{db: db, logger: log}, nil
}

// Lookup returns the entry for hash, or nil if the hash has not been cracked.
func (s *Store) Lookup(ctx context.Context, hash string) (*Entry, error) {
	var entries []Entry
	err := s.db.WithContext(ctx).
		Where("hash = ?", digits.NormalizeHash(hash)).
		Limit(1).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("error looking up hash: %w", err)
	}
	if len(entries) == 0 {
		return nil, nil
	}

	e := entries[0]
	if err := e.Verify(); err != nil {
		s.logger.Warn("ignoring corrupt potfile entry", "hash", e.Hash, "error", err)
		return nil, nil
	}
	return &e, nil
}

// Save records a cracked hash, replacing any previous entry for it.
func (s *Store) Save(ctx context.Context, e Entry) error {
	e.Hash = digits.NormalizeHash(e.Hash)
	if err := e.Verify(); err != nil {
		return err
	}
	if e.CrackedAt.IsZero() {
		e.CrackedAt = time.Now().UTC()
	}

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&e).Error
	if err != nil {
		return fmt.Errorf("error saving cracked hash: %w", err)
	}

	s.logger.Debug("saved cracked hash", "hash", e.Hash, "uid", e.UID)
	return nil
}

// List returns every entry, most recently cracked first.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	var entries []Entry
	if err := s.db.WithContext(ctx).Order("cracked_at desc").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("error listing cracked hashes: %w", err)
	}
	return entries, nil
}
