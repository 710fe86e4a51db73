// Package filestore persists credentials, 2FA records and the audit logs as
// flat text files in a single data directory.
//
// Reads go straight to disk. Every mutation is submitted to a Writer that runs
// tasks one at a time, and rewrites replace whole files through a temp file
// and rename so a concurrent reader sees either the old or the new content.
package filestore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

const (
	UsersFile         = "users.txt"
	AdminsFile        = "admins.txt"
	PrimaryAdminsFile = "primary_admins.txt"
	DeactivatedFile   = "deactivated_users.txt"
	TwoFactorFile     = "two_factor.json"
	ActivityLogFile   = "activity_log.txt"
	NotificationsFile = "admin_notifications.txt"
)

// Writer serializes mutations. *queue.SerialQueue satisfies it.
type Writer interface {
	Do(ctx context.Context, fn func() error) error
}

// Store is a handle on the data directory.
type Store struct {
	dir    string
	writer Writer
}

// Open creates dir when needed and returns a Store whose mutations go through
// writer.
func Open(dir string, writer Writer) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("filestore: empty data directory")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("filestore: create data dir: %w", err)
	}
	return &Store{dir: dir, writer: writer}, nil
}

func (s *Store) Dir() string { return s.dir }

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name)
}

// CheckWritable probes the data directory with a throwaway file.
func (s *Store) CheckWritable() error {
	f, err := os.CreateTemp(s.dir, ".probe-*")
	if err != nil {
		return fmt.Errorf("filestore: data dir not writable: %w", err)
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}

func (s *Store) write(ctx context.Context, fn func() error) error {
	return s.writer.Do(ctx, fn)
}
