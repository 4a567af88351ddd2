package history

// This file contains the history store: the per test case windows of a
// repository, persisted to .teststability/history.json.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/perfgo/teststability/model"
	"github.com/perfgo/teststability/ringbuffer"
	"github.com/rs/zerolog"
)

const (
	// DirName is the directory below the repository root holding the store.
	DirName = ".teststability"
	// DefaultCapacity is the window length used when neither the caller
	// nor an existing document sets one.
	DefaultCapacity = 30

	documentFile   = "history.json"
	lockFile       = "history.lock"
	lockRetryDelay = 100 * time.Millisecond
)

// ErrBuildRecorded is returned when a build number is recorded twice.
var ErrBuildRecorded = errors.New("build already recorded")

// Options configures a Store.
type Options struct {
	// Capacity is the window length for test cases. Zero keeps the
	// capacity of the existing document (or DefaultCapacity).
	Capacity int
	// Strict rejects unreadable or inconsistent case histories on load
	// instead of dropping them.
	Strict bool
}

// Store holds the histories of all test cases of a repository. It is
// safe for concurrent use; the file lock held between Open and Close
// keeps other processes out.
type Store struct {
	logger   zerolog.Logger
	root     string
	codec    ringbuffer.Codec
	lock     *flock.Flock
	capacity int

	mu     sync.Mutex
	builds []model.Build
	cases  map[string]*ringbuffer.RingBuffer
}

// GetRoot returns the store directory below the git repository root.
func GetRoot() (string, error) {
	cmd := exec.Command("git", "rev-parse", "--show-toplevel")
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("not in a git repository: %w", err)
	}
	repoRoot := strings.TrimSpace(string(output))
	return filepath.Join(repoRoot, DirName), nil
}

// Exists reports whether root contains a history document.
func Exists(root string) bool {
	_, err := os.Stat(filepath.Join(root, documentFile))
	return err == nil
}

// Open locks the store at root and loads its document, if any. The lock
// is held until Close.
func Open(ctx context.Context, logger zerolog.Logger, root string, opts Options) (*Store, error) {
	if opts.Capacity < 0 {
		return nil, fmt.Errorf("invalid capacity %d", opts.Capacity)
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	lock := flock.New(filepath.Join(root, lockFile))
	locked, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire history lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("history at %s is locked by another process", root)
	}

	s := &Store{
		logger:   logger.With().Str("root", root).Logger(),
		root:     root,
		codec:    ringbuffer.Codec{Strict: opts.Strict},
		lock:     lock,
		capacity: opts.Capacity,
		cases:    make(map[string]*ringbuffer.RingBuffer),
	}

	if err := s.load(); err != nil {
		if unlockErr := lock.Unlock(); unlockErr != nil {
			logger.Warn().Err(unlockErr).Msg("Failed to release history lock")
		}
		return nil, err
	}

	return s, nil
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.path())
	if os.IsNotExist(err) {
		if s.capacity == 0 {
			s.capacity = DefaultCapacity
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}

	var doc model.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse %s: %w", documentFile, err)
	}
	if doc.Version > model.DocumentVersion {
		return fmt.Errorf("unsupported history version %d (newest known is %d)", doc.Version, model.DocumentVersion)
	}

	if s.capacity == 0 {
		s.capacity = doc.Capacity
	}
	if s.capacity <= 0 {
		s.capacity = DefaultCapacity
	}

	var errs *multierror.Error
	for key, enc := range doc.Cases {
		buf, err := s.codec.Deserialize(enc)
		if err != nil {
			err = fmt.Errorf("case %q: %w", key, err)
			if s.codec.Strict {
				errs = multierror.Append(errs, err)
				continue
			}
			s.logger.Warn().Err(err).Str("case", key).Msg("Dropping unreadable history")
			continue
		}
		s.cases[key] = buf
	}
	s.builds = doc.Builds

	s.logger.Debug().
		Int("cases", len(s.cases)).
		Int("builds", len(s.builds)).
		Int("capacity", s.capacity).
		Msg("Loaded history")

	return errs.ErrorOrNil()
}

func (s *Store) path() string {
	return filepath.Join(s.root, documentFile)
}

// Path returns the location of the history document.
func (s *Store) Path() string {
	return s.path()
}

// Capacity returns the window length applied to test cases.
func (s *Store) Capacity() int {
	return s.capacity
}

// HistoryFor returns the history of the test case key. The buffer is
// shared with the store and must not be used concurrently with Record.
func (s *Store) HistoryFor(key string) (*ringbuffer.RingBuffer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	buf, ok := s.cases[key]
	return buf, ok
}

// Keys returns all test case keys, sorted.
func (s *Store) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]string, 0, len(s.cases))
	for key := range s.cases {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Builds returns the recorded builds, oldest first.
func (s *Store) Builds() []model.Build {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]model.Build(nil), s.builds...)
}

// NextBuildNumber returns one past the highest build number seen.
func (s *Store) NextBuildNumber() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.nextBuildNumber()
}

func (s *Store) nextBuildNumber() int {
	highest := 0
	for _, b := range s.builds {
		if b.Number > highest {
			highest = b.Number
		}
	}
	for _, buf := range s.cases {
		if r, ok := buf.Latest(); ok && r.BuildNumber > highest {
			highest = r.BuildNumber
		}
	}
	return highest + 1
}

// HasBuild reports whether number is already recorded, either as a build
// or in the history of any test case.
func (s *Store) HasBuild(number int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.hasBuild(number)
}

// Builds are trimmed to the capacity, older numbers may only survive in
// case histories whose tests did not run since.
func (s *Store) hasBuild(number int) bool {
	for _, b := range s.builds {
		if b.Number == number {
			return true
		}
	}
	for _, buf := range s.cases {
		for _, r := range buf.Snapshot() {
			if r.BuildNumber == number {
				return true
			}
		}
	}
	return false
}

// Record adds the outcome of every case in outcomes to its history under
// the build's number and remembers the build. A zero build number is
// replaced with NextBuildNumber. The stored build is returned.
func (s *Store) Record(build model.Build, outcomes map[string]bool) (model.Build, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if build.Number == 0 {
		build.Number = s.nextBuildNumber()
	}
	if s.hasBuild(build.Number) {
		return model.Build{}, fmt.Errorf("build %d: %w", build.Number, ErrBuildRecorded)
	}
	if build.ID == "" {
		build.ID = uuid.NewString()
	}
	if build.Timestamp.IsZero() {
		build.Timestamp = time.Now()
	}

	s.resize()

	keys := make([]string, 0, len(outcomes))
	for key := range outcomes {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	build.Passed, build.Failed = 0, 0
	for _, key := range keys {
		buf, ok := s.cases[key]
		if !ok {
			buf = ringbuffer.New(s.capacity)
			s.cases[key] = buf
		}

		passed := outcomes[key]
		buf.Add(build.Number, passed)
		if passed {
			build.Passed++
		} else {
			build.Failed++
		}
	}

	s.builds = append(s.builds, build)
	if len(s.builds) > s.capacity {
		s.builds = append([]model.Build(nil), s.builds[len(s.builds)-s.capacity:]...)
	}

	s.logger.Debug().
		Int("build", build.Number).
		Int("passed", build.Passed).
		Int("failed", build.Failed).
		Msg("Recorded build")

	return build, nil
}

// resize rebuilds every history whose capacity differs from the store's,
// keeping the newest entries.
func (s *Store) resize() {
	for key, buf := range s.cases {
		if buf.Capacity() == s.capacity {
			continue
		}
		rebuilt := ringbuffer.New(s.capacity)
		rebuilt.InsertAll(buf.Snapshot())
		s.cases[key] = rebuilt

		s.logger.Debug().
			Str("case", key).
			Int("from", buf.Capacity()).
			Int("to", s.capacity).
			Msg("Resized history")
	}
}

// Save writes the document atomically.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := model.NewDocument(s.capacity)
	doc.Builds = s.builds
	for key, buf := range s.cases {
		doc.Cases[key] = s.codec.Serialize(buf)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	tmp, err := os.CreateTemp(s.root, documentFile+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary history file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write history: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write history: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path()); err != nil {
		return fmt.Errorf("failed to replace history: %w", err)
	}

	s.logger.Debug().Str("path", s.path()).Int("cases", len(doc.Cases)).Msg("Saved history")
	return nil
}

// Close releases the store lock.
func (s *Store) Close() error {
	return s.lock.Unlock()
}
