package siteprefs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/jobease/jobfill/pkg/storage"
)

// DefaultOverlap is the number of shared labels an entry from another host
// of the same vendor needs before it is reused.
const DefaultOverlap = 2

// writers holds one mutex per storage.Store. Every Store over the same kv
// shares it, so read-modify-write cycles on the sitePrefs key do not drop
// each other's hosts.
var writers sync.Map

func writerFor(kv storage.Store) *sync.Mutex {
	mu, _ := writers.LoadOrStore(kv, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// Store keeps all entries under one key of a storage.Store, as a map from
// hostname to Entry.
type Store struct {
	kv storage.Store
	mu *sync.Mutex
	// Overlap is the vendor match threshold; values below 1 mean DefaultOverlap.
	Overlap int
	now     func() time.Time
}

func NewStore(kv storage.Store, overlap int) *Store {
	return &Store{kv: kv, mu: writerFor(kv), Overlap: overlap, now: time.Now}
}

func (s *Store) overlap() int {
	if s.Overlap < 1 {
		return DefaultOverlap
	}
	return s.Overlap
}

// Enabled reports whether learning is switched on. A missing flag is off.
func (s *Store) Enabled(ctx context.Context) (bool, error) {
	raw, err := s.kv.Get(ctx, storage.KeySitePrefsEnabled)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read site prefs flag: %w", err)
	}
	on, err := strconv.ParseBool(string(raw))
	if err != nil {
		return false, nil
	}
	return on, nil
}

func (s *Store) SetEnabled(ctx context.Context, on bool) error {
	if err := s.kv.Set(ctx, storage.KeySitePrefsEnabled, []byte(strconv.FormatBool(on))); err != nil {
		return fmt.Errorf("write site prefs flag: %w", err)
	}
	return nil
}

// All returns every stored entry keyed by hostname.
func (s *Store) All(ctx context.Context) (map[string]*Entry, error) {
	raw, err := s.kv.Get(ctx, storage.KeySitePrefs)
	if errors.Is(err, storage.ErrNotFound) {
		return map[string]*Entry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read site prefs: %w", err)
	}
	all := map[string]*Entry{}
	if err := json.Unmarshal(raw, &all); err != nil {
		return nil, fmt.Errorf("decode site prefs: %w", err)
	}
	for host, e := range all {
		if e == nil {
			delete(all, host)
			continue
		}
		e.init()
		if e.Host == "" {
			e.Host = host
		}
	}
	return all, nil
}

func (s *Store) writeAll(ctx context.Context, all map[string]*Entry) error {
	raw, err := json.Marshal(all)
	if err != nil {
		return fmt.Errorf("encode site prefs: %w", err)
	}
	if err := s.kv.Set(ctx, storage.KeySitePrefs, raw); err != nil {
		return fmt.Errorf("write site prefs: %w", err)
	}
	return nil
}

// Load returns the entry stored for exactly host, or nil.
func (s *Store) Load(ctx context.Context, host string) (*Entry, error) {
	all, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	return all[host], nil
}

// Save replaces the entry for host with e.
func (s *Store) Save(ctx context.Context, host string, e *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	all, err := s.All(ctx)
	if err != nil {
		return err
	}
	e.Host = host
	e.Version = Version
	if e.UpdatedAt == 0 {
		e.UpdatedAt = s.now().UnixMilli()
	}
	all[host] = e
	return s.writeAll(ctx, all)
}

// Merge applies fn to the entry for host, creating it when absent, and
// stores the result.
func (s *Store) Merge(ctx context.Context, host string, fn func(e *Entry)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	all, err := s.All(ctx)
	if err != nil {
		return err
	}
	e := all[host]
	if e == nil {
		e = NewEntry(host)
		e.RootDomain = RootDomain(host)
	}
	fn(e)
	e.Version = Version
	e.UpdatedAt = s.now().UnixMilli()
	all[host] = e
	return s.writeAll(ctx, all)
}

// Clear removes the entry for host, or every entry when host is empty.
func (s *Store) Clear(ctx context.Context, host string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if host == "" {
		if err := s.kv.Remove(ctx, storage.KeySitePrefs); err != nil {
			return fmt.Errorf("clear site prefs: %w", err)
		}
		return nil
	}
	all, err := s.All(ctx)
	if err != nil {
		return err
	}
	if _, ok := all[host]; !ok {
		return nil
	}
	delete(all, host)
	return s.writeAll(ctx, all)
}

// Candidate picks the entry to replay on host. The exact host wins; then an
// entry from another host with the same vendor whose labels overlap labels
// (sorted) by at least the threshold; then an entry sharing the root
// domain. Ties go to the most recently updated entry.
func (s *Store) Candidate(ctx context.Context, host, vendor string, labels []string) (*Entry, error) {
	all, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	if e := all[host]; e != nil {
		return e, nil
	}

	others := make([]*Entry, 0, len(all))
	for h, e := range all {
		if h != host {
			others = append(others, e)
		}
	}
	sort.Slice(others, func(i, j int) bool {
		if others[i].UpdatedAt != others[j].UpdatedAt {
			return others[i].UpdatedAt > others[j].UpdatedAt
		}
		return others[i].Host < others[j].Host
	})

	strategies := []func(e *Entry) bool{
		func(e *Entry) bool {
			return vendor != "" && e.Vendor == vendor && e.Overlap(labels) >= s.overlap()
		},
		func(e *Entry) bool {
			root := RootDomain(host)
			return root != "" && entryRoot(e) == root
		},
	}
	for _, fits := range strategies {
		for _, e := range others {
			if fits(e) {
				return e, nil
			}
		}
	}
	return nil, nil
}

func entryRoot(e *Entry) string {
	if e.RootDomain != "" {
		return e.RootDomain
	}
	return RootDomain(e.Host)
}
