package session

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/tailscale/hujson"
	"github.com/tidwall/gjson"

	"github.com/barysiuk/specrow/internal/core"
)

// SessionsDirName is the directory under the project root holding one
// subdirectory per session.
const SessionsDirName = "specs"

// Resolution reasons.
const (
	ReasonCurrent = "current"
	ReasonMatched = "matched"
	ReasonCreated = "created"
)

// Resolution is the outcome of ResolveOrCreate.
type Resolution struct {
	SessionID string `json:"sessionId"`
	IsUpdate  bool   `json:"isUpdate"`
	Reason    string `json:"reason"`
}

// MissingSessionError is returned when a session directory does not exist.
type MissingSessionError struct {
	ID   string
	Path string
}

func (e *MissingSessionError) Error() string {
	return fmt.Sprintf("session %s not found at %s", e.ID, e.Path)
}

// Store manages session directories and the current-session pointer of a
// project. The pointer lives in the project config record and every write
// to it goes through core.ProjectConfigManager.
type Store struct {
	root   string
	config *core.ProjectConfigManager
	now    func() time.Time
}

// NewStore returns a Store for the project rooted at root.
func NewStore(root string) *Store {
	return &Store{
		root:   root,
		config: core.NewProjectConfigManager(root),
		now:    time.Now,
	}
}

// SetClock replaces the time source used for descriptor timestamps.
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

// Root returns the project root.
func (s *Store) Root() string {
	return s.root
}

// SessionsDir returns the directory holding session directories.
func (s *Store) SessionsDir() string {
	return filepath.Join(s.root, SessionsDirName)
}

// ReadCurrent returns the current session id, or "" when the config record
// is missing or the pointer is null.
func (s *Store) ReadCurrent() (string, error) {
	data, err := os.ReadFile(s.config.ConfigPath())
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", s.config.ConfigPath(), err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return "", nil
	}

	std, err := hujson.Standardize(data)
	if err != nil {
		return "", fmt.Errorf("parsing %s: %w", s.config.ConfigPath(), err)
	}
	r := gjson.GetBytes(std, core.KeyCurrentSession)
	switch r.Type {
	case gjson.Null:
		return "", nil
	case gjson.String:
		return r.String(), nil
	default:
		return "", fmt.Errorf("%s in %s is not a string", core.KeyCurrentSession, s.config.ConfigPath())
	}
}

// WriteCurrent points the project at the given session.
func (s *Store) WriteCurrent(id string) error {
	if err := validateID(id); err != nil {
		return err
	}
	return s.config.Set(core.Field{Key: core.KeyCurrentSession, Value: id})
}

// ClearCurrent resets the pointer to null.
func (s *Store) ClearCurrent() error {
	return s.config.Set(core.Field{Key: core.KeyCurrentSession, Value: nil})
}

// Current returns the metadata of the current session, or nil when no
// session is current.
func (s *Store) Current() (*Metadata, error) {
	id, err := s.ReadCurrent()
	if err != nil || id == "" {
		return nil, err
	}
	return s.Get(id)
}

// SessionPath returns the directory of session id.
func (s *Store) SessionPath(id string) (string, error) {
	if err := validateID(id); err != nil {
		return "", err
	}
	path := filepath.Join(s.SessionsDir(), id)
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return "", &MissingSessionError{ID: id, Path: path}
	}
	return path, nil
}

// Get reads the descriptor of session id.
func (s *Store) Get(id string) (*Metadata, error) {
	path, err := s.SessionPath(id)
	if err != nil {
		return nil, err
	}
	m, err := readDescriptor(path)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", id, err)
	}
	return m, nil
}

// List returns every session with a valid descriptor, most recently
// updated first. Directories without a readable descriptor are skipped.
func (s *Store) List() ([]Metadata, error) {
	entries, err := os.ReadDir(s.SessionsDir())
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.SessionsDir(), err)
	}

	var sessions []Metadata
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		m, err := readDescriptor(filepath.Join(s.SessionsDir(), e.Name()))
		if err != nil {
			continue
		}
		sessions = append(sessions, *m)
	}

	sort.Slice(sessions, func(i, j int) bool {
		a, b := sessions[i], sessions[j]
		if !a.LastUpdated.Equal(b.LastUpdated) {
			return a.LastUpdated.After(b.LastUpdated)
		}
		return a.ID < b.ID
	})
	return sessions, nil
}

// ListActive returns the sessions that are not completed, in List order.
func (s *Store) ListActive() ([]Metadata, error) {
	all, err := s.List()
	if err != nil {
		return nil, err
	}
	active := all[:0]
	for _, m := range all {
		if m.Status.Active() {
			active = append(active, m)
		}
	}
	return active, nil
}

// Create makes a new draft session named after name. The id is the next
// free three-digit number followed by a slug of the name.
func (s *Store) Create(name string) (*Metadata, error) {
	name = oneLine(name)
	if name == "" {
		return nil, fmt.Errorf("session name must not be empty")
	}
	if err := os.MkdirAll(s.SessionsDir(), 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", s.SessionsDir(), err)
	}

	next, err := s.nextNumber()
	if err != nil {
		return nil, err
	}
	id := fmt.Sprintf("%03d-%s", next, Slugify(name, slugMaxLen))
	dir := filepath.Join(s.SessionsDir(), id)
	if err := os.Mkdir(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating session %s: %w", id, err)
	}

	now := s.now().UTC().Truncate(time.Second)
	m := Metadata{
		ID:          id,
		Name:        name,
		Status:      StatusDraft,
		Created:     now,
		LastUpdated: now,
	}
	if err := writeDescriptor(dir, m); err != nil {
		_ = os.RemoveAll(dir)
		return nil, fmt.Errorf("writing session %s: %w", id, err)
	}
	return &m, nil
}

// Touch sets the status of session id and bumps last_updated.
func (s *Store) Touch(id string, status Status) (*Metadata, error) {
	if _, err := ParseStatus(string(status)); err != nil {
		return nil, err
	}
	m, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	m.Status = status
	m.LastUpdated = s.now().UTC().Truncate(time.Second)

	path, err := s.SessionPath(id)
	if err != nil {
		return nil, err
	}
	if err := writeDescriptor(path, *m); err != nil {
		return nil, fmt.Errorf("writing session %s: %w", id, err)
	}
	return m, nil
}

// ResolveOrCreate picks the session a new piece of work belongs to.
//
// A current session whose directory exists is always reused. Otherwise the
// first active session, in ListActive order, whose name matches intent is
// reused. Failing both, a new draft session is created. The chosen session
// becomes current.
func (s *Store) ResolveOrCreate(intent string) (*Resolution, error) {
	if strings.TrimSpace(intent) == "" {
		return nil, fmt.Errorf("intent must not be empty")
	}

	current, err := s.ReadCurrent()
	if err != nil {
		return nil, err
	}
	if current != "" {
		if _, err := s.SessionPath(current); err == nil {
			return &Resolution{SessionID: current, IsUpdate: true, Reason: ReasonCurrent}, nil
		}
	}

	active, err := s.ListActive()
	if err != nil {
		return nil, err
	}
	for _, m := range active {
		if Match(intent, m.Name) {
			if err := s.WriteCurrent(m.ID); err != nil {
				return nil, err
			}
			return &Resolution{SessionID: m.ID, IsUpdate: true, Reason: ReasonMatched}, nil
		}
	}

	m, err := s.Create(intent)
	if err != nil {
		return nil, err
	}
	if err := s.WriteCurrent(m.ID); err != nil {
		return nil, err
	}
	return &Resolution{SessionID: m.ID, IsUpdate: false, Reason: ReasonCreated}, nil
}

// nextNumber returns one more than the highest numeric prefix among the
// session directories, or 1 when there are none.
func (s *Store) nextNumber() (int, error) {
	entries, err := os.ReadDir(s.SessionsDir())
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return 0, fmt.Errorf("reading %s: %w", s.SessionsDir(), err)
	}
	highest := 0
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if n, ok := numericPrefix(e.Name()); ok && n > highest {
			highest = n
		}
	}
	return highest + 1, nil
}

// numericPrefix parses the leading digits of a session id such as
// "012-login".
func numericPrefix(id string) (int, bool) {
	end := 0
	for end < len(id) && id[end] >= '0' && id[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(id[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

func validateID(id string) error {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) || strings.ContainsAny(id, "\r\n") {
		return fmt.Errorf("invalid session id %q", id)
	}
	return nil
}
