package presets

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/rebeliceyang/assetq/internal/models"
	"gopkg.in/yaml.v3"
)

// DefaultMaxPerOwner is the number of presets one user may keep per organization
const DefaultMaxPerOwner = 20

var (
	ErrNameRequired  = errors.New("preset name cannot be empty")
	ErrQueryRequired = errors.New("preset query cannot be empty")
	ErrDuplicateName = errors.New("a preset with this name already exists")
	ErrLimitReached  = errors.New("preset limit reached")
	ErrNotFound      = errors.New("preset not found")
)

// strippedKeys are navigation parameters that never belong in a saved preset
var strippedKeys = map[string]bool{
	"page":       true,
	"per_page":   true,
	"scanId":     true,
	"redirectTo": true,
	"getAll":     true,
}

// Manager manages saved filter presets in a YAML file
type Manager struct {
	mu          sync.Mutex
	path        string
	maxPerOwner int
	presets     []models.FilterPreset
}

// NewManager creates a new presets manager backed by path
func NewManager(path string, maxPerOwner int) (*Manager, error) {
	if maxPerOwner <= 0 {
		maxPerOwner = DefaultMaxPerOwner
	}

	m := &Manager{
		path:        path,
		maxPerOwner: maxPerOwner,
		presets:     []models.FilterPreset{},
	}

	// Load existing presets if file exists
	if _, err := os.Stat(path); err == nil {
		if err := m.load(); err != nil {
			return nil, fmt.Errorf("failed to load presets: %w", err)
		}
	}

	return m, nil
}

func (m *Manager) load() error {
	data, err := os.ReadFile(m.path)
	if err != nil {
		return fmt.Errorf("failed to read presets file: %w", err)
	}

	if err := yaml.Unmarshal(data, &m.presets); err != nil {
		return fmt.Errorf("failed to parse presets: %w", err)
	}

	return nil
}

func (m *Manager) save() error {
	data, err := yaml.Marshal(m.presets)
	if err != nil {
		return fmt.Errorf("failed to marshal presets: %w", err)
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return fmt.Errorf("failed to create presets directory: %w", err)
	}

	if err := os.WriteFile(m.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write presets file: %w", err)
	}

	return nil
}

// SanitizeQuery drops navigation parameters from a filter string while
// keeping the remaining pairs byte for byte
func SanitizeQuery(query string) string {
	query = strings.TrimPrefix(strings.TrimSpace(query), "?")

	var kept []string
	for _, pair := range strings.Split(query, "&") {
		if pair == "" {
			continue
		}
		key, _, _ := strings.Cut(pair, "=")
		if k, err := url.QueryUnescape(key); err == nil && strippedKeys[k] {
			continue
		}
		kept = append(kept, pair)
	}
	return strings.Join(kept, "&")
}

func owned(p models.FilterPreset, organizationID, ownerID string) bool {
	return p.OrganizationID == organizationID && p.OwnerID == ownerID
}

// nameTaken reports whether another preset of the owner has a name with the same slug
func (m *Manager) nameTaken(organizationID, ownerID, name, exceptID string) bool {
	key := slug.Make(name)
	for _, p := range m.presets {
		if p.ID != exceptID && owned(p, organizationID, ownerID) && (p.Slug == key || strings.EqualFold(p.Name, name)) {
			return true
		}
	}
	return false
}

// List returns the presets of one owner ordered by name
func (m *Manager) List(organizationID, ownerID string) []models.FilterPreset {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []models.FilterPreset
	for _, p := range m.presets {
		if owned(p, organizationID, ownerID) {
			out = append(out, p)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out
}

// Create saves a new preset
func (m *Manager) Create(organizationID, ownerID, name, query string) (*models.FilterPreset, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}
	query = SanitizeQuery(query)
	if query == "" {
		return nil, ErrQueryRequired
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	count := 0
	for _, p := range m.presets {
		if owned(p, organizationID, ownerID) {
			count++
		}
	}
	if count >= m.maxPerOwner {
		return nil, fmt.Errorf("%w: at most %d presets per user", ErrLimitReached, m.maxPerOwner)
	}

	if m.nameTaken(organizationID, ownerID, name, "") {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateName, name)
	}

	now := time.Now()
	preset := models.FilterPreset{
		ID:             uuid.New().String(),
		Slug:           slug.Make(name),
		OrganizationID: organizationID,
		OwnerID:        ownerID,
		Name:           name,
		Query:          query,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	m.presets = append(m.presets, preset)

	if err := m.save(); err != nil {
		return nil, fmt.Errorf("failed to save preset: %w", err)
	}

	return &preset, nil
}

// Rename changes the name of a preset owned by ownerID. An unchanged name
// returns the preset as is.
func (m *Manager) Rename(id, organizationID, ownerID, name string) (*models.FilterPreset, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(id, organizationID, ownerID)
	if i < 0 {
		return nil, ErrNotFound
	}

	if m.presets[i].Name == name {
		p := m.presets[i]
		return &p, nil
	}

	if m.nameTaken(organizationID, ownerID, name, id) {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateName, name)
	}

	m.presets[i].Name = name
	m.presets[i].Slug = slug.Make(name)
	m.presets[i].UpdatedAt = time.Now()

	if err := m.save(); err != nil {
		return nil, fmt.Errorf("failed to save preset: %w", err)
	}

	p := m.presets[i]
	return &p, nil
}

// Delete removes a preset owned by ownerID
func (m *Manager) Delete(id, organizationID, ownerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(id, organizationID, ownerID)
	if i < 0 {
		return ErrNotFound
	}

	m.presets = append(m.presets[:i], m.presets[i+1:]...)
	if err := m.save(); err != nil {
		return fmt.Errorf("failed to save presets after deletion: %w", err)
	}
	return nil
}

// Find returns a preset of the owner by ID, slug or name
func (m *Manager) Find(organizationID, ownerID, key string) (*models.FilterPreset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key = strings.TrimSpace(key)
	keySlug := slug.Make(key)
	for _, p := range m.presets {
		if !owned(p, organizationID, ownerID) {
			continue
		}
		if p.ID == key || (keySlug != "" && p.Slug == keySlug) || strings.EqualFold(p.Name, key) {
			return &p, nil
		}
	}
	return nil, ErrNotFound
}

// RecordUsage updates usage statistics for a preset
func (m *Manager) RecordUsage(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, p := range m.presets {
		if p.ID == id {
			m.presets[i].UsageCount++
			m.presets[i].LastUsed = time.Now()
			if err := m.save(); err != nil {
				return fmt.Errorf("failed to save usage statistics: %w", err)
			}
			return nil
		}
	}
	return ErrNotFound
}

func (m *Manager) indexOf(id, organizationID, ownerID string) int {
	for i, p := range m.presets {
		if p.ID == id && owned(p, organizationID, ownerID) {
			return i
		}
	}
	return -1
}
