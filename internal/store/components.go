// Package store holds the Domain Stores: components with their version
// history, bookmarks, UI settings, and categories. Each store turns domain
// operations into SQL run through a types.Executor, keeps a read-through
// cache refreshed by a full re-query after every write, and reports
// outcomes to a Notifier. Failures are logged, notified, and returned.
package store

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mesh-intelligence/componentry/pkg/types"
)

const (
	insertComponentSQL = `INSERT INTO components (id, name, description, code, category, tags, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	insertVersionSQL = `INSERT INTO component_versions (id, component_id, code, created_at)
VALUES (?, ?, ?, ?)`

	// Inserts nothing when the component does not exist, so an update of a
	// missing component leaves no orphan version behind.
	insertVersionIfExistsSQL = `INSERT INTO component_versions (id, component_id, code, created_at)
SELECT ?, id, ?, ? FROM components WHERE id = ?`
)

// Components manages components and their version history.
type Components struct {
	db       types.Executor
	notifier Notifier
	log      zerolog.Logger
	now      func() time.Time

	mu         sync.RWMutex
	components []types.Component
	versions   []types.ComponentVersion
	active     *types.Component
}

// NewComponents creates a Components store. notifier may be nil.
func NewComponents(db types.Executor, notifier Notifier, log zerolog.Logger) *Components {
	return &Components{
		db:         db,
		notifier:   notifier,
		log:        log.With().Str("store", "components").Logger(),
		now:        time.Now,
		components: []types.Component{},
		versions:   []types.ComponentVersion{},
	}
}

func (s *Components) notify(message string, kind Kind) {
	if s.notifier != nil {
		s.notifier.Notify(message, kind)
	}
}

func (s *Components) newID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generating UUID v7: %w", err)
	}
	return id.String(), nil
}

// Fetch reloads every component, most recently updated first.
func (s *Components) Fetch(ctx context.Context) ([]types.Component, error) {
	rows, err := s.db.Query(ctx,
		"SELECT "+componentColumns+" FROM components ORDER BY "+timeOrder("updated_at")+" DESC, rowid DESC")
	if err != nil {
		s.log.Error().Err(err).Msg("fetch components")
		return nil, fmt.Errorf("fetching components: %w", err)
	}
	list, err := hydrateComponents(rows)
	if err != nil {
		s.log.Error().Err(err).Msg("hydrate components")
		return nil, fmt.Errorf("fetching components: %w", err)
	}

	s.mu.Lock()
	s.components = list
	if s.active != nil {
		for i := range list {
			if list[i].ID == s.active.ID {
				fresh := cloneComponent(list[i])
				s.active = &fresh
				break
			}
		}
	}
	s.mu.Unlock()
	return cloneComponents(list), nil
}

// FetchVersions reloads the version history of componentID, newest first.
func (s *Components) FetchVersions(ctx context.Context, componentID string) ([]types.ComponentVersion, error) {
	rows, err := s.db.Query(ctx,
		"SELECT id, component_id, code, created_at FROM component_versions WHERE component_id = ? ORDER BY "+
			timeOrder("created_at")+" DESC, rowid DESC",
		componentID)
	if err != nil {
		s.log.Error().Err(err).Str("component", componentID).Msg("fetch versions")
		return nil, fmt.Errorf("fetching versions of %s: %w", componentID, err)
	}

	versions := make([]types.ComponentVersion, 0, len(rows))
	for _, row := range rows {
		v, err := hydrateVersion(row)
		if err != nil {
			s.log.Error().Err(err).Msg("hydrate version")
			return nil, fmt.Errorf("fetching versions of %s: %w", componentID, err)
		}
		versions = append(versions, v)
	}

	s.mu.Lock()
	s.versions = versions
	s.mu.Unlock()

	out := make([]types.ComponentVersion, len(versions))
	copy(out, versions)
	return out, nil
}

// Get returns one component.
func (s *Components) Get(ctx context.Context, id string) (types.Component, error) {
	if id == "" {
		return types.Component{}, types.ErrInvalidID
	}
	rows, err := s.db.Query(ctx, "SELECT "+componentColumns+" FROM components WHERE id = ?", id)
	if err != nil {
		s.log.Error().Err(err).Str("id", id).Msg("get component")
		return types.Component{}, fmt.Errorf("getting component %s: %w", id, err)
	}
	if len(rows) == 0 {
		return types.Component{}, fmt.Errorf("getting component %s: %w", id, types.ErrNotFound)
	}
	c, err := hydrateComponent(rows[0])
	if err != nil {
		return types.Component{}, fmt.Errorf("getting component %s: %w", id, err)
	}
	return c, nil
}

// Create inserts a component together with its initial version in one
// batch, then reloads the list.
func (s *Components) Create(ctx context.Context, in types.ComponentCreate) (types.Component, error) {
	c, err := s.create(ctx, in)
	if err != nil {
		s.notify("Failed to create component", KindError)
		return types.Component{}, err
	}
	s.notify("Component created successfully", KindSuccess)
	return c, nil
}

func (s *Components) create(ctx context.Context, in types.ComponentCreate) (types.Component, error) {
	if err := in.Validate(); err != nil {
		return types.Component{}, err
	}
	id, err := s.newID()
	if err != nil {
		return types.Component{}, err
	}
	versionID, err := s.newID()
	if err != nil {
		return types.Component{}, err
	}
	tags, err := encodeTags(in.Tags)
	if err != nil {
		return types.Component{}, err
	}

	now := s.now().UTC()
	stamp := types.FormatTime(now)
	_, err = s.db.Batch(ctx, []types.Statement{
		{SQL: insertComponentSQL, Params: []any{id, in.Name, nullable(in.Description), in.Code, in.Category, tags, stamp, stamp}},
		{SQL: insertVersionSQL, Params: []any{versionID, id, in.Code, stamp}},
	})
	if err != nil {
		s.log.Error().Err(err).Str("name", in.Name).Msg("create component")
		return types.Component{}, fmt.Errorf("creating component: %w", err)
	}
	s.log.Info().Str("id", id).Str("name", in.Name).Msg("component created")

	if _, err := s.Fetch(ctx); err != nil {
		return types.Component{}, err
	}

	c := types.Component{
		ID:          id,
		Name:        in.Name,
		Description: in.Description,
		Code:        in.Code,
		Category:    in.Category,
		Tags:        append([]string{}, in.Tags...),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return c, nil
}

// CreateVersion records a new immutable snapshot of code for componentID and
// reloads its history.
func (s *Components) CreateVersion(ctx context.Context, componentID, code string) (types.ComponentVersion, error) {
	v, err := s.createVersion(ctx, componentID, code)
	if err != nil {
		s.notify("Failed to save version", KindError)
		return types.ComponentVersion{}, err
	}
	s.notify("Version saved successfully", KindSuccess)
	return v, nil
}

func (s *Components) createVersion(ctx context.Context, componentID, code string) (types.ComponentVersion, error) {
	if componentID == "" {
		return types.ComponentVersion{}, types.ErrInvalidID
	}
	if code == "" {
		return types.ComponentVersion{}, types.ErrEmptyCode
	}
	id, err := s.newID()
	if err != nil {
		return types.ComponentVersion{}, err
	}

	now := s.now().UTC()
	if _, err := s.db.Mutate(ctx, insertVersionSQL, id, componentID, code, types.FormatTime(now)); err != nil {
		s.log.Error().Err(err).Str("component", componentID).Msg("create version")
		return types.ComponentVersion{}, fmt.Errorf("creating version of %s: %w", componentID, err)
	}
	if _, err := s.FetchVersions(ctx, componentID); err != nil {
		return types.ComponentVersion{}, err
	}
	return types.ComponentVersion{ID: id, ComponentID: componentID, Code: code, CreatedAt: now}, nil
}

// Update sets only the fields present in patch and bumps updated_at. When the
// patch carries code, the row update and a new version are written in one
// batch. An empty patch does nothing. With notify set the outcome is
// reported to the Notifier.
func (s *Components) Update(ctx context.Context, id string, patch types.ComponentPatch, notify bool) error {
	if err := s.update(ctx, id, patch); err != nil {
		if notify {
			s.notify("Failed to update component", KindError)
		}
		return err
	}
	if notify && !patch.Empty() {
		s.notify("Component saved successfully", KindSuccess)
	}
	return nil
}

func (s *Components) update(ctx context.Context, id string, patch types.ComponentPatch) error {
	if id == "" {
		return types.ErrInvalidID
	}
	if patch.Empty() {
		return nil
	}
	if err := patch.Validate(); err != nil {
		return err
	}

	var sets []string
	var args []any
	if patch.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *patch.Name)
	}
	if patch.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, nullable(*patch.Description))
	}
	if patch.Code != nil {
		sets = append(sets, "code = ?")
		args = append(args, *patch.Code)
	}
	if patch.Category != nil {
		sets = append(sets, "category = ?")
		args = append(args, *patch.Category)
	}
	if patch.Tags != nil {
		tags, err := encodeTags(*patch.Tags)
		if err != nil {
			return err
		}
		sets = append(sets, "tags = ?")
		args = append(args, tags)
	}

	stamp := types.FormatTime(s.now())
	sets = append(sets, "updated_at = ?")
	args = append(args, stamp, id)
	update := types.Statement{
		SQL:    "UPDATE components SET " + strings.Join(sets, ", ") + " WHERE id = ?",
		Params: args,
	}

	var changes int64
	if patch.Code != nil {
		versionID, err := s.newID()
		if err != nil {
			return err
		}
		results, err := s.db.Batch(ctx, []types.Statement{
			update,
			{SQL: insertVersionIfExistsSQL, Params: []any{versionID, *patch.Code, stamp, id}},
		})
		if err != nil {
			s.log.Error().Err(err).Str("id", id).Msg("update component")
			return fmt.Errorf("updating component %s: %w", id, err)
		}
		changes = results[0].Changes
	} else {
		res, err := s.db.Mutate(ctx, update.SQL, update.Params...)
		if err != nil {
			s.log.Error().Err(err).Str("id", id).Msg("update component")
			return fmt.Errorf("updating component %s: %w", id, err)
		}
		changes = res.Changes
	}
	if changes == 0 {
		return fmt.Errorf("updating component %s: %w", id, types.ErrNotFound)
	}
	s.log.Info().Str("id", id).Bool("code", patch.Code != nil).Msg("component updated")

	if _, err := s.Fetch(ctx); err != nil {
		return err
	}
	if patch.Code != nil && s.activeID() == id {
		if _, err := s.FetchVersions(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a component. Its versions and bookmark go with it.
func (s *Components) Delete(ctx context.Context, id string) error {
	if err := s.delete(ctx, id); err != nil {
		s.notify("Failed to delete component", KindError)
		return err
	}
	s.notify("Component deleted successfully", KindSuccess)
	return nil
}

func (s *Components) delete(ctx context.Context, id string) error {
	if id == "" {
		return types.ErrInvalidID
	}
	res, err := s.db.Mutate(ctx, "DELETE FROM components WHERE id = ?", id)
	if err != nil {
		s.log.Error().Err(err).Str("id", id).Msg("delete component")
		return fmt.Errorf("deleting component %s: %w", id, err)
	}
	if res.Changes == 0 {
		return fmt.Errorf("deleting component %s: %w", id, types.ErrNotFound)
	}
	s.log.Info().Str("id", id).Msg("component deleted")

	if s.activeID() == id {
		s.mu.Lock()
		s.active = nil
		s.versions = []types.ComponentVersion{}
		s.mu.Unlock()
	}
	_, err = s.Fetch(ctx)
	return err
}

// SetActive selects the component shown in the editor and loads its
// history. Nil clears the selection.
func (s *Components) SetActive(ctx context.Context, c *types.Component) error {
	if c == nil {
		s.mu.Lock()
		s.active = nil
		s.versions = []types.ComponentVersion{}
		s.mu.Unlock()
		return nil
	}

	active := cloneComponent(*c)
	s.mu.Lock()
	s.active = &active
	s.mu.Unlock()

	_, err := s.FetchVersions(ctx, c.ID)
	return err
}

// Active returns a copy of the active component, or nil.
func (s *Components) Active() *types.Component {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.active == nil {
		return nil
	}
	c := cloneComponent(*s.active)
	return &c
}

func (s *Components) activeID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeIDLocked()
}

func (s *Components) activeIDLocked() string {
	if s.active == nil {
		return ""
	}
	return s.active.ID
}

// Duplicate creates a copy of c named "<name> (Copy)".
func (s *Components) Duplicate(ctx context.Context, c types.Component) (types.Component, error) {
	dup, err := s.create(ctx, types.ComponentCreate{
		Name:        c.Name + " (Copy)",
		Description: c.Description,
		Code:        c.Code,
		Category:    c.Category,
		Tags:        append([]string{}, c.Tags...),
	})
	if err != nil {
		s.notify("Failed to duplicate component", KindError)
		return types.Component{}, err
	}
	s.notify("Component duplicated successfully", KindSuccess)
	return dup, nil
}

// RestoreVersion saves the code of versionID as a new edit of the component
// that owns it. History only grows: the restored code becomes a new version.
func (s *Components) RestoreVersion(ctx context.Context, versionID string) error {
	if err := s.restoreVersion(ctx, versionID); err != nil {
		s.notify("Failed to restore version", KindError)
		return err
	}
	s.notify("Version restored successfully", KindSuccess)
	return nil
}

func (s *Components) restoreVersion(ctx context.Context, versionID string) error {
	if versionID == "" {
		return types.ErrInvalidID
	}
	rows, err := s.db.Query(ctx, "SELECT component_id, code FROM component_versions WHERE id = ?", versionID)
	if err != nil {
		s.log.Error().Err(err).Str("version", versionID).Msg("read version")
		return fmt.Errorf("restoring version %s: %w", versionID, err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("restoring version %s: %w", versionID, types.ErrNotFound)
	}

	componentID := text(rows[0], "component_id")
	code := text(rows[0], "code")
	return s.Update(ctx, componentID, types.ComponentPatch{Code: &code}, true)
}

// Components returns the cached list from the last fetch.
func (s *Components) Components() []types.Component {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneComponents(s.components)
}

// Versions returns the cached history from the last version fetch.
func (s *Components) Versions() []types.ComponentVersion {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.ComponentVersion, len(s.versions))
	copy(out, s.versions)
	return out
}
