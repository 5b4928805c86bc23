package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hasnain-a7/nextProjectFlow/logging"
	"github.com/hasnain-a7/nextProjectFlow/models"
	"github.com/hasnain-a7/nextProjectFlow/store"

	"golang.org/x/sync/errgroup"
)

var (
	ErrInvalidInput    = errors.New("title and user ID are required")
	ErrProjectNotFound = errors.New("project not found in cache")
	ErrTaskNotFound    = errors.New("task not found in cache")
)

// ProjectInput carries the user-editable project fields for create and
// update calls.
type ProjectInput struct {
	Title        string
	Description  string
	Category     string
	Attachments  []string
	DueDate      string
	Status       models.ProjectStatus
	ProjectEmoji string
	// AssignedUsers are unioned into the stored set, DeletedUsers are
	// removed afterwards. An ID present in both ends up removed.
	AssignedUsers []string
	DeletedUsers  []string
}

// TaskInput carries the user-editable task fields.
type TaskInput struct {
	Title       string
	Todo        string
	Status      models.ProjectStatus
	Attachments []string
	DueDate     string
	TodoEmoji   string
}

// ProjectCache is the per-session in-memory view of one user's projects
// and their nested tasks. It is populated wholesale by BulkLoad after
// sign-in, mutated remote-first by the Add/Update/Delete operations, and
// cleared wholesale at sign-out. Within one operation the store write is
// awaited before the in-memory mirror is touched, so readers never see
// local state the store has not accepted.
type ProjectCache struct {
	store  store.DocumentStore
	userID string

	mu         sync.RWMutex
	projects   []models.Project
	user       models.User
	loading    bool
	loaded     bool
	generation uint64

	now func() time.Time
}

// NewProjectCache creates an empty cache bound to one authenticated user.
func NewProjectCache(documentStore store.DocumentStore, userID string) *ProjectCache {
	return &ProjectCache{
		store:  documentStore,
		userID: userID,
		now:    time.Now,
	}
}

// UserID returns the owning session's user identifier.
func (c *ProjectCache) UserID() string {
	return c.userID
}

// Loading reports whether a bulk load is in flight.
func (c *ProjectCache) Loading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loading
}

// Projects returns a snapshot of the cached project list. Task slices are
// copied so callers cannot mutate cache state.
func (c *ProjectCache) Projects() []models.Project {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snapshot := make([]models.Project, len(c.projects))
	copy(snapshot, c.projects)
	for i := range snapshot {
		tasks := make([]models.Task, len(snapshot[i].Tasks))
		copy(tasks, snapshot[i].Tasks)
		snapshot[i].Tasks = tasks
		assigned := make([]string, len(snapshot[i].AssignedUsers))
		copy(assigned, snapshot[i].AssignedUsers)
		snapshot[i].AssignedUsers = assigned
	}
	return snapshot
}

// Project returns a snapshot of one cached project by identifier.
func (c *ProjectCache) Project(projectID string) (models.Project, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, p := range c.projects {
		if p.ID.Hex() == projectID {
			tasks := make([]models.Task, len(p.Tasks))
			copy(tasks, p.Tasks)
			p.Tasks = tasks
			return p, true
		}
	}
	return models.Project{}, false
}

// BulkLoad populates the cache from the store: one query for projects the
// user owns, one for projects the user is assigned to, deduplicated by
// identifier, then one task query per project. The assembled list replaces
// the cached one only after every task query has completed. On any failure
// the cache keeps its prior state.
func (c *ProjectCache) BulkLoad(ctx context.Context) error {
	c.mu.Lock()
	c.loading = true
	generation := c.generation
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.loading = false
		c.mu.Unlock()
	}()

	owned, err := c.store.ProjectsByOwner(ctx, c.userID)
	if err != nil {
		logging.Logger.Errorf("Event ID: BULK_LOAD_FAILED, Description: Failed to fetch owned projects for user %s: %v", c.userID, err)
		return fmt.Errorf("failed to fetch owned projects: %v", err)
	}

	assigned, err := c.store.ProjectsByAssignee(ctx, c.userID)
	if err != nil {
		logging.Logger.Errorf("Event ID: BULK_LOAD_FAILED, Description: Failed to fetch assigned projects for user %s: %v", c.userID, err)
		return fmt.Errorf("failed to fetch assigned projects: %v", err)
	}

	seen := make(map[string]bool, len(owned)+len(assigned))
	combined := make([]models.Project, 0, len(owned)+len(assigned))
	for _, p := range append(owned, assigned...) {
		id := p.ID.Hex()
		if seen[id] {
			continue
		}
		seen[id] = true
		combined = append(combined, p)
	}

	// Fan out one task fetch per project, fan in before swapping the
	// list. Each goroutine writes a distinct index.
	g, gctx := errgroup.WithContext(ctx)
	for i := range combined {
		i := i
		g.Go(func() error {
			tasks, err := c.store.TasksByProject(gctx, combined[i].ID.Hex())
			if err != nil {
				return fmt.Errorf("failed to fetch tasks for project %s: %v", combined[i].ID.Hex(), err)
			}
			if tasks == nil {
				tasks = []models.Task{}
			}
			combined[i].Tasks = tasks
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logging.Logger.Errorf("Event ID: BULK_LOAD_FAILED, Description: Task fan-out failed for user %s: %v", c.userID, err)
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation != generation {
		// The session was cleared while the load was in flight, drop
		// the stale result instead of resurrecting it.
		logging.Logger.Warnf("Event ID: BULK_LOAD_STALE, Description: Dropping bulk load result for user %s, session was cleared mid-flight", c.userID)
		return nil
	}
	c.projects = combined
	c.loaded = true
	logging.Logger.Infof("Event ID: BULK_LOAD_COMPLETE, Description: Loaded %d projects for user %s", len(combined), c.userID)
	return nil
}

// EnsureLoaded runs BulkLoad once per session; later calls are no-ops
// unless the cache was cleared in between.
func (c *ProjectCache) EnsureLoaded(ctx context.Context) error {
	c.mu.RLock()
	loaded := c.loaded
	c.mu.RUnlock()
	if loaded {
		return nil
	}
	return c.BulkLoad(ctx)
}

// AddProject writes a new project document and appends it to the cache.
// Returns the store-assigned identifier.
func (c *ProjectCache) AddProject(ctx context.Context, input ProjectInput) (string, error) {
	if strings.TrimSpace(input.Title) == "" || c.userID == "" {
		return "", ErrInvalidInput
	}

	attachments := input.Attachments
	if attachments == nil {
		attachments = []string{}
	}

	project := models.Project{
		Title:         input.Title,
		Description:   input.Description,
		Category:      input.Category,
		UserID:        c.userID,
		AssignedUsers: []string{},
		Attachments:   attachments,
		DueDate:       input.DueDate,
		Status:        input.Status,
		ProjectEmoji:  input.ProjectEmoji,
		CreatedAt:     c.now(),
		Tasks:         []models.Task{},
	}

	id, err := c.store.InsertProject(ctx, &project)
	if err != nil {
		logging.Logger.Errorf("Event ID: PROJECT_CREATE_FAILED, Description: Failed to create project for user %s: %v", c.userID, err)
		return "", err
	}

	c.mu.Lock()
	c.projects = append(c.projects, project)
	c.mu.Unlock()

	logging.Logger.Infof("Event ID: PROJECT_CREATED, Description: Project %s created for user %s", id, c.userID)
	return id, nil
}

// UpdateProject writes the full editable field set with a fresh update
// timestamp, then unions AssignedUsers into the stored set and removes
// DeletedUsers after that, and finally mirrors all three writes into the
// cached record. The write is conditional on the cached record's last
// update timestamp; store.ErrConflict means another writer got there
// first and the caller should reload.
func (c *ProjectCache) UpdateProject(ctx context.Context, projectID string, input ProjectInput) error {
	if projectID == "" || strings.TrimSpace(input.Title) == "" {
		return ErrInvalidInput
	}

	c.mu.RLock()
	idx := c.indexOf(projectID)
	if idx < 0 {
		c.mu.RUnlock()
		return ErrProjectNotFound
	}
	lastSeen := c.projects[idx].UpdatedAt
	c.mu.RUnlock()

	attachments := input.Attachments
	if attachments == nil {
		attachments = []string{}
	}

	updatedAt := c.now()
	fields := store.ProjectFields{
		Title:        input.Title,
		Description:  input.Description,
		Category:     input.Category,
		Attachments:  attachments,
		DueDate:      input.DueDate,
		Status:       input.Status,
		ProjectEmoji: input.ProjectEmoji,
		UpdatedAt:    updatedAt,
	}

	if err := c.store.UpdateProject(ctx, projectID, fields, lastSeen); err != nil {
		logging.Logger.Errorf("Event ID: PROJECT_UPDATE_FAILED, Description: Failed to update project %s: %v", projectID, err)
		return err
	}
	if len(input.AssignedUsers) > 0 {
		if err := c.store.AddAssignedUsers(ctx, projectID, input.AssignedUsers); err != nil {
			logging.Logger.Errorf("Event ID: PROJECT_ASSIGN_FAILED, Description: Failed to assign users on project %s: %v", projectID, err)
			return err
		}
	}
	if len(input.DeletedUsers) > 0 {
		if err := c.store.RemoveAssignedUsers(ctx, projectID, input.DeletedUsers); err != nil {
			logging.Logger.Errorf("Event ID: PROJECT_UNASSIGN_FAILED, Description: Failed to unassign users on project %s: %v", projectID, err)
			return err
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	idx = c.indexOf(projectID)
	if idx < 0 {
		return nil
	}
	p := &c.projects[idx]
	p.Title = input.Title
	p.Description = input.Description
	p.Category = input.Category
	p.Attachments = attachments
	p.DueDate = input.DueDate
	p.Status = input.Status
	p.ProjectEmoji = input.ProjectEmoji
	p.UpdatedAt = updatedAt
	p.AssignedUsers = mergeAssigned(p.AssignedUsers, input.AssignedUsers, input.DeletedUsers)
	return nil
}

// mergeAssigned mirrors the store-side ordering: union the additions
// first, remove the deletions last, so an ID in both lists is removed.
func mergeAssigned(current, added, deleted []string) []string {
	merged := make([]string, 0, len(current)+len(added))
	seen := make(map[string]bool, len(current)+len(added))
	for _, id := range current {
		if !seen[id] {
			seen[id] = true
			merged = append(merged, id)
		}
	}
	for _, id := range added {
		if !seen[id] {
			seen[id] = true
			merged = append(merged, id)
		}
	}
	if len(deleted) == 0 {
		return merged
	}
	drop := make(map[string]bool, len(deleted))
	for _, id := range deleted {
		drop[id] = true
	}
	final := merged[:0]
	for _, id := range merged {
		if !drop[id] {
			final = append(final, id)
		}
	}
	return final
}

// DeleteProject removes the project document together with its task and
// chat sub-collections, then drops the matching cached record. Other
// projects and their task lists are untouched.
func (c *ProjectCache) DeleteProject(ctx context.Context, projectID string) error {
	if projectID == "" {
		return ErrInvalidInput
	}

	// Sub-collections first so a mid-cascade failure never leaves a
	// project document pointing at deleted children.
	if err := c.store.DeleteTasksByProject(ctx, projectID); err != nil {
		logging.Logger.Errorf("Event ID: PROJECT_DELETE_FAILED, Description: Failed to delete tasks of project %s: %v", projectID, err)
		return err
	}
	if err := c.store.DeleteChatByProject(ctx, projectID); err != nil {
		logging.Logger.Errorf("Event ID: PROJECT_DELETE_FAILED, Description: Failed to delete chat of project %s: %v", projectID, err)
		return err
	}
	if err := c.store.DeleteProject(ctx, projectID); err != nil {
		logging.Logger.Errorf("Event ID: PROJECT_DELETE_FAILED, Description: Failed to delete project %s: %v", projectID, err)
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for i, p := range c.projects {
		if p.ID.Hex() == projectID {
			c.projects = append(c.projects[:i], c.projects[i+1:]...)
			break
		}
	}
	logging.Logger.Infof("Event ID: PROJECT_DELETED, Description: Project %s deleted", projectID)
	return nil
}

// AddTask writes a new task document under the given project and appends
// it to that project's cached task list. Status defaults to backlog and
// an empty title becomes "Untitled Task".
func (c *ProjectCache) AddTask(ctx context.Context, projectID string, input TaskInput) (string, error) {
	if projectID == "" {
		return "", ErrInvalidInput
	}

	c.mu.RLock()
	idx := c.indexOf(projectID)
	c.mu.RUnlock()
	if idx < 0 {
		return "", ErrProjectNotFound
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		title = "Untitled Task"
	}
	status := input.Status
	if status == "" {
		status = models.StatusBacklog
	}
	attachments := input.Attachments
	if attachments == nil {
		attachments = []string{}
	}

	task := models.Task{
		ProjectID:   projectID,
		Title:       title,
		Todo:        strings.TrimSpace(input.Todo),
		Status:      status,
		Attachments: attachments,
		DueDate:     input.DueDate,
		TodoEmoji:   input.TodoEmoji,
		CreatedAt:   c.now(),
	}

	id, err := c.store.InsertTask(ctx, &task)
	if err != nil {
		logging.Logger.Errorf("Event ID: TASK_CREATE_FAILED, Description: Failed to create task in project %s: %v", projectID, err)
		return "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	idx = c.indexOf(projectID)
	if idx >= 0 {
		c.projects[idx].Tasks = append(c.projects[idx].Tasks, task)
	}
	logging.Logger.Infof("Event ID: TASK_CREATED, Description: Task %s created in project %s", id, projectID)
	return id, nil
}

// UpdateTask writes the task's editable fields with a fresh update
// timestamp, conditional on the cached task's last update timestamp, then
// patches the cached copy.
func (c *ProjectCache) UpdateTask(ctx context.Context, projectID, taskID string, input TaskInput) error {
	if projectID == "" || taskID == "" {
		return ErrInvalidInput
	}

	c.mu.RLock()
	idx := c.indexOf(projectID)
	if idx < 0 {
		c.mu.RUnlock()
		return ErrProjectNotFound
	}
	var lastSeen time.Time
	found := false
	for _, t := range c.projects[idx].Tasks {
		if t.ID.Hex() == taskID {
			lastSeen = t.UpdatedAt
			found = true
			break
		}
	}
	c.mu.RUnlock()
	if !found {
		return ErrTaskNotFound
	}

	attachments := input.Attachments
	if attachments == nil {
		attachments = []string{}
	}

	updatedAt := c.now()
	fields := store.TaskFields{
		Title:       input.Title,
		Todo:        input.Todo,
		Status:      input.Status,
		Attachments: attachments,
		DueDate:     input.DueDate,
		TodoEmoji:   input.TodoEmoji,
		UpdatedAt:   updatedAt,
	}

	if err := c.store.UpdateTask(ctx, projectID, taskID, fields, lastSeen); err != nil {
		logging.Logger.Errorf("Event ID: TASK_UPDATE_FAILED, Description: Failed to update task %s in project %s: %v", taskID, projectID, err)
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	idx = c.indexOf(projectID)
	if idx < 0 {
		return nil
	}
	for i := range c.projects[idx].Tasks {
		t := &c.projects[idx].Tasks[i]
		if t.ID.Hex() == taskID {
			t.Title = input.Title
			t.Todo = input.Todo
			t.Status = input.Status
			t.Attachments = attachments
			t.DueDate = input.DueDate
			t.TodoEmoji = input.TodoEmoji
			t.UpdatedAt = updatedAt
			break
		}
	}
	return nil
}

// DeleteTask removes the task document and filters it out of the cached
// task list for that project.
func (c *ProjectCache) DeleteTask(ctx context.Context, projectID, taskID string) error {
	if projectID == "" || taskID == "" {
		return ErrInvalidInput
	}

	if err := c.store.DeleteTask(ctx, projectID, taskID); err != nil {
		logging.Logger.Errorf("Event ID: TASK_DELETE_FAILED, Description: Failed to delete task %s in project %s: %v", taskID, projectID, err)
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	idx := c.indexOf(projectID)
	if idx < 0 {
		return nil
	}
	tasks := c.projects[idx].Tasks
	for i, t := range tasks {
		if t.ID.Hex() == taskID {
			c.projects[idx].Tasks = append(tasks[:i], tasks[i+1:]...)
			break
		}
	}
	return nil
}

// LoadUserData fetches the session user's profile document into the cache.
func (c *ProjectCache) LoadUserData(ctx context.Context) (*models.User, error) {
	user, err := c.store.UserByID(ctx, c.userID)
	if err != nil {
		logging.Logger.Errorf("Event ID: USER_FETCH_FAILED, Description: Failed to fetch user %s: %v", c.userID, err)
		return nil, err
	}

	c.mu.Lock()
	c.user = *user
	c.mu.Unlock()
	return user, nil
}

// UserData returns the cached profile of the session user.
func (c *ProjectCache) UserData() models.User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.user
}

// UpdateUserData writes the profile fields with a fresh update timestamp
// and mirrors them locally.
func (c *ProjectCache) UpdateUserData(ctx context.Context, fields store.UserFields) error {
	fields.UpdatedAt = c.now()
	if err := c.store.UpdateUser(ctx, c.userID, fields); err != nil {
		logging.Logger.Errorf("Event ID: USER_UPDATE_FAILED, Description: Failed to update user %s: %v", c.userID, err)
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.user.FullName = fields.FullName
	c.user.Location = fields.Location
	c.user.Email = fields.Email
	c.user.Occupation = fields.Occupation
	c.user.Organization = fields.Organization
	c.user.IsActive = fields.IsActive
	c.user.Bio = fields.Bio
	c.user.Avatar = fields.Avatar
	c.user.CoverImage = fields.CoverImage
	c.user.UpdatedAt = fields.UpdatedAt
	return nil
}

// Clear wipes the cache at sign-out. A bulk load still in flight will
// notice the generation change and drop its result.
func (c *ProjectCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	c.projects = nil
	c.user = models.User{}
	c.loading = false
	c.loaded = false
}

// indexOf must be called with the mutex held.
func (c *ProjectCache) indexOf(projectID string) int {
	for i, p := range c.projects {
		if p.ID.Hex() == projectID {
			return i
		}
	}
	return -1
}
