package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/hasnain-a7/nextProjectFlow/models"
	"github.com/hasnain-a7/nextProjectFlow/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var errMockStore = errors.New("mock store error")

// fakeStore is an in-memory DocumentStore used by the cache and chat
// tests. Error fields make individual operations fail; the hook fields
// run inside an operation so tests can observe mid-flight state.
type fakeStore struct {
	mu sync.Mutex

	projects map[string]*models.Project
	order    []string
	tasks    map[string][]models.Task
	users    map[string]*models.User
	chat     map[string][]models.ChatMessage

	ownerErr         error
	assigneeErr      error
	tasksErr         error
	insertProjectErr error
	updateProjectErr error
	insertTaskErr    error

	onTasksByProject func()
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		projects: make(map[string]*models.Project),
		tasks:    make(map[string][]models.Task),
		users:    make(map[string]*models.User),
		chat:     make(map[string][]models.ChatMessage),
	}
}

// seedProject installs a project directly, bypassing InsertProject.
func (f *fakeStore) seedProject(p models.Project) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	id := p.ID.Hex()
	f.projects[id] = &p
	f.order = append(f.order, id)
	return id
}

func (f *fakeStore) seedTask(t models.Task) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t.ID.IsZero() {
		t.ID = primitive.NewObjectID()
	}
	f.tasks[t.ProjectID] = append(f.tasks[t.ProjectID], t)
	return t.ID.Hex()
}

func (f *fakeStore) projectSnapshot(projectID string) (models.Project, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.projects[projectID]
	if !ok {
		return models.Project{}, false
	}
	return *p, true
}

func (f *fakeStore) ProjectsByOwner(ctx context.Context, userID string) ([]models.Project, error) {
	if f.ownerErr != nil {
		return nil, f.ownerErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Project
	for _, id := range f.order {
		if f.projects[id].UserID == userID {
			out = append(out, *f.projects[id])
		}
	}
	return out, nil
}

func (f *fakeStore) ProjectsByAssignee(ctx context.Context, userID string) ([]models.Project, error) {
	if f.assigneeErr != nil {
		return nil, f.assigneeErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Project
	for _, id := range f.order {
		for _, assigned := range f.projects[id].AssignedUsers {
			if assigned == userID {
				out = append(out, *f.projects[id])
				break
			}
		}
	}
	return out, nil
}

func (f *fakeStore) ProjectByID(ctx context.Context, projectID string) (*models.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.projects[projectID]
	if !ok {
		return nil, store.ErrNotFound
	}
	snapshot := *p
	return &snapshot, nil
}

func (f *fakeStore) InsertProject(ctx context.Context, project *models.Project) (string, error) {
	if f.insertProjectErr != nil {
		return "", f.insertProjectErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	project.ID = primitive.NewObjectID()
	stored := *project
	stored.Tasks = nil
	id := stored.ID.Hex()
	f.projects[id] = &stored
	f.order = append(f.order, id)
	return id, nil
}

func (f *fakeStore) UpdateProject(ctx context.Context, projectID string, fields store.ProjectFields, lastSeen time.Time) error {
	if f.updateProjectErr != nil {
		return f.updateProjectErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.projects[projectID]
	if !ok {
		return store.ErrNotFound
	}
	if !lastSeen.IsZero() && !p.UpdatedAt.Equal(lastSeen) {
		return store.ErrConflict
	}
	p.Title = fields.Title
	p.Description = fields.Description
	p.Category = fields.Category
	p.Attachments = fields.Attachments
	p.DueDate = fields.DueDate
	p.Status = fields.Status
	p.ProjectEmoji = fields.ProjectEmoji
	p.UpdatedAt = fields.UpdatedAt
	return nil
}

func (f *fakeStore) AddAssignedUsers(ctx context.Context, projectID string, userIDs []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.projects[projectID]
	if !ok {
		return store.ErrNotFound
	}
	for _, id := range userIDs {
		exists := false
		for _, existing := range p.AssignedUsers {
			if existing == id {
				exists = true
				break
			}
		}
		if !exists {
			p.AssignedUsers = append(p.AssignedUsers, id)
		}
	}
	return nil
}

func (f *fakeStore) RemoveAssignedUsers(ctx context.Context, projectID string, userIDs []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.projects[projectID]
	if !ok {
		return store.ErrNotFound
	}
	drop := make(map[string]bool, len(userIDs))
	for _, id := range userIDs {
		drop[id] = true
	}
	kept := p.AssignedUsers[:0]
	for _, id := range p.AssignedUsers {
		if !drop[id] {
			kept = append(kept, id)
		}
	}
	p.AssignedUsers = kept
	return nil
}

func (f *fakeStore) DeleteProject(ctx context.Context, projectID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.projects[projectID]; !ok {
		return store.ErrNotFound
	}
	delete(f.projects, projectID)
	for i, id := range f.order {
		if id == projectID {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakeStore) TasksByProject(ctx context.Context, projectID string) ([]models.Task, error) {
	if f.onTasksByProject != nil {
		f.onTasksByProject()
	}
	if f.tasksErr != nil {
		return nil, f.tasksErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Task, len(f.tasks[projectID]))
	copy(out, f.tasks[projectID])
	return out, nil
}

func (f *fakeStore) TasksDueBetween(ctx context.Context, from, to string) ([]models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Task
	for _, tasks := range f.tasks {
		for _, t := range tasks {
			if t.DueDate != "" && t.DueDate >= from && t.DueDate <= to {
				out = append(out, t)
			}
		}
	}
	return out, nil
}

func (f *fakeStore) InsertTask(ctx context.Context, task *models.Task) (string, error) {
	if f.insertTaskErr != nil {
		return "", f.insertTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	task.ID = primitive.NewObjectID()
	f.tasks[task.ProjectID] = append(f.tasks[task.ProjectID], *task)
	return task.ID.Hex(), nil
}

func (f *fakeStore) UpdateTask(ctx context.Context, projectID, taskID string, fields store.TaskFields, lastSeen time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	tasks := f.tasks[projectID]
	for i := range tasks {
		if tasks[i].ID.Hex() == taskID {
			if !lastSeen.IsZero() && !tasks[i].UpdatedAt.Equal(lastSeen) {
				return store.ErrConflict
			}
			tasks[i].Title = fields.Title
			tasks[i].Todo = fields.Todo
			tasks[i].Status = fields.Status
			tasks[i].Attachments = fields.Attachments
			tasks[i].DueDate = fields.DueDate
			tasks[i].TodoEmoji = fields.TodoEmoji
			tasks[i].UpdatedAt = fields.UpdatedAt
			return nil
		}
	}
	return store.ErrNotFound
}

func (f *fakeStore) DeleteTask(ctx context.Context, projectID, taskID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	tasks := f.tasks[projectID]
	for i := range tasks {
		if tasks[i].ID.Hex() == taskID {
			f.tasks[projectID] = append(tasks[:i], tasks[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func (f *fakeStore) DeleteTasksByProject(ctx context.Context, projectID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.tasks, projectID)
	return nil
}

func (f *fakeStore) UserByID(ctx context.Context, userID string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	snapshot := *u
	return &snapshot, nil
}

func (f *fakeStore) UpdateUser(ctx context.Context, userID string, fields store.UserFields) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return store.ErrNotFound
	}
	u.FullName = fields.FullName
	u.Location = fields.Location
	u.Email = fields.Email
	u.Occupation = fields.Occupation
	u.Organization = fields.Organization
	u.IsActive = fields.IsActive
	u.Bio = fields.Bio
	u.Avatar = fields.Avatar
	u.CoverImage = fields.CoverImage
	u.UpdatedAt = fields.UpdatedAt
	return nil
}

func (f *fakeStore) DeleteUser(ctx context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[userID]; !ok {
		return store.ErrNotFound
	}
	delete(f.users, userID)
	return nil
}

func (f *fakeStore) InsertChatMessage(ctx context.Context, msg *models.ChatMessage) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg.ID = primitive.NewObjectID()
	f.chat[msg.ProjectID] = append(f.chat[msg.ProjectID], *msg)
	return msg.ID.Hex(), nil
}

func (f *fakeStore) ChatMessagesBefore(ctx context.Context, projectID string, before time.Time, limit int) ([]models.ChatMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.ChatMessage
	for _, msg := range f.chat[projectID] {
		if before.IsZero() || msg.CreatedAt.Before(before) {
			out = append(out, msg)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) DeleteChatByProject(ctx context.Context, projectID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.chat, projectID)
	return nil
}
