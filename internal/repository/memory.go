package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/p-chth/KaoDuenMate-VER2/internal/models"
)

// collection keeps per-user documents in insertion order, mirroring the
// created_at ordering of the Postgres tables.
type collection[T any] struct {
	mu    sync.RWMutex
	docs  map[string]map[string]T
	order map[string][]string
}

func newCollection[T any]() *collection[T] {
	return &collection[T]{
		docs:  make(map[string]map[string]T),
		order: make(map[string][]string),
	}
}

func (c *collection[T]) all(userID string) []T {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]T, 0, len(c.order[userID]))
	for _, id := range c.order[userID] {
		out = append(out, c.docs[userID][id])
	}
	return out
}

func (c *collection[T]) get(userID, id string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	doc, ok := c.docs[userID][id]
	return doc, ok
}

func (c *collection[T]) put(userID, id string, doc T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.docs[userID] == nil {
		c.docs[userID] = make(map[string]T)
	}
	if _, exists := c.docs[userID][id]; !exists {
		c.order[userID] = append(c.order[userID], id)
	}
	c.docs[userID][id] = doc
}

// update applies fn to an existing document under the write lock.
func (c *collection[T]) update(userID, id string, fn func(*T)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	doc, ok := c.docs[userID][id]
	if !ok {
		return ErrNotFound
	}
	fn(&doc)
	c.docs[userID][id] = doc
	return nil
}

func (c *collection[T]) remove(userID, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.docs[userID][id]; !ok {
		return ErrNotFound
	}
	delete(c.docs[userID], id)

	ids := c.order[userID]
	for i, v := range ids {
		if v == id {
			c.order[userID] = append(ids[:i:i], ids[i+1:]...)
			break
		}
	}
	return nil
}

// NewMemoryStore returns a Store that keeps everything in process memory.
// Used by the memory storage driver and by tests.
func NewMemoryStore() *Store {
	return &Store{
		Assignments: &memoryAssignments{c: newCollection[models.Assignment]()},
		Exams:       &memoryExams{c: newCollection[models.Exam]()},
		Courses:     &memoryCourses{c: newCollection[models.Course]()},
		Profiles:    &memoryProfiles{docs: make(map[string]models.UserProfile)},
	}
}

type memoryAssignments struct {
	c *collection[models.Assignment]
}

func (m *memoryAssignments) GetAll(_ context.Context, userID string) ([]models.Assignment, error) {
	return m.c.all(userID), nil
}

func (m *memoryAssignments) Get(_ context.Context, userID, id string) (*models.Assignment, error) {
	a, ok := m.c.get(userID, id)
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (m *memoryAssignments) Set(_ context.Context, userID string, a *models.Assignment) error {
	m.c.put(userID, a.ID, *a)
	return nil
}

func (m *memoryAssignments) Delete(_ context.Context, userID, id string) error {
	return m.c.remove(userID, id)
}

type memoryExams struct {
	c *collection[models.Exam]
}

func (m *memoryExams) GetAll(_ context.Context, userID string) ([]models.Exam, error) {
	return m.c.all(userID), nil
}

func (m *memoryExams) Get(_ context.Context, userID, id string) (*models.Exam, error) {
	e, ok := m.c.get(userID, id)
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (m *memoryExams) Set(_ context.Context, userID string, e *models.Exam) error {
	m.c.put(userID, e.ID, *e)
	return nil
}

func (m *memoryExams) Delete(_ context.Context, userID, id string) error {
	return m.c.remove(userID, id)
}

// memoryCourses clones on the way in and out so callers never share the
// topics slice with the store.
type memoryCourses struct {
	c *collection[models.Course]
}

func (m *memoryCourses) GetAll(_ context.Context, userID string) ([]models.Course, error) {
	courses := m.c.all(userID)
	for i := range courses {
		courses[i] = courses[i].Clone()
	}
	return courses, nil
}

func (m *memoryCourses) Get(_ context.Context, userID, id string) (*models.Course, error) {
	c, ok := m.c.get(userID, id)
	if !ok {
		return nil, nil
	}
	c = c.Clone()
	return &c, nil
}

func (m *memoryCourses) Set(_ context.Context, userID string, c *models.Course) error {
	m.c.put(userID, c.ID, c.Clone())
	return nil
}

func (m *memoryCourses) UpdateTitle(_ context.Context, userID, id, title string) error {
	return m.c.update(userID, id, func(c *models.Course) {
		c.Title = title
	})
}

func (m *memoryCourses) UpdateTopics(_ context.Context, userID, id string, topics []models.Topic) error {
	return m.c.update(userID, id, func(c *models.Course) {
		c.Topics = append(make([]models.Topic, 0, len(topics)), topics...)
	})
}

func (m *memoryCourses) Delete(_ context.Context, userID, id string) error {
	return m.c.remove(userID, id)
}

type memoryProfiles struct {
	mu   sync.Mutex
	docs map[string]models.UserProfile
}

func (m *memoryProfiles) Get(_ context.Context, userID string) (*models.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.docs[userID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *memoryProfiles) Set(_ context.Context, p *models.UserProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.docs[p.UserID] = *p
	return nil
}

func (m *memoryProfiles) UpdateFields(_ context.Context, userID string, fields map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.docs[userID]
	if !ok {
		return ErrNotFound
	}
	for k, v := range fields {
		switch k {
		case "title":
			p.Title = v
		case "firstName":
			p.FirstName = v
		case "lastName":
			p.LastName = v
		case "studentId":
			p.StudentID = v
		case "email":
			p.Email = v
		default:
			return fmt.Errorf("unknown profile field %q", k)
		}
	}
	m.docs[userID] = p
	return nil
}

func (m *memoryProfiles) UpdateStreak(_ context.Context, userID, expected string, s models.StreakState) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.docs[userID]
	if ok && p.LastStreakUpdate != expected {
		return false, nil
	}
	if !ok {
		p = models.UserProfile{UserID: userID}
	}
	m.docs[userID] = p.WithStreak(s)
	return true, nil
}
