package server

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Course is the minimal platform resource served behind the access token.
type Course struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	TeacherID   string    `json:"teacher_id"`
	Teacher     string    `json:"teacher"`
	CreatedAt   time.Time `json:"created_at"`
}

type courseStore struct {
	courses []Course
	lock    sync.RWMutex
}

func newCourseStore() *courseStore {
	return &courseStore{}
}

func (c *courseStore) add(course Course) Course {
	c.lock.Lock()
	defer c.lock.Unlock()
	if course.ID == "" {
		course.ID = uuid.New().String()
	}
	c.courses = append(c.courses, course)
	return course
}

func (c *courseStore) list() []Course {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return append([]Course{}, c.courses...)
}
