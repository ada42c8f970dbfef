package inmemdb

import (
	"context"
	"sync"
	"time"

	"github.com/somahq/soma/core/course"
)

type CourseRepository struct {
	mu      sync.RWMutex
	courses []course.Course

	// Gets counts repository reads; lets tests assert cache hits skip the db.
	Gets int
}

var _ course.Repository = (*CourseRepository)(nil)

func NewCourseRepository(courses ...course.Course) *CourseRepository {
	return &CourseRepository{courses: courses}
}

func (repo *CourseRepository) CreateCourse(_ context.Context, crs course.Course) (course.Course, error) {
	repo.mu.Lock()
	repo.courses = append(repo.courses, crs)
	repo.mu.Unlock()
	return crs, nil
}

func (repo *CourseRepository) GetCourseByID(_ context.Context, id string) (course.Course, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	repo.Gets++
	for _, crs := range repo.courses {
		if crs.ID == id {
			return crs, nil
		}
	}
	return course.Course{}, course.ErrNotFound
}

func (repo *CourseRepository) QueryAllCourses(_ context.Context) ([]course.Course, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	repo.Gets++
	courses := make([]course.Course, 0, len(repo.courses))
	for i := len(repo.courses) - 1; i >= 0; i-- { // newest first
		courses = append(courses, repo.courses[i])
	}
	return courses, nil
}

func (repo *CourseRepository) UpdateCourse(_ context.Context, crs course.Course) (course.Course, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	for i := range repo.courses {
		if repo.courses[i].ID == crs.ID {
			repo.courses[i] = crs
			return crs, nil
		}
	}
	return course.Course{}, course.ErrNotFound
}

func (repo *CourseRepository) DeleteCourseByID(_ context.Context, id string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	for i := range repo.courses {
		if repo.courses[i].ID == id {
			repo.courses = append(repo.courses[:i], repo.courses[i+1:]...)
			return nil
		}
	}
	return course.ErrNotFound
}

func (repo *CourseRepository) CountCoursesCreatedBetween(_ context.Context, from, to time.Time) (int64, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()
	var count int64
	for _, crs := range repo.courses {
		if inRange(crs.CreatedAt, from, to) {
			count++
		}
	}
	return count, nil
}
