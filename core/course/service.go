package course

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/somahq/soma/core"
	"github.com/somahq/soma/core/user"
)

var (
	ErrNotFound         = errors.New("course not found")
	ErrContentNotFound  = errors.New("course content not found")
	ErrQuestionNotFound = errors.New("question not found")
	ErrReviewNotFound   = errors.New("review not found")
	ErrNotEligible      = errors.New("you are not eligible to access this course")
)

const allCoursesKey = "courses:all"

func courseKey(id string) string { return fmt.Sprintf("course:%s", id) }

type (
	Repository interface {
		CreateCourse(ctx context.Context, crs Course) (Course, error)
		GetCourseByID(ctx context.Context, id string) (Course, error)
		QueryAllCourses(ctx context.Context) ([]Course, error)
		UpdateCourse(ctx context.Context, crs Course) (Course, error)
		DeleteCourseByID(ctx context.Context, id string) error
		CountCoursesCreatedBetween(ctx context.Context, from, to time.Time) (int64, error)
	}

	Service struct {
		repo     Repository
		cache    core.Cache
		mediaSvc core.MediaService
		logger   core.Logger
		conf     *core.Config
	}
)

func NewService(repo Repository, cache core.Cache, mediaSvc core.MediaService, logger core.Logger, conf *core.Config) *Service {
	return &Service{repo: repo, cache: cache, mediaSvc: mediaSvc, logger: logger, conf: conf}
}

// GetPublic returns the projected catalog view of a course, cache first.
func (svc *Service) GetPublic(ctx context.Context, id string) (Course, error) {
	key := courseKey(id)
	if data, err := svc.cache.Get(ctx, key); err == nil {
		var crs Course
		if err := json.Unmarshal(data, &crs); err == nil {
			return crs, nil
		}
		// corrupt entry; fall through to the database
	} else if !errors.Is(err, core.ErrCacheMiss) {
		return Course{}, errors.Wrap(err, "getting cached course")
	}

	crs, err := svc.repo.GetCourseByID(ctx, id)
	if err != nil {
		return Course{}, errors.Wrap(err, "finding course by ID")
	}
	pub := crs.PublicView()
	svc.fillCache(ctx, key, pub)
	return pub, nil
}

// QueryAllPublic returns the projected catalog, cache first.
func (svc *Service) QueryAllPublic(ctx context.Context) ([]Course, error) {
	if data, err := svc.cache.Get(ctx, allCoursesKey); err == nil {
		var courses []Course
		if err := json.Unmarshal(data, &courses); err == nil {
			return courses, nil
		}
	} else if !errors.Is(err, core.ErrCacheMiss) {
		return nil, errors.Wrap(err, "getting cached courses")
	}

	all, err := svc.repo.QueryAllCourses(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	courses := make([]Course, len(all))
	for i, crs := range all {
		courses[i] = crs.PublicView()
	}
	svc.fillCache(ctx, allCoursesKey, courses)
	return courses, nil
}

func (svc *Service) fillCache(ctx context.Context, key string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		svc.logger.Error(fmt.Sprintf("marshalling course cache entry %s: %v", key, err), err)
		return
	}
	if err := svc.cache.Set(ctx, key, data, svc.conf.CourseCacheExpirationDelta); err != nil {
		svc.logger.Error(fmt.Sprintf("caching %s: %v", key, err), err)
	}
}

// invalidate drops the cached entries for a course; every mutating operation
// must call it before returning.
func (svc *Service) invalidate(ctx context.Context, id string) error {
	return errors.Wrap(svc.cache.Delete(ctx, courseKey(id), allCoursesKey), "invalidating course cache")
}

// GetContent returns the full course material; the user must own the course.
func (svc *Service) GetContent(ctx context.Context, usr user.User, id string) ([]Content, error) {
	if !usr.OwnsCourse(id) {
		return nil, ErrNotEligible
	}
	crs, err := svc.repo.GetCourseByID(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, "finding course by ID")
	}
	return crs.Contents, nil
}

func (svc *Service) GetByID(ctx context.Context, id string) (Course, error) {
	return svc.repo.GetCourseByID(ctx, id)
}

func (svc *Service) QueryAll(ctx context.Context) ([]Course, error) {
	return svc.repo.QueryAllCourses(ctx)
}

func (svc *Service) Create(ctx context.Context, nc NewCourse) (Course, error) {
	now := time.Now().UTC()
	crs := Course{
		ID:             uuid.NewString(),
		Name:           nc.Name,
		Description:    nc.Description,
		Categories:     nc.Categories,
		Price:          nc.Price,
		EstimatedPrice: nc.EstimatedPrice,
		Tags:           nc.Tags,
		Level:          nc.Level,
		DemoURL:        nc.DemoURL,
		Benefits:       nc.Benefits,
		Prerequisites:  nc.Prerequisites,
		Contents:       nc.Contents,
		Reviews:        []Review{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	for i := range crs.Contents {
		if crs.Contents[i].ID == "" {
			crs.Contents[i].ID = uuid.NewString()
		}
	}

	if nc.Thumbnail != "" {
		asset, err := svc.mediaSvc.Upload(ctx, "courses", nc.Thumbnail)
		if err != nil {
			return Course{}, errors.Wrap(err, "uploading thumbnail")
		}
		crs.Thumbnail = asset
	}

	crs, err := svc.repo.CreateCourse(ctx, crs)
	if err != nil {
		return Course{}, errors.Wrap(err, "creating course")
	}
	return crs, svc.invalidate(ctx, crs.ID)
}

func (svc *Service) Edit(ctx context.Context, id string, ec EditCourse) (Course, error) {
	crs, err := svc.repo.GetCourseByID(ctx, id)
	if err != nil {
		return Course{}, errors.Wrap(err, "finding course by ID")
	}

	if ec.Thumbnail != "" {
		if crs.Thumbnail.PublicID != "" {
			if err := svc.mediaSvc.Destroy(ctx, crs.Thumbnail.PublicID); err != nil {
				return Course{}, errors.Wrap(err, "destroying old thumbnail")
			}
		}
		asset, err := svc.mediaSvc.Upload(ctx, "courses", ec.Thumbnail)
		if err != nil {
			return Course{}, errors.Wrap(err, "uploading thumbnail")
		}
		crs.Thumbnail = asset
	}

	if ec.Name != "" {
		crs.Name = ec.Name
	}
	if ec.Description != "" {
		crs.Description = ec.Description
	}
	if ec.Categories != "" {
		crs.Categories = ec.Categories
	}
	if ec.Price != 0 {
		crs.Price = ec.Price
	}
	if ec.EstimatedPrice != 0 {
		crs.EstimatedPrice = ec.EstimatedPrice
	}
	if ec.Tags != "" {
		crs.Tags = ec.Tags
	}
	if ec.Level != "" {
		crs.Level = ec.Level
	}
	if ec.DemoURL != "" {
		crs.DemoURL = ec.DemoURL
	}
	if ec.Benefits != nil {
		crs.Benefits = ec.Benefits
	}
	if ec.Prerequisites != nil {
		crs.Prerequisites = ec.Prerequisites
	}
	if ec.Contents != nil {
		crs.Contents = ec.Contents
		for i := range crs.Contents {
			if crs.Contents[i].ID == "" {
				crs.Contents[i].ID = uuid.NewString()
			}
		}
	}
	return svc.saveAndInvalidate(ctx, crs)
}

// AddQuestion appends a question to a content section.
func (svc *Service) AddQuestion(ctx context.Context, usr user.User, aq AddQuestion) (Course, Question, error) {
	crs, err := svc.repo.GetCourseByID(ctx, aq.CourseID)
	if err != nil {
		return Course{}, Question{}, errors.Wrap(err, "finding course by ID")
	}
	content := crs.findContent(aq.ContentID)
	if content == nil {
		return Course{}, Question{}, ErrContentNotFound
	}

	q := Question{
		ID:        uuid.NewString(),
		User:      commenter(usr),
		Question:  aq.Question,
		Replies:   []Reply{},
		CreatedAt: time.Now().UTC(),
	}
	content.Questions = append(content.Questions, q)

	crs, err = svc.saveAndInvalidate(ctx, crs)
	return crs, q, err
}

// AddAnswer appends a reply to an existing question and returns the question
// so callers can notify its author.
func (svc *Service) AddAnswer(ctx context.Context, usr user.User, aa AddAnswer) (Course, Question, error) {
	crs, err := svc.repo.GetCourseByID(ctx, aa.CourseID)
	if err != nil {
		return Course{}, Question{}, errors.Wrap(err, "finding course by ID")
	}
	if crs.findContent(aa.ContentID) == nil {
		return Course{}, Question{}, ErrContentNotFound
	}
	q := crs.findQuestion(aa.ContentID, aa.QuestionID)
	if q == nil {
		return Course{}, Question{}, ErrQuestionNotFound
	}

	q.Replies = append(q.Replies, Reply{
		ID:        uuid.NewString(),
		User:      commenter(usr),
		Answer:    aa.Answer,
		CreatedAt: time.Now().UTC(),
	})
	question := *q

	crs, err = svc.saveAndInvalidate(ctx, crs)
	return crs, question, err
}

// AddReview appends a review from a course owner and refreshes the average
// rating.
func (svc *Service) AddReview(ctx context.Context, usr user.User, courseID string, ar AddReview) (Course, error) {
	if !usr.OwnsCourse(courseID) {
		return Course{}, ErrNotEligible
	}
	crs, err := svc.repo.GetCourseByID(ctx, courseID)
	if err != nil {
		return Course{}, errors.Wrap(err, "finding course by ID")
	}

	crs.Reviews = append(crs.Reviews, Review{
		ID:        uuid.NewString(),
		User:      commenter(usr),
		Rating:    ar.Rating,
		Comment:   ar.Comment,
		Replies:   []Reply{},
		CreatedAt: time.Now().UTC(),
	})
	crs.recalcRatings()
	return svc.saveAndInvalidate(ctx, crs)
}

func (svc *Service) AddReviewReply(ctx context.Context, usr user.User, rr AddReviewReply) (Course, error) {
	crs, err := svc.repo.GetCourseByID(ctx, rr.CourseID)
	if err != nil {
		return Course{}, errors.Wrap(err, "finding course by ID")
	}
	review := crs.findReview(rr.ReviewID)
	if review == nil {
		return Course{}, ErrReviewNotFound
	}

	review.Replies = append(review.Replies, Reply{
		ID:        uuid.NewString(),
		User:      commenter(usr),
		Answer:    rr.Comment,
		CreatedAt: time.Now().UTC(),
	})
	return svc.saveAndInvalidate(ctx, crs)
}

// IncrementPurchased bumps the purchase counter; called on order creation.
func (svc *Service) IncrementPurchased(ctx context.Context, id string) (Course, error) {
	crs, err := svc.repo.GetCourseByID(ctx, id)
	if err != nil {
		return Course{}, errors.Wrap(err, "finding course by ID")
	}
	crs.Purchased++
	return svc.saveAndInvalidate(ctx, crs)
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	crs, err := svc.repo.GetCourseByID(ctx, id)
	if err != nil {
		return errors.Wrap(err, "finding course by ID")
	}
	if err := svc.repo.DeleteCourseByID(ctx, id); err != nil {
		return errors.Wrap(err, "deleting course")
	}
	if crs.Thumbnail.PublicID != "" {
		if err := svc.mediaSvc.Destroy(ctx, crs.Thumbnail.PublicID); err != nil {
			svc.logger.Error(fmt.Sprintf("destroying thumbnail of deleted course %s: %v", id, err), err)
		}
	}
	return svc.invalidate(ctx, id)
}

func (svc *Service) saveAndInvalidate(ctx context.Context, crs Course) (Course, error) {
	crs.UpdatedAt = time.Now().UTC()
	crs, err := svc.repo.UpdateCourse(ctx, crs)
	if err != nil {
		return Course{}, errors.Wrap(err, "updating course")
	}
	return crs, svc.invalidate(ctx, crs.ID)
}
