package course

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/somahq/soma/core"
	"github.com/somahq/soma/core/user"
)

type (
	// Commenter is the denormalized author stamp on questions, replies
	// and reviews.
	Commenter struct {
		ID        string `json:"id" bson:"id"`
		Name      string `json:"name" bson:"name"`
		AvatarURL string `json:"avatar_url,omitempty" bson:"avatar_url,omitempty"`
	}

	Reply struct {
		ID        string    `json:"id" bson:"id"`
		User      Commenter `json:"user" bson:"user"`
		Answer    string    `json:"answer" bson:"answer"`
		CreatedAt time.Time `json:"created_at" bson:"created_at"`
	}

	Question struct {
		ID        string    `json:"id" bson:"id"`
		User      Commenter `json:"user" bson:"user"`
		Question  string    `json:"question" bson:"question"`
		Replies   []Reply   `json:"replies" bson:"replies"`
		CreatedAt time.Time `json:"created_at" bson:"created_at"`
	}

	Review struct {
		ID        string    `json:"id" bson:"id"`
		User      Commenter `json:"user" bson:"user"`
		Rating    float64   `json:"rating" bson:"rating"`
		Comment   string    `json:"comment" bson:"comment"`
		Replies   []Reply   `json:"replies" bson:"replies"`
		CreatedAt time.Time `json:"created_at" bson:"created_at"`
	}

	Link struct {
		Title string `json:"title" bson:"title"`
		URL   string `json:"url" bson:"url"`
	}

	// Content is a single lecture inside a course. VideoURL, Suggestion,
	// Questions and Links are the heavy fields stripped from public views.
	Content struct {
		ID           string     `json:"id" bson:"id"`
		Title        string     `json:"title" bson:"title"`
		Description  string     `json:"description" bson:"description"`
		VideoSection string     `json:"video_section" bson:"video_section"`
		VideoURL     string     `json:"video_url,omitempty" bson:"video_url,omitempty"`
		VideoLength  int        `json:"video_length" bson:"video_length"` // minutes
		VideoPlayer  string     `json:"video_player,omitempty" bson:"video_player,omitempty"`
		Suggestion   string     `json:"suggestion,omitempty" bson:"suggestion,omitempty"`
		Links        []Link     `json:"links,omitempty" bson:"links,omitempty"`
		Questions    []Question `json:"questions,omitempty" bson:"questions,omitempty"`
	}

	BulletPoint struct {
		Title string `json:"title" bson:"title"`
	}

	Course struct {
		ID             string        `json:"id" bson:"_id"`
		Name           string        `json:"name" bson:"name"`
		Description    string        `json:"description" bson:"description"`
		Categories     string        `json:"categories" bson:"categories"`
		Price          float64       `json:"price" bson:"price"`
		EstimatedPrice float64       `json:"estimated_price,omitempty" bson:"estimated_price,omitempty"`
		Thumbnail      core.Asset    `json:"thumbnail,omitempty" bson:"thumbnail,omitempty"`
		Tags           string        `json:"tags" bson:"tags"`
		Level          string        `json:"level" bson:"level"`
		DemoURL        string        `json:"demo_url" bson:"demo_url"`
		Benefits       []BulletPoint `json:"benefits" bson:"benefits"`
		Prerequisites  []BulletPoint `json:"prerequisites" bson:"prerequisites"`
		Reviews        []Review      `json:"reviews" bson:"reviews"`
		Contents       []Content     `json:"contents" bson:"contents"`
		Ratings        float64       `json:"ratings" bson:"ratings"`
		Purchased      int           `json:"purchased" bson:"purchased"`
		CreatedAt      time.Time     `json:"created_at" bson:"created_at"` // UTC
		UpdatedAt      time.Time     `json:"updated_at" bson:"updated_at"` // UTC
	}
)

// PublicView strips the heavy content sub-fields so unpurchased visitors see
// the catalog entry but not the course material.
func (c Course) PublicView() Course {
	contents := make([]Content, len(c.Contents))
	for i, ct := range c.Contents {
		ct.VideoURL = ""
		ct.Suggestion = ""
		ct.Questions = nil
		ct.Links = nil
		contents[i] = ct
	}
	c.Contents = contents
	return c
}

func (c *Course) findQuestion(contentID, questionID string) *Question {
	for i := range c.Contents {
		if c.Contents[i].ID != contentID {
			continue
		}
		for j := range c.Contents[i].Questions {
			if c.Contents[i].Questions[j].ID == questionID {
				return &c.Contents[i].Questions[j]
			}
		}
	}
	return nil
}

func (c *Course) findContent(contentID string) *Content {
	for i := range c.Contents {
		if c.Contents[i].ID == contentID {
			return &c.Contents[i]
		}
	}
	return nil
}

func (c *Course) findReview(reviewID string) *Review {
	for i := range c.Reviews {
		if c.Reviews[i].ID == reviewID {
			return &c.Reviews[i]
		}
	}
	return nil
}

// recalcRatings recomputes the average rating from all reviews.
func (c *Course) recalcRatings() {
	if len(c.Reviews) == 0 {
		c.Ratings = 0
		return
	}
	var sum float64
	for _, r := range c.Reviews {
		sum += r.Rating
	}
	c.Ratings = sum / float64(len(c.Reviews))
}

func commenter(usr user.User) Commenter {
	return Commenter{ID: usr.ID, Name: usr.Name, AvatarURL: usr.Avatar.URL}
}

// NewCourse contains information needed to create a course. Thumbnail is a
// base64 payload uploaded to the media host on creation.
type NewCourse struct {
	Name           string        `json:"name" validate:"required"`
	Description    string        `json:"description" validate:"required"`
	Categories     string        `json:"categories"`
	Price          float64       `json:"price" validate:"required,gt=0"`
	EstimatedPrice float64       `json:"estimated_price" validate:"omitempty,gt=0"`
	Thumbnail      string        `json:"thumbnail"`
	Tags           string        `json:"tags" validate:"required"`
	Level          string        `json:"level" validate:"required"`
	DemoURL        string        `json:"demo_url"`
	Benefits       []BulletPoint `json:"benefits"`
	Prerequisites  []BulletPoint `json:"prerequisites"`
	Contents       []Content     `json:"contents"`
}

func (nc *NewCourse) Validate(validate *validator.Validate) error {
	nc.Name = core.CleanString(nc.Name)
	return validate.Struct(nc)
}

// EditCourse carries a partial update; zero fields keep their current value.
type EditCourse struct {
	Name           string        `json:"name"`
	Description    string        `json:"description"`
	Categories     string        `json:"categories"`
	Price          float64       `json:"price" validate:"omitempty,gt=0"`
	EstimatedPrice float64       `json:"estimated_price" validate:"omitempty,gt=0"`
	Thumbnail      string        `json:"thumbnail"`
	Tags           string        `json:"tags"`
	Level          string        `json:"level"`
	DemoURL        string        `json:"demo_url"`
	Benefits       []BulletPoint `json:"benefits"`
	Prerequisites  []BulletPoint `json:"prerequisites"`
	Contents       []Content     `json:"contents"`
}

func (ec *EditCourse) Validate(validate *validator.Validate) error {
	ec.Name = core.CleanString(ec.Name)
	return validate.Struct(ec)
}

type AddQuestion struct {
	CourseID  string `json:"course_id" validate:"required"`
	ContentID string `json:"content_id" validate:"required"`
	Question  string `json:"question" validate:"required"`
}

func (aq AddQuestion) Validate(validate *validator.Validate) error {
	return validate.Struct(aq)
}

type AddAnswer struct {
	CourseID   string `json:"course_id" validate:"required"`
	ContentID  string `json:"content_id" validate:"required"`
	QuestionID string `json:"question_id" validate:"required"`
	Answer     string `json:"answer" validate:"required"`
}

func (aa AddAnswer) Validate(validate *validator.Validate) error {
	return validate.Struct(aa)
}

type AddReview struct {
	Rating  float64 `json:"rating" validate:"required,gte=1,lte=5"`
	Comment string  `json:"comment" validate:"required"`
}

func (ar AddReview) Validate(validate *validator.Validate) error {
	return validate.Struct(ar)
}

type AddReviewReply struct {
	CourseID string `json:"course_id" validate:"required"`
	ReviewID string `json:"review_id" validate:"required"`
	Comment  string `json:"comment" validate:"required"`
}

func (rr AddReviewReply) Validate(validate *validator.Validate) error {
	return validate.Struct(rr)
}
