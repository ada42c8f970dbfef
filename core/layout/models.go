package layout

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/somahq/soma/core"
)

// Type discriminates the layout documents driving the frontend.
type Type string

const (
	TypeBanner     Type = "banner"
	TypeFAQ        Type = "faq"
	TypeCategories Type = "categories"
)

func (t Type) IsValid() bool {
	switch t {
	case TypeBanner, TypeFAQ, TypeCategories:
		return true
	}
	return false
}

type (
	Banner struct {
		Image    core.Asset `json:"image" bson:"image"`
		Title    string     `json:"title" bson:"title"`
		SubTitle string     `json:"sub_title" bson:"sub_title"`
	}

	FAQItem struct {
		Question string `json:"question" bson:"question"`
		Answer   string `json:"answer" bson:"answer"`
	}

	Category struct {
		Title string `json:"title" bson:"title"`
	}

	Layout struct {
		ID         string     `json:"id" bson:"_id"`
		Type       Type       `json:"type" bson:"type"`
		Banner     *Banner    `json:"banner,omitempty" bson:"banner,omitempty"`
		FAQ        []FAQItem  `json:"faq,omitempty" bson:"faq,omitempty"`
		Categories []Category `json:"categories,omitempty" bson:"categories,omitempty"`
		CreatedAt  time.Time  `json:"created_at" bson:"created_at"` // UTC
		UpdatedAt  time.Time  `json:"updated_at" bson:"updated_at"` // UTC
	}
)

// NewLayout carries the per-type payload; Image is a base64 upload for
// banners.
type NewLayout struct {
	Type       Type       `json:"type" validate:"required"`
	Image      string     `json:"image"`
	Title      string     `json:"title"`
	SubTitle   string     `json:"sub_title"`
	FAQ        []FAQItem  `json:"faq"`
	Categories []Category `json:"categories"`
}

func (nl *NewLayout) Validate(validate *validator.Validate) error {
	nl.Type = Type(core.CleanString(string(nl.Type), true /* lower */))
	return validate.Struct(nl)
}
