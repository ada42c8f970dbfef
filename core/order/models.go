package order

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// Order records a course purchase. PaymentInfo is carried opaquely from the
// payment provider.
type Order struct {
	ID          string                 `json:"id" bson:"_id"`
	CourseID    string                 `json:"course_id" bson:"course_id"`
	UserID      string                 `json:"user_id" bson:"user_id"`
	PaymentInfo map[string]interface{} `json:"payment_info,omitempty" bson:"payment_info,omitempty"`
	CreatedAt   time.Time              `json:"created_at" bson:"created_at"` // UTC
}

type NewOrder struct {
	CourseID    string                 `json:"course_id" validate:"required"`
	PaymentInfo map[string]interface{} `json:"payment_info"`
}

func (no NewOrder) Validate(validate *validator.Validate) error {
	return validate.Struct(no)
}
