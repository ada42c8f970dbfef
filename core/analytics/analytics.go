// Package analytics aggregates document creation counts into monthly series
// for the admin dashboard.
package analytics

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

const months = 12

// Counter is satisfied by any repository that can count documents created in
// a time range.
type Counter func(ctx context.Context, from, to time.Time) (int64, error)

type MonthData struct {
	Month string `json:"month"`
	Count int64  `json:"count"`
}

type Service struct {
	users   Counter
	courses Counter
	orders  Counter

	nowFunc func() time.Time
}

func NewService(users, courses, orders Counter) *Service {
	return &Service{users: users, courses: courses, orders: orders, nowFunc: time.Now}
}

func (svc *Service) UsersLast12Months(ctx context.Context) ([]MonthData, error) {
	return svc.generate(ctx, svc.users)
}

func (svc *Service) CoursesLast12Months(ctx context.Context) ([]MonthData, error) {
	return svc.generate(ctx, svc.courses)
}

func (svc *Service) OrdersLast12Months(ctx context.Context) ([]MonthData, error) {
	return svc.generate(ctx, svc.orders)
}

// generate walks backwards over 28-day windows ending today, oldest first.
func (svc *Service) generate(ctx context.Context, count Counter) ([]MonthData, error) {
	now := svc.nowFunc().UTC()
	data := make([]MonthData, 0, months)
	for i := months - 1; i >= 0; i-- {
		end := now.AddDate(0, 0, -i*28)
		start := end.AddDate(0, 0, -28)
		n, err := count(ctx, start, end)
		if err != nil {
			return nil, errors.Wrap(err, "counting documents")
		}
		data = append(data, MonthData{Month: end.Format("Jan 2 2006"), Count: n})
	}
	return data, nil
}
