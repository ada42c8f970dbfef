package inmemdb

import (
	"context"
	"sync"
	"time"

	"github.com/somahq/soma/core/order"
)

type OrderRepository struct {
	mu     sync.RWMutex
	orders []order.Order
}

var _ order.Repository = (*OrderRepository)(nil)

func NewOrderRepository(orders ...order.Order) *OrderRepository {
	return &OrderRepository{orders: orders}
}

func (repo *OrderRepository) CreateOrder(_ context.Context, ord order.Order) (order.Order, error) {
	repo.mu.Lock()
	repo.orders = append(repo.orders, ord)
	repo.mu.Unlock()
	return ord, nil
}

func (repo *OrderRepository) QueryAllOrders(_ context.Context) ([]order.Order, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()
	orders := make([]order.Order, 0, len(repo.orders))
	for i := len(repo.orders) - 1; i >= 0; i-- { // newest first
		orders = append(orders, repo.orders[i])
	}
	return orders, nil
}

func (repo *OrderRepository) CountOrdersCreatedBetween(_ context.Context, from, to time.Time) (int64, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()
	var count int64
	for _, ord := range repo.orders {
		if inRange(ord.CreatedAt, from, to) {
			count++
		}
	}
	return count, nil
}
