package mediasvc

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/somahq/soma/core"
)

type dummyService struct {
	mu     sync.Mutex
	hosted map[string]string // publicID -> folder
}

var _ core.MediaService = (*dummyService)(nil)

// NewDummyService hosts nothing; it hands out fake assets for tests.
func NewDummyService() *dummyService {
	return &dummyService{hosted: make(map[string]string)}
}

func (svc *dummyService) Upload(_ context.Context, folder, _ string) (core.Asset, error) {
	id := folder + "/" + uuid.NewString()
	svc.mu.Lock()
	svc.hosted[id] = folder
	svc.mu.Unlock()
	return core.Asset{PublicID: id, URL: "https://media.test/" + id}, nil
}

func (svc *dummyService) Destroy(_ context.Context, publicID string) error {
	svc.mu.Lock()
	delete(svc.hosted, publicID)
	svc.mu.Unlock()
	return nil
}

func (svc *dummyService) Hosted() int {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return len(svc.hosted)
}
