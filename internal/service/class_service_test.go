package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edu-portal-api/internal/dto"
	"github.com/noah-isme/edu-portal-api/internal/models"
	appErrors "github.com/noah-isme/edu-portal-api/pkg/errors"
)

type memoryCacheRepo struct {
	entries     map[string][]byte
	invalidated []string
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{entries: map[string][]byte{}}
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = raw
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	m.invalidated = append(m.invalidated, pattern)
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range m.entries {
		if strings.HasPrefix(key, prefix) {
			delete(m.entries, key)
		}
	}
	return nil
}

type classRepoStub struct {
	classes map[string]*models.ClassDetail
	finds   int
	updated *models.Class
}

func (c *classRepoStub) List(ctx context.Context, filter models.ClassFilter) ([]models.ClassDetail, int, error) {
	out := make([]models.ClassDetail, 0, len(c.classes))
	for _, class := range c.classes {
		out = append(out, *class)
	}
	return out, len(out), nil
}

func (c *classRepoStub) FindByID(ctx context.Context, id string) (*models.ClassDetail, error) {
	c.finds++
	if class, ok := c.classes[id]; ok {
		copy := *class
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (c *classRepoStub) Create(ctx context.Context, class *models.Class) error {
	class.ID = "class-new"
	return nil
}

func (c *classRepoStub) Update(ctx context.Context, class *models.Class) error {
	c.updated = class
	return nil
}

func (c *classRepoStub) Deactivate(ctx context.Context, id string) error {
	if _, ok := c.classes[id]; !ok {
		return sql.ErrNoRows
	}
	return nil
}

func newClassFixture() (*ClassService, *classRepoStub, *memoryCacheRepo) {
	repo := &classRepoStub{classes: map[string]*models.ClassDetail{
		"c1": {Class: models.Class{ID: "c1", Title: "Robotics", Capacity: intPtr(10), CurrentCount: 6, IsActive: true}},
	}}
	cacheRepo := newMemoryCacheRepo()
	cacheSvc := NewCacheService(cacheRepo, NewMetricsService(), time.Minute, nil, true)
	return NewClassService(repo, cacheSvc, nil, nil), repo, cacheRepo
}

func TestClassServiceGetReadsThroughCache(t *testing.T) {
	svc, repo, _ := newClassFixture()

	class, hit, err := svc.Get(context.Background(), "c1")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, "Robotics", class.Title)

	class, hit, err = svc.Get(context.Background(), "c1")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 6, class.CurrentCount)
	assert.Equal(t, 1, repo.finds)

	svc.Invalidate(context.Background(), "c1")
	_, hit, err = svc.Get(context.Background(), "c1")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 2, repo.finds)
}

func TestClassServiceGetMissing(t *testing.T) {
	svc, _, _ := newClassFixture()
	_, _, err := svc.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestClassServiceUpdateCapacityFloor(t *testing.T) {
	svc, repo, cacheRepo := newClassFixture()

	_, err := svc.Update(context.Background(), "c1", dto.UpsertClassRequest{Title: "Robotics", Capacity: intPtr(5)})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Nil(t, repo.updated)

	class, err := svc.Update(context.Background(), "c1", dto.UpsertClassRequest{Title: "Robotics II", Capacity: intPtr(6)})
	require.NoError(t, err)
	assert.Equal(t, "Robotics II", class.Title)
	assert.Equal(t, 6, class.CurrentCount)
	assert.Contains(t, cacheRepo.invalidated, "portal:class:c1*")
	assert.Contains(t, cacheRepo.invalidated, "portal:class:list*")
}

func TestClassServiceCreateValidatesDates(t *testing.T) {
	svc, _, _ := newClassFixture()
	start := time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, -1)

	_, err := svc.Create(context.Background(), dto.UpsertClassRequest{Title: "Art", StartDate: &start, EndDate: &end})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	class, err := svc.Create(context.Background(), dto.UpsertClassRequest{Title: "Art", Price: floatPtr(15)})
	require.NoError(t, err)
	assert.True(t, class.IsActive)
	assert.Equal(t, "class-new", class.ID)
}

func TestClassServiceWithoutCache(t *testing.T) {
	repo := &classRepoStub{classes: map[string]*models.ClassDetail{"c1": {Class: models.Class{ID: "c1"}}}}
	svc := NewClassService(repo, NewCacheService(nil, nil, 0, nil, false), nil, nil)

	_, hit, err := svc.Get(context.Background(), "c1")
	require.NoError(t, err)
	assert.False(t, hit)
	require.NoError(t, svc.Deactivate(context.Background(), "c1"))

	err = svc.Deactivate(context.Background(), "missing")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
