package store

import (
	"github.com/nishalpattan/code-review-analyzer/internal/contract"
	"github.com/nishalpattan/code-review-analyzer/schema"
	"github.com/stretchr/testify/mock"
)

// MockStoreManager is a mock implementation of StoreManager for testing.
type MockStoreManager struct {
	mock.Mock
}

var _ contract.StoreManager = &MockStoreManager{} // Compile-time check

// GetRepositoryStore implements the StoreManager interface.
func (m *MockStoreManager) GetRepositoryStore() contract.RepositoryStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.RepositoryStore)
	return store
}

// GetJobStore implements the StoreManager interface.
func (m *MockStoreManager) GetJobStore() contract.JobStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.JobStore)
	return store
}

// GetResultCache implements the StoreManager interface.
func (m *MockStoreManager) GetResultCache() contract.ResultCache {
	ret := m.Called()
	cache, _ := ret.Get(0).(contract.ResultCache)
	return cache
}

// MockRepositoryStore is a mock implementation of RepositoryStore for testing.
type MockRepositoryStore struct {
	mock.Mock
}

var _ contract.RepositoryStore = &MockRepositoryStore{} // Compile-time check

// CreateRepository implements the RepositoryStore interface.
func (m *MockRepositoryStore) CreateRepository(repo schema.Repository) (schema.Repository, error) {
	args := m.Called(repo)
	return args.Get(0).(schema.Repository), args.Error(1)
}

// GetRepository implements the RepositoryStore interface.
func (m *MockRepositoryStore) GetRepository(id int64) (schema.Repository, error) {
	args := m.Called(id)
	return args.Get(0).(schema.Repository), args.Error(1)
}

// FindRepositoryByURL implements the RepositoryStore interface.
func (m *MockRepositoryStore) FindRepositoryByURL(url string) (schema.Repository, error) {
	args := m.Called(url)
	return args.Get(0).(schema.Repository), args.Error(1)
}

// ListRepositories implements the RepositoryStore interface.
func (m *MockRepositoryStore) ListRepositories(offset, limit int) ([]schema.Repository, error) {
	args := m.Called(offset, limit)
	repos, _ := args.Get(0).([]schema.Repository)
	return repos, args.Error(1)
}

// DeleteRepository implements the RepositoryStore interface.
func (m *MockRepositoryStore) DeleteRepository(id int64) error {
	args := m.Called(id)
	return args.Error(0)
}

// Close implements the RepositoryStore interface.
func (m *MockRepositoryStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockJobStore is a mock implementation of JobStore for testing.
type MockJobStore struct {
	mock.Mock
}

var _ contract.JobStore = &MockJobStore{} // Compile-time check

// SaveJob implements the JobStore interface.
func (m *MockJobStore) SaveJob(job *schema.AnalysisJob) error {
	args := m.Called(job)
	return args.Error(0)
}

// GetJob implements the JobStore interface.
func (m *MockJobStore) GetJob(id string) (*schema.AnalysisJob, error) {
	args := m.Called(id)
	job, _ := args.Get(0).(*schema.AnalysisJob)
	return job, args.Error(1)
}

// ListJobs implements the JobStore interface.
func (m *MockJobStore) ListJobs(repoID int64, limit int) ([]*schema.AnalysisJob, error) {
	args := m.Called(repoID, limit)
	jobs, _ := args.Get(0).([]*schema.AnalysisJob)
	return jobs, args.Error(1)
}

// GetStatus implements the JobStore interface.
func (m *MockJobStore) GetStatus() (schema.StoreStatus, error) {
	args := m.Called()
	return args.Get(0).(schema.StoreStatus), args.Error(1)
}

// GetAllJobRecords implements the JobStore interface.
func (m *MockJobStore) GetAllJobRecords() ([]schema.JobRecord, error) {
	args := m.Called()
	records, _ := args.Get(0).([]schema.JobRecord)
	return records, args.Error(1)
}

// GetAllIssueRecords implements the JobStore interface.
func (m *MockJobStore) GetAllIssueRecords() ([]schema.IssueRecord, error) {
	args := m.Called()
	records, _ := args.Get(0).([]schema.IssueRecord)
	return records, args.Error(1)
}

// GetAllFileMetricsRecords implements the JobStore interface.
func (m *MockJobStore) GetAllFileMetricsRecords() ([]schema.FileMetricsRecord, error) {
	args := m.Called()
	records, _ := args.Get(0).([]schema.FileMetricsRecord)
	return records, args.Error(1)
}

// Close implements the JobStore interface.
func (m *MockJobStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockResultCache is a mock implementation of ResultCache for testing.
type MockResultCache struct {
	mock.Mock
}

var _ contract.ResultCache = &MockResultCache{} // Compile-time check

// Get implements the ResultCache interface.
func (m *MockResultCache) Get(key string) ([]byte, int, int64, error) {
	args := m.Called(key)
	data, _ := args.Get(0).([]byte)
	return data, args.Int(1), args.Get(2).(int64), args.Error(3)
}

// Set implements the ResultCache interface.
func (m *MockResultCache) Set(key string, data []byte, version int, ts int64) error {
	args := m.Called(key, data, version, ts)
	return args.Error(0)
}

// GetStatus implements the ResultCache interface.
func (m *MockResultCache) GetStatus() (schema.CacheStatus, error) {
	args := m.Called()
	return args.Get(0).(schema.CacheStatus), args.Error(1)
}

// Close implements the ResultCache interface.
func (m *MockResultCache) Close() error {
	args := m.Called()
	return args.Error(0)
}
