package services

import (
	"fmt"
	"mime/multipart"
	"sync"
)

// MockS3Service is an in-memory S3Interface implementation for tests
type MockS3Service struct {
	mu sync.Mutex

	// Uploaded maps generated keys to original filenames
	Uploaded map[string]string
	// Deleted records every key passed to DeleteFile
	Deleted []string

	// UploadErr, PresignErr and DeleteErr force the corresponding call to fail
	UploadErr  error
	PresignErr error
	DeleteErr  error

	counter int
}

// NewMockS3Service creates an empty mock S3 service
func NewMockS3Service() *MockS3Service {
	return &MockS3Service{Uploaded: make(map[string]string)}
}

// UploadFile records the upload and returns a deterministic key
func (m *MockS3Service) UploadFile(fileHeader *multipart.FileHeader) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.UploadErr != nil {
		return "", m.UploadErr
	}

	m.counter++
	key := fmt.Sprintf("campus-found/mock_%d_%s", m.counter, fileHeader.Filename)
	m.Uploaded[key] = fileHeader.Filename
	return key, nil
}

// GetPresignedURL returns a fake URL for the given key
func (m *MockS3Service) GetPresignedURL(s3Key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.PresignErr != nil {
		return "", m.PresignErr
	}
	if s3Key == "" {
		return "", nil
	}
	return "https://mock-bucket.s3.amazonaws.com/" + s3Key, nil
}

// DeleteFile records the deletion
func (m *MockS3Service) DeleteFile(s3Key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	if s3Key == "" {
		return nil
	}
	delete(m.Uploaded, s3Key)
	m.Deleted = append(m.Deleted, s3Key)
	return nil
}
