// File: internal/mocks/mocks.go
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/xkilldash9x/tracescore/internal/job"
)

// -- Page Session Mock --

// MockPageSession mocks a browser tab: the job.Page and job.StatusReader capabilities
// plus the navigation and lifecycle calls the orchestrator makes.
type MockPageSession struct {
	mock.Mock
}

func NewMockPageSession() *MockPageSession {
	return new(MockPageSession)
}

// ID is not recorded as a call; it returns a fixed value.
func (m *MockPageSession) ID() string { return "mock-session" }

func (m *MockPageSession) Navigate(ctx context.Context, url string) error {
	args := m.Called(ctx, url)
	return args.Error(0)
}

func (m *MockPageSession) Click(ctx context.Context, selector string) error {
	args := m.Called(ctx, selector)
	return args.Error(0)
}

func (m *MockPageSession) UploadFile(ctx context.Context, selector, path string) error {
	args := m.Called(ctx, selector, path)
	return args.Error(0)
}

func (m *MockPageSession) TextContent(ctx context.Context, selector string) (string, error) {
	args := m.Called(ctx, selector)
	return args.String(0), args.Error(1)
}

func (m *MockPageSession) Close(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// -- Reporter Mock --

// MockReporter mocks reporting.Reporter.
type MockReporter struct {
	mock.Mock
}

func (m *MockReporter) Observe(text string) error {
	args := m.Called(text)
	return args.Error(0)
}

func (m *MockReporter) Report(outcome job.Outcome) error {
	args := m.Called(outcome)
	return args.Error(0)
}
