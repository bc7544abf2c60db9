package services

import (
	"context"
	"sync"
	"time"

	"rtckit/internal/core/domain"

	"github.com/pion/webrtc/v3"
	"github.com/stretchr/testify/mock"
)

type MockSharedFileRepository struct {
	mock.Mock
}

func (m *MockSharedFileRepository) Create(ctx context.Context, file domain.SharedFile) error {
	args := m.Called(ctx, file)
	return args.Error(0)
}

func (m *MockSharedFileRepository) GetByID(ctx context.Context, id domain.FileID) (domain.SharedFile, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.SharedFile), args.Error(1)
}

func (m *MockSharedFileRepository) ListBySession(ctx context.Context, session domain.SessionID) ([]domain.SharedFile, error) {
	args := m.Called(ctx, session)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SharedFile), args.Error(1)
}

func (m *MockSharedFileRepository) Delete(ctx context.Context, id domain.FileID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockFileShareNotifier struct {
	mock.Mock
}

func (m *MockFileShareNotifier) NotifyFileShared(ctx context.Context, file domain.SharedFile) {
	m.Called(ctx, file)
}

// recordingMetrics counts calls instead of exporting them.
type recordingMetrics struct {
	mu           sync.Mutex
	munge        map[string]int
	negotiations map[string]int
	sanitized    int
	shared       int
	chat         int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{munge: map[string]int{}, negotiations: map[string]int{}}
}

func (r *recordingMetrics) RecordMunge(result string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.munge[result]++
}

func (r *recordingMetrics) ObserveNegotiation(sdpType string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.negotiations[sdpType]++
}

func (r *recordingMetrics) RecordHTMLSanitized() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sanitized++
}

func (r *recordingMetrics) RecordFileShared() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shared++
}

func (r *recordingMetrics) ChatConnectionOpened() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chat++
}

func (r *recordingMetrics) ChatConnectionClosed() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chat--
}

// pionFactory builds peer connections with pion's default codecs.
type pionFactory struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *pionFactory) NewPeerConnection(ctx context.Context) (*webrtc.PeerConnection, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return webrtc.NewPeerConnection(webrtc.Configuration{})
}

func (f *pionFactory) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}
