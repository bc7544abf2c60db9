package monitoring

import (
	"context"
	"errors"
	"testing"
	"time"

	"rtckit/internal/core/domain"
	"rtckit/internal/core/ports"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestPrometheusCollector(t *testing.T) {
	collector := NewPrometheusCollector(prometheus.NewRegistry())

	collector.RecordMunge(ports.MungeResultOK)
	collector.RecordMunge(ports.MungeResultOK)
	collector.RecordMunge(ports.MungeResultNoVideo)
	collector.RecordHTMLSanitized()
	collector.RecordFileShared()
	collector.ChatConnectionOpened()
	collector.ChatConnectionOpened()
	collector.ChatConnectionClosed()
	collector.ObserveNegotiation("offer", 20*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(collector.sdpMungeTotal.WithLabelValues(ports.MungeResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.sdpMungeTotal.WithLabelValues(ports.MungeResultNoVideo)))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.htmlSanitizedTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.sharedFilesTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.chatConnections))
	assert.Equal(t, 1, testutil.CollectAndCount(collector.sdpNegotiationDuration))
}

type failingRepo struct{}

func (failingRepo) Create(context.Context, domain.SharedFile) error { return nil }
func (failingRepo) GetByID(context.Context, domain.FileID) (domain.SharedFile, error) {
	return domain.SharedFile{}, nil
}
func (failingRepo) ListBySession(context.Context, domain.SessionID) ([]domain.SharedFile, error) {
	return nil, errors.New("store down")
}
func (failingRepo) Delete(context.Context, domain.FileID) error { return nil }

func TestHealthChecker(t *testing.T) {
	checker := NewHealthChecker()
	checker.AddCheck("always", func(ctx context.Context) (bool, error) { return true, nil }, time.Second)

	status := checker.CheckAll(context.Background())
	assert.Equal(t, StatusHealthy, status.Status)
	assert.Equal(t, StatusHealthy, status.Checks["always"])
	assert.True(t, checker.IsReady(context.Background()))

	checker.AddRepositoryCheck(failingRepo{}, time.Second)
	checker.AddCheck("flaky", func(ctx context.Context) (bool, error) { return false, nil }, 0)

	status = checker.CheckAll(context.Background())
	assert.Equal(t, StatusUnhealthy, status.Status)
	assert.Equal(t, "store down", status.Checks["shared_files"])
	assert.Equal(t, "check failed", status.Checks["flaky"])
	assert.False(t, checker.IsReady(context.Background()))
}

func TestHealthChecker_Timeout(t *testing.T) {
	checker := NewHealthChecker()
	checker.AddCheck("slow", func(ctx context.Context) (bool, error) {
		<-ctx.Done()
		return false, ctx.Err()
	}, 10*time.Millisecond)

	status := checker.CheckAll(context.Background())
	assert.Equal(t, StatusUnhealthy, status.Status)
	assert.Equal(t, context.DeadlineExceeded.Error(), status.Checks["slow"])
}
