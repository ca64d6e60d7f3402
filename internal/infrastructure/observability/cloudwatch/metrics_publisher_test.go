package cloudwatch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"

	"github.com/dreschagin/guild-insights/internal/application/port"
	"github.com/dreschagin/guild-insights/pkg/logger"
)

type fakePutMetricData struct {
	mu       sync.Mutex
	calls    []*cloudwatch.PutMetricDataInput
	failures int
}

func (f *fakePutMetricData) PutMetricData(_ context.Context, in *cloudwatch.PutMetricDataInput, _ ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, in)
	if f.failures > 0 {
		f.failures--
		return nil, errors.New("throttled")
	}
	return &cloudwatch.PutMetricDataOutput{}, nil
}

func newTestPublisher(client putMetricDataAPI, bufferSize int) *MetricsPublisher {
	return &MetricsPublisher{
		client:            client,
		namespace:         "Test/Namespace",
		defaultDimensions: map[string]string{"Environment": "test"},
		storageResolution: 60,
		buffer:            make([]port.GuildMetric, 0, bufferSize),
		bufferSize:        bufferSize,
		logger:            logger.New("error"),
	}
}

func TestMapUnit(t *testing.T) {
	tests := []struct {
		name     string
		unit     string
		expected string
	}{
		{"percentage", "%", "Percent"},
		{"milliseconds", "ms", "Milliseconds"},
		{"seconds", "s", "Seconds"},
		{"count", "count", "Count"},
		{"unknown", "custom", "None"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := mapUnit(tt.unit)
			if string(result) != tt.expected {
				t.Errorf("mapUnit(%q) = %v, want %v", tt.unit, result, tt.expected)
			}
		})
	}
}

func TestConvertToDatum(t *testing.T) {
	p := newTestPublisher(nil, 10)

	at := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	datum := p.convertToDatum(port.GuildMetric{
		Name:      "EngagementPercentage",
		GuildID:   "g1",
		Value:     55.56,
		Unit:      "%",
		Timestamp: at,
	})

	if datum.MetricName == nil || *datum.MetricName != "EngagementPercentage" {
		t.Errorf("Expected MetricName=EngagementPercentage, got %v", datum.MetricName)
	}
	if datum.Value == nil || *datum.Value != 55.56 {
		t.Errorf("Expected Value=55.56, got %v", datum.Value)
	}
	if datum.Unit != "Percent" {
		t.Errorf("Expected Unit=Percent, got %v", datum.Unit)
	}
	if datum.Timestamp == nil || !datum.Timestamp.Equal(at) {
		t.Errorf("Expected Timestamp=%v, got %v", at, datum.Timestamp)
	}
	if datum.StorageResolution == nil || *datum.StorageResolution != 60 {
		t.Errorf("Expected StorageResolution=60, got %v", datum.StorageResolution)
	}

	expectedDimensions := map[string]string{
		"Environment": "test",
		"GuildId":     "g1",
	}
	if len(datum.Dimensions) != len(expectedDimensions) {
		t.Fatalf("Expected %d dimensions, got %d", len(expectedDimensions), len(datum.Dimensions))
	}
	for _, dim := range datum.Dimensions {
		if dim.Name == nil || dim.Value == nil {
			t.Fatal("Dimension name or value is nil")
		}
		if expectedDimensions[*dim.Name] != *dim.Value {
			t.Errorf("Dimension %s: expected %s, got %s", *dim.Name, expectedDimensions[*dim.Name], *dim.Value)
		}
	}
}

func TestPublishBatch_AutoFlushAndRetry(t *testing.T) {
	client := &fakePutMetricData{failures: 1}
	p := newTestPublisher(client, 2)

	metrics := []port.GuildMetric{
		{Name: "TotalMembers", GuildID: "g1", Value: 100, Unit: "count"},
		{Name: "ActivityScore", GuildID: "g1", Value: 100, Unit: "%"},
		{Name: "OnlineMembers", GuildID: "g1", Value: 50, Unit: "count"},
	}

	if err := p.PublishBatch(context.Background(), metrics); err != nil {
		t.Fatalf("PublishBatch() error = %v", err)
	}

	// первая попытка отклонена, вторая успешна
	if len(client.calls) != 2 {
		t.Fatalf("expected 2 PutMetricData calls, got %d", len(client.calls))
	}
	if got := len(client.calls[1].MetricData); got != 2 {
		t.Fatalf("expected 2 datums in flushed batch, got %d", got)
	}
	if p.bufferLen() != 1 {
		t.Fatalf("expected 1 buffered metric, got %d", p.bufferLen())
	}

	if err := p.Flush(context.Background()); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if p.bufferLen() != 0 {
		t.Fatal("expected empty buffer after flush")
	}
}

func TestNewMetricsPublisher_Validation(t *testing.T) {
	tests := []struct {
		name   string
		config MetricsPublisherConfig
	}{
		{"missing namespace", MetricsPublisherConfig{Region: "us-east-1"}},
		{"missing region", MetricsPublisherConfig{Namespace: "Test/Namespace"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewMetricsPublisher(context.Background(), tt.config); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}
