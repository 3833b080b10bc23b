package application

import (
	"context"
	"errors"
	"sync"
)

// ErrRunInProgress is returned when a run is requested while another is still going.
var ErrRunInProgress = errors.New("pipeline: run in progress")

// RunService runs the pipeline and publishes each result to its sinks, one run at a time.
type RunService struct {
	pipeline *Pipeline
	sinks    []ResultSink
	mu       sync.Mutex
}

// NewRunService constructs a RunService.
func NewRunService(pipeline *Pipeline, sinks ...ResultSink) (*RunService, error) {
	if pipeline == nil {
		return nil, errors.New("run service: nil pipeline")
	}
	return &RunService{pipeline: pipeline, sinks: sinks}, nil
}

// Trigger runs and publishes. A failed run publishes nothing.
func (s *RunService) Trigger(ctx context.Context) (*RunSummary, error) {
	if !s.mu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer s.mu.Unlock()

	result, err := s.pipeline.Run(ctx)
	if err != nil {
		return nil, err
	}
	summary := result.Summary()
	if err := s.pipeline.Publish(ctx, result, s.sinks...); err != nil {
		return &summary, err
	}
	return &summary, nil
}
