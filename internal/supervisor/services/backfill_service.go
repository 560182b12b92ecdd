// Liftsync - Workout Ingestion and Cache Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

package services

import (
	"context"
	"fmt"
)

// StartStopManager is implemented by sync.Manager: Start launches the
// periodic loop and returns, Stop waits for it to finish.
type StartStopManager interface {
	Start(ctx context.Context) error
	Stop() error
}

// BackfillLoopService supervises the periodic backfill loop.
type BackfillLoopService struct {
	manager StartStopManager
	name    string
}

// NewBackfillLoopService wraps manager.
func NewBackfillLoopService(manager StartStopManager) *BackfillLoopService {
	return &BackfillLoopService{
		manager: manager,
		name:    "backfill-loop",
	}
}

// Serve starts the loop, waits for cancellation and stops it. Stop blocks
// until a scheduled run in progress has returned.
func (s *BackfillLoopService) Serve(ctx context.Context) error {
	if err := s.manager.Start(ctx); err != nil {
		return fmt.Errorf("backfill loop start failed: %w", err)
	}

	<-ctx.Done()

	if err := s.manager.Stop(); err != nil {
		return fmt.Errorf("backfill loop stop failed: %w", err)
	}
	return ctx.Err()
}

func (s *BackfillLoopService) String() string {
	return s.name
}
