// Liftsync - Workout Ingestion and Cache Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

package store

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

// pagedScan serves fixed pages keyed by the cursor that requests them.
func pagedScan(pages map[string]Page[int], calls *int) ScanFunc[int] {
	return func(_ context.Context, cursor string) (Page[int], error) {
		*calls++
		page, ok := pages[cursor]
		if !ok {
			return Page[int]{}, errors.New("unexpected cursor " + cursor)
		}
		return page, nil
	}
}

func TestScanAll_ConcatenatesInOrder(t *testing.T) {
	t.Parallel()

	calls := 0
	got, err := ScanAll(context.Background(), pagedScan(map[string]Page[int]{
		"":   {Items: []int{3, 1}, Cursor: "p2"},
		"p2": {Items: []int{2}, Cursor: "p3"},
		"p3": {Items: []int{9, 0}},
	}, &calls))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, []int{3, 1, 2, 9, 0}) {
		t.Errorf("unexpected items %v", got)
	}
	if calls != 3 {
		t.Errorf("expected 3 scan calls, got %d", calls)
	}
}

func TestScanAll_EmptyPageWithCursorContinues(t *testing.T) {
	t.Parallel()

	calls := 0
	got, err := ScanAll(context.Background(), pagedScan(map[string]Page[int]{
		"":   {Cursor: "p2"},
		"p2": {Items: []int{7}},
	}, &calls))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, []int{7}) || calls != 2 {
		t.Errorf("got %v after %d calls", got, calls)
	}
}

func TestScanAll_CursorLoop(t *testing.T) {
	t.Parallel()

	calls := 0
	_, err := ScanAll(context.Background(), pagedScan(map[string]Page[int]{
		"":  {Items: []int{1}, Cursor: "x"},
		"x": {Items: []int{2}, Cursor: "x"},
	}, &calls))
	if !errors.Is(err, ErrCursorLoop) {
		t.Errorf("expected ErrCursorLoop, got %v", err)
	}
}

func TestScanAll_PropagatesError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	_, err := ScanAll(context.Background(), func(context.Context, string) (Page[int], error) {
		return Page[int]{}, boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("expected wrapped boom, got %v", err)
	}
}

func TestScanAll_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0
	_, err := ScanAll(ctx, pagedScan(map[string]Page[int]{"": {Items: []int{1}}}, &calls))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if calls != 0 {
		t.Errorf("expected no scan calls, got %d", calls)
	}
}
