// Liftsync - Workout Ingestion and Cache Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

package hevy

import (
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/tomtom215/liftsync/internal/models"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// ValidateWorkout checks the struct tags on a decoded upstream workout.
func ValidateWorkout(w *models.Workout) error {
	if err := getValidator().Struct(w); err != nil {
		return fmt.Errorf("invalid workout %q: %w", w.ID, err)
	}
	return nil
}
