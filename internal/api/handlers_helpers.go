// Liftsync - Workout Ingestion and Cache Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func requestValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// sanitizeLogValue strips control characters so request data cannot forge
// log lines.
func sanitizeLogValue(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7F {
			return -1
		}
		return r
	}, s)
}

// validateRequest validates a struct and returns a VALIDATION_ERROR
// APIError describing the first failed field, or nil.
//
//	req := ExerciseHistoryRequest{Name: q.Get("name"), Limit: getIntParam(r, "limit", 50)}
//	if apiErr := validateRequest(&req); apiErr != nil {
//	    respondError(w, r, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
//	    return
//	}
func validateRequest(v interface{}) *APIError {
	err := requestValidator().Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &APIError{Code: ErrCodeValidation, Message: "Invalid request"}
	}

	fe := fieldErrs[0]
	message := fmt.Sprintf("%s failed %q", strings.ToLower(fe.Field()), fe.Tag())
	if fe.Param() != "" {
		message = fmt.Sprintf("%s failed %q", strings.ToLower(fe.Field()), fe.Tag()+"="+fe.Param())
	}
	return &APIError{Code: ErrCodeValidation, Message: message}
}

// getIntParam extracts an integer query parameter with a default value
func getIntParam(r *http.Request, key string, defaultValue int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intValue
}
