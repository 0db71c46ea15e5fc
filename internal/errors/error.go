// Package errors provides custom error types for product-related operations.
package errors

import "errors"

var ErrProductNotFound = errors.New("product not found")
var ErrValidation = errors.New("validation failed")
var ErrInsufficientStock = errors.New("insufficient stock")
var ErrPersistence = errors.New("persistence failure")
var ErrComputation = errors.New("computation over malformed data")
