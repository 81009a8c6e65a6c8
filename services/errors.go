package services

import "errors"

// Stable failure kinds for the analysis and recipe pipelines. Every pipeline
// stage returns one of these (possibly wrapped); the controllers map them to
// HTTP statuses and user-facing messages. Nothing in this package panics
// across a component boundary.
var (
	// ErrInvalidInput means the request payload itself is unusable
	// (missing image, undecodable bytes).
	ErrInvalidInput = errors.New("invalid input")

	// ErrDecodeFailed means the image was readable but contained no
	// supported barcode. A normal outcome for blurry photos.
	ErrDecodeFailed = errors.New("unable to decode barcode")

	// ErrProductNotFound covers catalog misses, incomplete product data
	// and upstream catalog failures alike.
	ErrProductNotFound = errors.New("product not found")

	// ErrGenerationFailed means the AI call failed or its reply could not
	// be parsed into the expected structure. Never partial results.
	ErrGenerationFailed = errors.New("analysis generation failed")

	// ErrNotFound means a referenced entity (user, product row) is absent.
	ErrNotFound = errors.New("not found")
)
