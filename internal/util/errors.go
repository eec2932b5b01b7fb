package util

import "errors"

var (
	ErrExtraction    = errors.New("pdf extraction failed")
	ErrNotPolicy     = errors.New("document does not look like an insurance policy")
	ErrDuplicateName = errors.New("a document with this name already exists")
	ErrNotFound      = errors.New("not found")
	ErrEmptyQuery    = errors.New("query is empty")
	ErrStore         = errors.New("document store failure")
	ErrUnauthorized  = errors.New("unauthorized")

	ErrInference         = errors.New("inference failed")
	ErrMalformedResponse = errors.New("model response is not valid JSON")
	ErrNoProvider        = errors.New("no inference provider configured")
	ErrQuotaExhausted    = errors.New("provider quota exhausted")
	ErrRateLimited       = errors.New("provider rate limited")
	ErrTransient         = errors.New("transient provider error")
	ErrPermanent         = errors.New("permanent provider error")
	ErrContextTooLong    = errors.New("context too long")
)
