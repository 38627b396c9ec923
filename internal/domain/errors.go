package domain

import "errors"

// ErrNotFound reports that a referenced row does not exist. Storage
// implementations translate their driver-specific not-found errors to this
// sentinel so callers can branch with errors.Is.
var ErrNotFound = errors.New("not found")

// Text-generation collaborator failure classes. The advisory composer
// degrades gracefully on all of them; the distinction matters for retry
// policy (rate limits are retried with backoff, credentials and quota are
// not) and for operator-facing warnings.
var (
	ErrTextGenAuth        = errors.New("text generation: invalid or expired credentials")
	ErrTextGenQuota       = errors.New("text generation: quota exceeded")
	ErrTextGenRateLimited = errors.New("text generation: rate limited")
	ErrTextGenUnavailable = errors.New("text generation: model unavailable")
)
