// Package privacy applies the two mandatory redaction passes to every
// message before it may be persisted: opt-out filtering first, then PII
// pattern redaction. Failures fail closed — content is withheld, never
// persisted raw.
package privacy

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"unicode/utf8"

	"dmr/internal/providers"
	"dmr/internal/structures"
)

// RedactionError marks content that could not be safely scanned. The
// affected message is withheld from persistence.
type RedactionError struct {
	Reason string
}

func (e *RedactionError) Error() string {
	return fmt.Sprintf("redaction failed: %s", e.Reason)
}

type Redactor struct {
	patterns []Pattern
	cache    providers.CacheProviderInterface
	logger   providers.Logger
}

func NewRedactor(conf *structures.Config, cache providers.CacheProviderInterface, logger providers.Logger) (*Redactor, error) {
	patterns := DefaultPatterns()
	for _, pc := range conf.Privacy.Patterns {
		p, err := NewPattern(pc.Name, pc.Regex, pc.Placeholder)
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, p)
	}

	logger.Infof(providers.TypePrivacy, "Redactor initialized with %d patterns", len(patterns))
	return &Redactor{patterns: patterns, cache: cache, logger: logger}, nil
}

// Redact replaces every match of the configured pattern set with its
// category placeholder. Identical input always yields identical output;
// results are memoized by content hash.
func (r *Redactor) Redact(text string) (string, error) {
	if text == "" {
		return text, nil
	}
	if !utf8.ValidString(text) {
		return "", &RedactionError{Reason: "content is not valid UTF-8"}
	}

	key := cacheKey(text)
	if cached, ok := r.cache.Get(key); ok {
		return string(cached), nil
	}

	redacted := text
	for _, p := range r.patterns {
		redacted = p.apply(redacted)
	}

	// Totality check: the configured set must leave no residual match.
	for _, p := range r.patterns {
		if p.matches(redacted) {
			return "", &RedactionError{Reason: fmt.Sprintf("residual %s match after redaction", p.Name)}
		}
	}

	r.cache.Set(key, []byte(redacted))
	return redacted, nil
}

func cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return "redact:" + hex.EncodeToString(sum[:])
}
