package privacy

import (
	"testing"

	"dmr/internal/structures"
	"dmr/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedactor(t *testing.T, patterns ...structures.PatternConfig) *Redactor {
	t.Helper()
	conf := &structures.Config{
		Privacy: structures.PrivacyConfig{Patterns: patterns},
	}
	r, err := NewRedactor(conf, testutil.NewMockCache(), &testutil.MockLogger{})
	require.NoError(t, err)
	return r
}

func TestRedact_DefaultCategories(t *testing.T) {
	r := newTestRedactor(t)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"email", "contact me at john.doe+test@example.co.uk today", "contact me at [EMAIL REDACTED] today"},
		{"email case-insensitive", "JOHN@EXAMPLE.COM", "[EMAIL REDACTED]"},
		{"phone dashed", "call 555-123-4567", "call [PHONE REDACTED]"},
		{"phone dotted", "call 555.123.4567", "call [PHONE REDACTED]"},
		{"phone bare", "call 5551234567", "call [PHONE REDACTED]"},
		{"ssn", "ssn is 123-45-6789", "ssn is [SSN REDACTED]"},
		{"ip", "server at 192.168.1.100 is down", "server at [IP REDACTED] is down"},
		{"credit card dashed", "card 4111-1111-1111-1111 expired", "card [CREDIT CARD REDACTED] expired"},
		{"credit card spaced", "card 4111 1111 1111 1111 expired", "card [CREDIT CARD REDACTED] expired"},
		{"clean text unchanged", "nothing sensitive here", "nothing sensitive here"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Redact(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRedact_MultipleCategoriesInOneMessage(t *testing.T) {
	r := newTestRedactor(t)

	got, err := r.Redact("mail a@b.io or ping 10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, "mail [EMAIL REDACTED] or ping [IP REDACTED]", got)
}

func TestRedact_Deterministic(t *testing.T) {
	r := newTestRedactor(t)

	in := "reach me at jane@example.com or 555-123-4567"
	first, err := r.Redact(in)
	require.NoError(t, err)
	second, err := r.Redact(in)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// Redaction is idempotent: already-redacted text passes through.
	again, err := r.Redact(first)
	require.NoError(t, err)
	assert.Equal(t, first, again)
}

func TestRedact_NoResidualMatches(t *testing.T) {
	r := newTestRedactor(t)

	out, err := r.Redact("a@b.co c@d.io 555-123-4567 10.0.0.1 999-88-7777")
	require.NoError(t, err)
	for _, p := range DefaultPatterns() {
		assert.False(t, p.matches(out), "residual %s match in %q", p.Name, out)
	}
}

func TestRedact_EmptyString(t *testing.T) {
	r := newTestRedactor(t)
	got, err := r.Redact("")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRedact_InvalidUTF8FailsClosed(t *testing.T) {
	r := newTestRedactor(t)
	_, err := r.Redact(string([]byte{0xff, 0xfe}))
	var re *RedactionError
	require.ErrorAs(t, err, &re)
	assert.Contains(t, re.Reason, "UTF-8")
}

func TestRedact_CustomPatternAppended(t *testing.T) {
	r := newTestRedactor(t, structures.PatternConfig{
		Name:        "badge",
		Regex:       `EMP-\d{5}`,
		Placeholder: "[BADGE REDACTED]",
	})

	got, err := r.Redact("badge emp-12345 and mail a@b.co")
	require.NoError(t, err)
	assert.Equal(t, "badge [BADGE REDACTED] and mail [EMAIL REDACTED]", got)
}

func TestRedact_InvalidCustomPatternRejected(t *testing.T) {
	conf := &structures.Config{
		Privacy: structures.PrivacyConfig{
			Patterns: []structures.PatternConfig{{Name: "bad", Regex: "(", Placeholder: "[X]"}},
		},
	}
	_, err := NewRedactor(conf, testutil.NewMockCache(), &testutil.MockLogger{})
	assert.Error(t, err)
}

func TestRedact_UsesCache(t *testing.T) {
	cache := testutil.NewMockCache()
	conf := &structures.Config{}
	r, err := NewRedactor(conf, cache, &testutil.MockLogger{})
	require.NoError(t, err)

	_, err = r.Redact("mail a@b.co")
	require.NoError(t, err)
	require.Len(t, cache.Data, 1)

	// A poisoned cache entry is returned as-is, proving the memo is hit.
	for k := range cache.Data {
		cache.Data[k] = []byte("memoized")
	}
	got, err := r.Redact("mail a@b.co")
	require.NoError(t, err)
	assert.Equal(t, "memoized", got)
}
