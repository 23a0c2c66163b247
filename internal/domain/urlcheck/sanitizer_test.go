package urlcheck_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urlassay/urlassay/internal/domain/urlcheck"
)

func TestSanitize_TrackingParams(t *testing.T) {
	result := urlcheck.Sanitize(
		"https://example.com/page?utm_source=news&q=term&fbclid=abc123&lang=en",
		urlcheck.DefaultSanitizeOptions(),
	)

	assert.Equal(t, "https://example.com/page?q=term&lang=en", result.Sanitized)
	assert.True(t, result.WasModified)
	require.Len(t, result.Changes, 1)
	assert.Equal(t, urlcheck.ChangeRemovedTracking, result.Changes[0].Kind)
	assert.Equal(t, "utm_source,fbclid", result.Changes[0].Detail)
}

func TestSanitize_ExtraTrackingParams(t *testing.T) {
	opts := urlcheck.DefaultSanitizeOptions()
	opts.ExtraTrackingParams = []string{"session"}

	result := urlcheck.Sanitize("https://example.com/?session=9&q=1", opts)

	assert.Equal(t, "https://example.com/?q=1", result.Sanitized)
}

func TestSanitize_UpgradeToHTTPS(t *testing.T) {
	result := urlcheck.Sanitize("http://example.com/", urlcheck.DefaultSanitizeOptions())

	assert.Equal(t, "https://example.com/", result.Sanitized)
	require.Len(t, result.Changes, 1)
	assert.Equal(t, urlcheck.ChangeUpgradedToHTTPS, result.Changes[0].Kind)
}

func TestSanitize_StripWWW(t *testing.T) {
	result := urlcheck.Sanitize("https://www.example.com/a", urlcheck.DefaultSanitizeOptions())
	assert.Equal(t, "https://example.com/a", result.Sanitized)

	// A host that would collapse to a single label keeps its www.
	result = urlcheck.Sanitize("https://www.com/", urlcheck.DefaultSanitizeOptions())
	assert.Equal(t, "https://www.com/", result.Sanitized)
	assert.False(t, result.WasModified)
}

func TestSanitize_StripFragment(t *testing.T) {
	result := urlcheck.Sanitize("https://example.com/doc#section-2", urlcheck.DefaultSanitizeOptions())

	assert.Equal(t, "https://example.com/doc", result.Sanitized)
	require.Len(t, result.Changes, 1)
	assert.Equal(t, urlcheck.ChangeStrippedFragment, result.Changes[0].Kind)
}

func TestSanitize_NormalizeEncoding(t *testing.T) {
	t.Run("hex upper-cased", func(t *testing.T) {
		result := urlcheck.Sanitize("https://example.com/a%2fb", urlcheck.DefaultSanitizeOptions())
		assert.Equal(t, "https://example.com/a%2Fb", result.Sanitized)
	})

	t.Run("unreserved decoded", func(t *testing.T) {
		result := urlcheck.Sanitize("https://example.com/x%41y", urlcheck.DefaultSanitizeOptions())
		assert.Equal(t, "https://example.com/xAy", result.Sanitized)
	})

	t.Run("query encoding", func(t *testing.T) {
		result := urlcheck.Sanitize("https://example.com/?q=a%2fb", urlcheck.DefaultSanitizeOptions())
		assert.Equal(t, "https://example.com/?q=a%2Fb", result.Sanitized)
	})
}

func TestSanitize_NormalizeCase(t *testing.T) {
	result := urlcheck.Sanitize("HTTPS://EXAMPLE.COM/KeepCase", urlcheck.DefaultSanitizeOptions())

	assert.Equal(t, "https://example.com/KeepCase", result.Sanitized)
}

func TestSanitize_StepsIndependentlyToggleable(t *testing.T) {
	result := urlcheck.Sanitize(
		"http://www.example.com/a?utm_source=x#frag",
		urlcheck.SanitizeOptions{},
	)

	assert.Equal(t, "http://www.example.com/a?utm_source=x#frag", result.Sanitized)
	assert.False(t, result.WasModified)
	assert.Empty(t, result.Changes)
}

func TestSanitize_Idempotent(t *testing.T) {
	inputs := []string{
		"http://www.example.com/page?utm_source=a&q=1&fbclid=x#top",
		"HTTP://EXAMPLE.com/a%2fb%41?x=%2f",
		"https://example.com/",
		"https://sub.example.co.uk/a/b/c?one=1&two=2",
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			first := urlcheck.Sanitize(input, urlcheck.DefaultSanitizeOptions())
			second := urlcheck.Sanitize(first.Sanitized, urlcheck.DefaultSanitizeOptions())

			assert.Equal(t, first.Sanitized, second.Sanitized)
			assert.False(t, second.WasModified, "second pass recorded changes: %v", second.Changes)
		})
	}
}
