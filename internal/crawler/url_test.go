package crawler

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDeriveURL_AbsoluteStripsQuery(t *testing.T) {
	t.Parallel()

	item := Item{"url": "https://www.1111.com.tw/job/12345?utm_source=feed&ref=home"}
	got, err := DeriveURL(Platform1111, item)
	require.NoError(t, err)
	require.Equal(t, "https://www.1111.com.tw/job/12345", got)
}

func TestDeriveURL_NestedLinkJob(t *testing.T) {
	t.Parallel()

	item := Item{"link": map[string]any{"job": "https://www.104.com.tw/job/abc123?jobsource=list"}}
	got, err := DeriveURL(Platform104, item)
	require.NoError(t, err)
	require.Equal(t, "https://www.104.com.tw/job/abc123", got)
}

func TestDeriveURL_RelativeJoinsPlatformBase(t *testing.T) {
	t.Parallel()

	item := Item{"href": "/companies/acme/jobs/42"}
	got, err := DeriveURL(PlatformCakeresume, item)
	require.NoError(t, err)
	require.Equal(t, "https://www.cakeresume.com/companies/acme/jobs/42", got)
}

func TestDeriveURL_RelativeStripsQueryByDefault(t *testing.T) {
	t.Parallel()

	item := Item{"href": "/companies/acme/jobs/42?page=3"}
	got, err := DeriveURL(PlatformCakeresume, item)
	require.NoError(t, err)
	require.Equal(t, "https://www.cakeresume.com/companies/acme/jobs/42", got)
}

func TestDeriveURL_Yes123KeepsQueryString(t *testing.T) {
	t.Parallel()

	// yes123 addresses jobs through query parameters; stripping them would
	// make the URL underivable later.
	item := Item{"href": "job.asp?p_id=123456"}
	got, err := DeriveURL(PlatformYes123, item)
	require.NoError(t, err)
	require.Equal(t, "https://www.yes123.com.tw/wk_index/job.asp?p_id=123456", got)
}

func TestDeriveURL_NoCandidate(t *testing.T) {
	t.Parallel()

	_, err := DeriveURL(Platform104, Item{"title": "backend engineer"})
	require.ErrorIs(t, err, ErrNoURL)
}

func TestDeriveURL_RelativeWithoutBase(t *testing.T) {
	t.Parallel()

	// 104 has no registered base: all its listing URLs arrive absolute.
	_, err := DeriveURL(Platform104, Item{"href": "/job/abc123"})
	require.ErrorIs(t, err, ErrNoURL)
}

func TestStripQuery(t *testing.T) {
	t.Parallel()

	got, err := StripQuery("https://example.com/path?a=1&b=2")
	require.NoError(t, err)
	require.Equal(t, "https://example.com/path", got)
}
