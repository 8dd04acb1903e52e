package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownloadTokenSignerRoundTrip(t *testing.T) {
	signer := NewDownloadTokenSigner("secret", time.Hour)
	token, expiresAt, err := signer.Generate("job-1", "financial/report.pdf")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	jobID, relPath, parsedExp, err := signer.Parse(token, false)
	require.NoError(t, err)
	assert.Equal(t, "job-1", jobID)
	assert.Equal(t, "financial/report.pdf", relPath)
	assert.WithinDuration(t, expiresAt, parsedExp, time.Second)
}

func TestDownloadTokenSignerRejectsTamperedToken(t *testing.T) {
	signer := NewDownloadTokenSigner("secret", time.Hour)
	token, _, err := signer.Generate("job-1", "file.pdf")
	require.NoError(t, err)

	_, _, _, err = signer.Parse(token+"x", false)
	require.Error(t, err)
}

func TestDownloadTokenSignerRejectsWrongSecret(t *testing.T) {
	signer := NewDownloadTokenSigner("secret", time.Hour)
	token, _, err := signer.Generate("job-1", "file.pdf")
	require.NoError(t, err)

	other := NewDownloadTokenSigner("different", time.Hour)
	_, _, _, err = other.Parse(token, false)
	require.Error(t, err)
}

func TestDownloadTokenSignerExpiry(t *testing.T) {
	signer := NewDownloadTokenSigner("secret", time.Hour)
	signer.ttl = -time.Minute
	token, _, err := signer.Generate("job-1", "file.pdf")
	require.NoError(t, err)

	_, _, _, err = signer.Parse(token, false)
	require.Error(t, err)

	jobID, relPath, _, err := signer.Parse(token, true)
	require.NoError(t, err)
	assert.Equal(t, "job-1", jobID)
	assert.Equal(t, "file.pdf", relPath)
}

func TestDownloadTokenSignerRequiresInputs(t *testing.T) {
	signer := NewDownloadTokenSigner("secret", time.Hour)
	_, _, err := signer.Generate("", "file.pdf")
	require.Error(t, err)
	_, _, err = signer.Generate("job-1", "")
	require.Error(t, err)
}
