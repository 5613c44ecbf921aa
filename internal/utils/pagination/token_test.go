package pagination

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeMatchToken(t *testing.T) {
	feedDate := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)

	token := EncodeMatchToken(feedDate, "match-42")
	assert.NotEmpty(t, token, "Token should not be empty")

	decodedDate, decodedID, err := DecodeMatchToken(token)
	require.NoError(t, err)
	assert.Equal(t, feedDate, decodedDate)
	assert.Equal(t, "match-42", decodedID)
}

func TestEncodeMatchTokenDropsTimeOfDay(t *testing.T) {
	withClock := time.Date(2026, 3, 2, 17, 45, 0, 0, time.UTC)

	decodedDate, _, err := DecodeMatchToken(EncodeMatchToken(withClock, "m"))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), decodedDate)
}

func TestDecodeMatchTokenError(t *testing.T) {
	_, _, err := DecodeMatchToken("this is not base64!")
	assert.Error(t, err, "Should return an error for invalid base64")
	assert.Contains(t, err.Error(), "base64 decode")

	missingID := base64.URLEncoding.EncodeToString([]byte("2026-01-15"))
	_, _, err = DecodeMatchToken(missingID)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "split")

	badDate := EncodeMultiFieldToken("notadate", "m-1")
	_, _, err = DecodeMatchToken(badDate)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "feed date parse")
}

func TestEncodeMultiFieldToken(t *testing.T) {
	fields := []string{"field1", "field2", "field3"}
	token := EncodeMultiFieldToken(fields...)

	decodedFields, err := DecodeMultiFieldToken(token)
	assert.NoError(t, err, "Decoding should not return an error")
	assert.Equal(t, fields, decodedFields, "Fields should match after decode")

	singleToken := EncodeMultiFieldToken("single")
	decodedSingle, err := DecodeMultiFieldToken(singleToken)
	assert.NoError(t, err, "Decoding single field should not return an error")
	assert.Equal(t, []string{"single"}, decodedSingle, "Single field should match after decode")
}
