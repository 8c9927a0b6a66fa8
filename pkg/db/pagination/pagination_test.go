package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct{ id string }

func TestCursorRoundTrip(t *testing.T) {
	token, err := EncodeCursor(Cursor{ID: "42", CreatedAt: "2024-01-02T03:04:05Z"})
	require.NoError(t, err)

	cursor, err := DecodeCursor(token)
	require.NoError(t, err)
	assert.Equal(t, "42", cursor.ID)
	assert.Equal(t, "2024-01-02T03:04:05Z", cursor.CreatedAt)

	_, err = DecodeCursor("not base64!")
	assert.Error(t, err)
}

func TestBuildCursorPageInfo(t *testing.T) {
	extract := func(r *row) string { return r.id }

	info := BuildCursorPageInfo([]*row{{"a"}, {"b"}, {"c"}}, 2, extract)
	assert.True(t, info.HasMore)
	assert.Equal(t, "b", info.NextPageToken)

	info = BuildCursorPageInfo([]*row{{"a"}}, 2, extract)
	assert.False(t, info.HasMore)
	assert.Equal(t, "a", info.NextPageToken)

	info = BuildCursorPageInfo([]*row{}, 2, extract)
	assert.False(t, info.HasMore)
	assert.Empty(t, info.NextPageToken)
}
