package gerald

import (
	"context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"regexp"
	"testing"
)

func TestGerald_CheckBirthdays(t *testing.T) {
	g, s, _ := newGerald(t, nil, defaultFiles())
	ctx := context.Background()

	// nobody's birthday
	require.NoError(t, g.CheckBirthdays(ctx, monday))
	assert.Empty(t, s.Calls("users.list"))
	assert.Empty(t, s.Texts())

	// tom & bob share a birthday, but bob isn't in the workspace
	require.NoError(t, g.CheckBirthdays(ctx, monday.AddDate(0, 0, 4)))
	calls := s.Calls("chat.postMessage")
	require.Len(t, calls, 1)
	assert.Equal(t, ":birthday: Happy birthday to <@U1>! :birthday:", calls[0].Values.Get("text"))
	assert.Equal(t, "C1", calls[0].Values.Get("channel"))
	assert.Regexp(t, regexp.MustCompile(`"image_url":"https://example.com/birthday/[0-7].gif"`), calls[0].Blocks())
}

func TestGerald_CheckBirthdays_Failure(t *testing.T) {
	g, s, _ := newGerald(t, nil, defaultFiles())
	s.SetResponse("users.list", `{"ok": false, "error": "invalid_auth"}`)
	assert.Error(t, g.CheckBirthdays(context.Background(), monday.AddDate(0, 0, 4)))

	g, _, _ = newGerald(t, nil, testFiles{})
	assert.Error(t, g.CheckBirthdays(context.Background(), monday))
}
