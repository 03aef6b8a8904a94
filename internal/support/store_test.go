package support

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/replikanti/flowlint-tools/pkg/models"
)

func TestFileStoreAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tickets", "support-requests.jsonl")
	store := NewFileStore(path)
	ctx := context.Background()

	received := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for _, title := range []string{"first", "second"} {
		err := store.Append(ctx, StoredTicket{
			SupportTicket: models.SupportTicket{
				Name:        "Jan",
				Email:       "jan@example.com",
				Project:     "cli",
				Type:        "bug",
				Title:       title,
				Description: "d",
			},
			ReceivedAt: received,
			Status:     "new",
		})
		require.NoError(t, err)
	}

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var lines []StoredTicket
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var rec StoredTicket
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec))
		lines = append(lines, rec)
	}
	require.NoError(t, scanner.Err())

	require.Len(t, lines, 2, "one JSON record per line")
	assert.Equal(t, "first", lines[0].Title)
	assert.Equal(t, "second", lines[1].Title)
	assert.Equal(t, "new", lines[0].Status)
	assert.True(t, lines[0].ReceivedAt.Equal(received))
}
