package sqlite_test

import (
	"context"
	"crypto/rand"
	"fmt"
	"math"
	"math/big"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sagarc03/dirtar"
	"github.com/sagarc03/dirtar/database/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getRandomString(t *testing.T) string {
	t.Helper()
	n, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	assert.NoError(t, err, "random string")
	return fmt.Sprintf("test%x", n.Int64())
}

// setupTestRepo creates a repo with a unique table name for test isolation
func setupTestRepo(t *testing.T) dirtar.ArchiveRepo {
	t.Helper()

	ctx := context.Background()

	tableName := fmt.Sprintf("archives_%s", getRandomString(t))
	tables := dirtar.Tables{Archives: tableName}

	db, err := sqlite.Connect(ctx, ":memory:", tables)
	require.NoError(t, err, "failed to connect")
	t.Cleanup(func() { _ = db.Close() })

	err = db.Migrate(ctx)
	require.NoError(t, err, "failed to migrate")

	return db.GetRepo()
}

func newRecord(dir string, createdAt time.Time) dirtar.ArchiveRecord {
	id := uuid.New()
	return dirtar.ArchiveRecord{
		ID:          id,
		Dir:         dir,
		ScratchPath: fmt.Sprintf("/tmp/dirtar/%s-%s.tar", dir, id),
		SizeBytes:   1024,
		Entries:     3,
		CreatedAt:   createdAt,
	}
}
