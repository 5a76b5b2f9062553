package repository

import (
	"bytes"
	"context"
	"log"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parisxmas/icpform/internal/db"
	"github.com/parisxmas/icpform/internal/models"
	"github.com/parisxmas/icpform/internal/testutil"
)

func TestSubmissionRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := db.NewMemoryStore()
	repo := NewSubmissionRepo(store, "")
	require.NoError(t, repo.EnsureIndexes(ctx))

	created := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	sub := &models.StoredProfile{Profile: testutil.ValidProfile(), CreatedAt: created}
	id, err := repo.Create(ctx, sub)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, err := repo.FindByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, testutil.ValidProfile(), got.Profile)
	assert.True(t, created.Equal(got.CreatedAt))

	missing, err := repo.FindByID(ctx, "999")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestStoredDocumentShape(t *testing.T) {
	ctx := context.Background()
	store := db.NewMemoryStore()
	repo := NewSubmissionRepo(store, "forms")

	_, err := repo.Create(ctx, &models.StoredProfile{Profile: testutil.ValidProfile(), CreatedAt: time.Now()})
	require.NoError(t, err)

	docs, err := store.Find(ctx, "forms", nil, db.FindOptions{})
	require.NoError(t, err)
	require.Len(t, docs, 1)

	// 22 questionnaire fields, createdAt and the store id.
	assert.Len(t, docs[0], 24)
	assert.Contains(t, docs[0], "companyName")
	assert.Contains(t, docs[0], "createdAt")
	assert.Contains(t, docs[0], "_id")
}

func TestListNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := NewSubmissionRepo(db.NewMemoryStore(), "")
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	// Insert out of chronological order.
	for _, offset := range []int{3, 1, 4, 0, 2} {
		p := testutil.ValidProfile()
		p.CompanyName = string(rune('A' + offset))
		_, err := repo.Create(ctx, &models.StoredProfile{Profile: p, CreatedAt: base.Add(time.Duration(offset) * time.Hour)})
		require.NoError(t, err)
	}

	subs, total, err := repo.List(ctx, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	var names []string
	for _, s := range subs {
		names = append(names, s.CompanyName)
	}
	assert.Equal(t, []string{"E", "D", "C", "B", "A"}, names)

	subs, _, err = repo.List(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, "C", subs[0].CompanyName)
}

func TestListSkipsUnreadableDocument(t *testing.T) {
	ctx := context.Background()
	store := db.NewMemoryStore()
	repo := NewSubmissionRepo(store, "")
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := repo.Create(ctx, &models.StoredProfile{Profile: testutil.ValidProfile(), CreatedAt: base})
	require.NoError(t, err)
	badID, err := store.Insert(ctx, DefaultSubmissionsCollection, map[string]any{
		"companyName": "Broken",
		"ageGroups":   5,
		"createdAt":   base.Add(time.Hour),
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	subs, total, err := repo.List(ctx, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, subs, 1)
	assert.Equal(t, testutil.ValidProfile().CompanyName, subs[0].CompanyName)
	assert.Contains(t, buf.String(), "Warning: skipping unreadable submission "+badID)
}

func TestUserRepo(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepo(db.NewMemoryStore())
	require.NoError(t, repo.EnsureIndexes(ctx))

	id, err := repo.Create(ctx, &models.User{Email: "admin@icp.local", PasswordHash: "h", Name: "Admin", Role: "admin"})
	require.NoError(t, err)

	u, err := repo.FindByEmail(ctx, "admin@icp.local")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, id, u.ID)
	assert.Equal(t, "admin", u.Role)

	_, err = repo.Create(ctx, &models.User{Email: "admin@icp.local"})
	assert.Error(t, err)

	none, err := repo.FindByEmail(ctx, "nobody@icp.local")
	require.NoError(t, err)
	assert.Nil(t, none)
}
