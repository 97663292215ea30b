package integration

import (
	"context"
	"log"
	"os"
	"testing"

	"study-assistant-be/internal/model"
	"study-assistant-be/internal/repository/unitofwork"
	"study-assistant-be/internal/service"
	"study-assistant-be/pkg/database"
	"study-assistant-be/pkg/rag/registry"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	if err := godotenv.Load("../../.env"); err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	db, err := database.NewGormDB(database.Options{DSN: dsn})
	require.NoError(t, err)
	t.Cleanup(func() { database.Close(db) })

	require.NoError(t, db.Exec(`CREATE EXTENSION IF NOT EXISTS vector;`).Error)
	require.NoError(t, db.AutoMigrate(&model.Assistant{}, &model.AssistantDocument{}, &model.AssistantFragment{}))
	return db
}

func TestCatalog_RoundTrip(t *testing.T) {
	db := openDB(t)
	catalog := service.NewCatalogService(unitofwork.NewRepositoryFactory(db))
	ctx := context.Background()
	name := "it-" + uuid.NewString()[:8]
	t.Cleanup(func() { _ = catalog.DeleteAssistant(ctx, name) })

	require.NoError(t, catalog.UpsertAssistant(ctx, name, registry.StatusPending))
	require.NoError(t, catalog.PutDocuments(ctx, name, []registry.DocumentRecord{
		{Filename: "a.txt", FileType: "txt", SizeBytes: 3, Checksum: "abc", StoragePath: "docs/" + name + "/a.txt"},
		{Filename: "b.md", FileType: "md", SizeBytes: 5, Checksum: "def", StoragePath: "docs/" + name + "/b.md"},
	}))
	require.NoError(t, catalog.SetStatus(ctx, name, registry.StatusReady))

	rec, err := catalog.GetAssistant(ctx, name)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, registry.StatusReady, rec.Status)
	assert.Equal(t, 2, rec.Documents)

	// upsert keeps one row per (assistant, filename)
	require.NoError(t, catalog.PutDocuments(ctx, name, []registry.DocumentRecord{
		{Filename: "a.txt", FileType: "txt", SizeBytes: 7, Checksum: "xyz", StoragePath: "docs/" + name + "/a.txt"},
	}))
	docs, err := catalog.ListDocuments(ctx, name)
	require.NoError(t, err)
	require.Len(t, docs, 2)

	require.NoError(t, catalog.DeleteDocument(ctx, name, "a.txt"))
	require.NoError(t, catalog.DeleteDocument(ctx, name, "a.txt"))
	require.NoError(t, catalog.DeleteAssistant(ctx, name))

	rec, err = catalog.GetAssistant(ctx, name)
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestFragments_TableReachable(t *testing.T) {
	db := openDB(t)
	uow := unitofwork.NewRepositoryFactory(db).NewUnitOfWork(context.Background())

	_, err := uow.AssistantFragmentRepository().Count(context.Background())
	assert.NoError(t, err)
}
