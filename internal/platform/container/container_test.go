package container

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jinford/ram-engine/internal/infra/openai"
	"github.com/jinford/ram-engine/internal/platform/config"
	"github.com/jinford/ram-engine/internal/platform/database"
)

type fixedCounter struct{}

func (fixedCounter) CountTokens(text string) int { return len(text) }

func testConfig() *config.Config {
	return &config.Config{
		Database: config.DatabaseConfig{
			URL:        "postgres://postgres@db.example:5432/postgres",
			ServiceKey: "service-key",
		},
		OpenAI: config.OpenAIConfig{
			EmbeddingModel:     "text-embedding-3-small",
			EmbeddingDimension: 8,
			MaxInputTokens:     100,
		},
		NumberingLock: true,
	}
}

func TestNewContainerWithDB_WithoutAPIKey(t *testing.T) {
	cfg := testConfig()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cont, err := NewContainerWithDB(cfg, &database.Database{},
		WithContainerLogger(logger),
		WithContainerTokenCounter(fixedCounter{}),
	)
	require.NoError(t, err)

	require.NotNil(t, cont.IngestionService)
	require.NotNil(t, cont.SearchService)
	assert.Equal(t, 8, cont.IngestionService.Dimension())
	assert.Same(t, logger, cont.Logger())
	assert.Same(t, cfg, cont.Config())
	assert.NotNil(t, cont.Database())
}

func TestNewContainerWithDB_WithAPIKey(t *testing.T) {
	cfg := testConfig()
	cfg.OpenAI.APIKey = "sk-test"
	cfg.OpenAI.EmbeddingDimension = 1536

	cont, err := NewContainerWithDB(cfg, &database.Database{}, WithContainerTokenCounter(fixedCounter{}))
	require.NoError(t, err)
	assert.Equal(t, 1536, cont.IngestionService.Dimension())
}

func TestMissingKeyEmbedder(t *testing.T) {
	e := &missingKeyEmbedder{dimension: 4}

	_, err := e.Embed(context.Background(), "text")
	assert.ErrorIs(t, err, openai.ErrAPIKeyNotSet)
	assert.Equal(t, 4, e.Dimension())
}

func TestConnectionParams(t *testing.T) {
	params := ConnectionParams(testConfig())

	assert.Equal(t, "postgres://postgres@db.example:5432/postgres", params.URL)
	assert.Equal(t, "service-key", params.Password)
}

func TestNilContainer(t *testing.T) {
	var cont *ServiceContainer
	assert.NotPanics(t, cont.Close)
	assert.NotNil(t, cont.Logger())
	assert.Nil(t, cont.Database())
}
