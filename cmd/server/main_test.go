package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"spotbuddy/workout-bot/internal/config"
	"spotbuddy/workout-bot/internal/logging"
	"spotbuddy/workout-bot/internal/storage"

	"github.com/gin-gonic/gin"
	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type silentMessenger struct{}

func (silentMessenger) SendMessage(context.Context, *tgbot.SendMessageParams) (*models.Message, error) {
	return &models.Message{}, nil
}

func testConfig() config.Config {
	return config.Config{
		Database: config.DatabaseConfig{URI: config.MemoryDatabaseURI},
		App:      config.AppConfig{PublicURL: "https://buddy.example.com", DefaultTimezone: "UTC"},
	}
}

func TestOpenStorageWithoutBucket(t *testing.T) {
	store := openStorage(context.Background(), config.S3Config{}, logging.Discard())
	assert.IsType(t, storage.Disabled{}, store)
}

func TestInMemoryServerServesRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger := logging.Discard()
	cfg := testConfig()

	repos, err := openRepositories(context.Background(), cfg.Database, logger)
	require.NoError(t, err)
	defer repos.close()
	require.NotNil(t, repos.users)
	require.NotNil(t, repos.groups)
	require.NotNil(t, repos.workouts)
	require.NotNil(t, repos.exports)

	router, err := newRouter(cfg, repos, storage.Disabled{}, silentMessenger{}, "spotbuddy_bot", logger)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	body := `{"user_id":111,"group_id":-100,"mood":"good"}`
	req := httptest.NewRequest(http.MethodPost, "/api/workouts", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/groups/-100/export", nil))
	assert.Equal(t, http.StatusNotImplemented, w.Code)
}

func TestNewRouterRejectsBadDefaultTimezone(t *testing.T) {
	logger := logging.Discard()
	cfg := testConfig()
	cfg.App.DefaultTimezone = "Nowhere/Land"

	repos, err := openRepositories(context.Background(), cfg.Database, logger)
	require.NoError(t, err)

	_, err = newRouter(cfg, repos, storage.Disabled{}, silentMessenger{}, "", logger)
	assert.Error(t, err)
}
