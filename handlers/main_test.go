package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/mmdatafocus/tradeportal_backend/config"
	"github.com/mmdatafocus/tradeportal_backend/middlewares"
	"github.com/mmdatafocus/tradeportal_backend/models"
	"github.com/mmdatafocus/tradeportal_backend/utils"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testPassword = "secret1"

type memoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (s *memoryStore) Put(_ context.Context, objectKey string, data []byte, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[objectKey] = data
	return nil
}

func (s *memoryStore) Get(_ context.Context, objectKey string, _ int64) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[objectKey]
	if !ok {
		return nil, utils.ErrorRecordNotFound
	}
	return data, nil
}

func (s *memoryStore) Delete(_ context.Context, objectKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, objectKey)
	return nil
}

type testServer struct {
	router     *gin.Engine
	store      *memoryStore
	seedCtx    context.Context
	businessId string
}

// newTestServer wires the API over a fresh sqlite database with an owner account.
func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	t.Setenv("STORAGE_PUBLIC_BASE_URL", "")
	t.Setenv("GCS_BUCKET", "")

	dsn := "file:" + filepath.Join(t.TempDir(), "api.db") +
		"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, config.SetDB(conn))
	require.NoError(t, models.MigrateTable())
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	ctx := utils.SetUserIdInContext(context.Background(), 0)
	ctx = utils.SetUserNameInContext(ctx, "seed")
	business, err := models.CreateBusiness(ctx, &models.NewBusiness{Name: "Golden Trade"})
	require.NoError(t, err)
	ctx = utils.SetBusinessIdInContext(ctx, business.ID)
	_, err = models.CreateUser(ctx, &models.NewUser{
		Username: "owner@golden.test",
		Name:     "Owner",
		Password: testPassword,
		Role:     models.UserRoleParent,
	})
	require.NoError(t, err)

	store := &memoryStore{objects: map[string][]byte{}}
	r := gin.New()
	r.Use(middlewares.AuthMiddleware())
	r.Use(middlewares.SessionMiddleware())
	r.Use(middlewares.LoaderMiddleware())
	Register(r, func() (utils.ObjectStore, error) { return store, nil })

	return &testServer{router: r, store: store, seedCtx: ctx, businessId: business.ID}
}

func (s *testServer) addUser(t *testing.T, input *models.NewUser) {
	t.Helper()
	input.Password = testPassword
	_, err := models.CreateUser(s.seedCtx, input)
	require.NoError(t, err)
}

func (s *testServer) login(t *testing.T, username string) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/auth/login", "", map[string]string{"username": username, "password": testPassword})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var info models.LoginInfo
	decodeData(t, rec, &info)
	require.NotEmpty(t, info.AccessToken)
	return info.AccessToken
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	var envelope struct {
		Data  json.RawMessage `json:"data"`
		Error string          `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	if envelope.Error != "" {
		require.Fail(t, "unexpected error response", envelope.Error)
	}
	require.NoError(t, json.Unmarshal(envelope.Data, dest))
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var envelope struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope.Error
}

var errStoreDown = errors.New("storage is not configured")
