package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"dm-archive-viewer/internal/cache"
	"dm-archive-viewer/internal/domain"
	"dm-archive-viewer/internal/pkg/config"
	"dm-archive-viewer/internal/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// Mock implementation for ArchiveProcessor
type mockProcessor struct {
	mock.Mock
}

func (m *mockProcessor) ProcessArchive(ctx context.Context, src ports.DataSource) ([]domain.Conversation, error) {
	args := m.Called(ctx, src)
	if res := args.Get(0); res != nil {
		return res.([]domain.Conversation), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockProcessor) LoadConversations(ctx context.Context) []domain.Conversation {
	args := m.Called(ctx)
	if res := args.Get(0); res != nil {
		return res.([]domain.Conversation)
	}
	return []domain.Conversation{}
}

func testConversations() []domain.Conversation {
	return []domain.Conversation{
		{
			ID:        "42",
			Name:      "Alice",
			AvatarURL: "avatars/alice.png",
			Messages: []domain.Message{
				{ID: "42-0", Author: "Me", Content: "hi", IsMine: true},
			},
		},
		{ID: "77", Name: "Carol", AvatarURL: "avatars/carol.png", Messages: []domain.Message{}},
	}
}

func TestServer(t *testing.T) {
	cfg := &config.Config{
		Server: config.Server{Host: "localhost", Port: 8080, MaxUploadSizeMB: 10},
	}
	mockProc := new(mockProcessor)
	taskStore := NewTaskStore()
	cacheStore := cache.NewCacheStore()

	srv, err := New(cfg, mockProc, taskStore, cacheStore)
	require.NoError(t, err)

	t.Run("Health Check", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/health", nil)
		rr := httptest.NewRecorder()
		srv.HTTPServer.Handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		var resp map[string]string
		err := json.NewDecoder(rr.Body).Decode(&resp)
		require.NoError(t, err)
		assert.Equal(t, "ok", resp["status"])
	})

	t.Run("Conversations Endpoint", func(t *testing.T) {
		mockProc.On("LoadConversations", mock.Anything).Return(testConversations()).Once()

		req := httptest.NewRequest("GET", "/api/v1/conversations", nil)
		rr := httptest.NewRecorder()
		srv.HTTPServer.Handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		var resp pagedResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		assert.Equal(t, 2, resp.Pagination.TotalItems)
		require.Len(t, resp.Data, 2)
		assert.Equal(t, "42", resp.Data[0].ID)
	})

	t.Run("Conversations Endpoint Pagination", func(t *testing.T) {
		mockProc.On("LoadConversations", mock.Anything).Return(testConversations()).Once()

		req := httptest.NewRequest("GET", "/api/v1/conversations?page=2&page_size=1", nil)
		rr := httptest.NewRecorder()
		srv.HTTPServer.Handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		var resp pagedResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		assert.Equal(t, 2, resp.Pagination.CurrentPage)
		assert.Equal(t, 2, resp.Pagination.TotalPages)
		require.Len(t, resp.Data, 1)
		assert.Equal(t, "77", resp.Data[0].ID)
	})

	t.Run("Conversation By ID", func(t *testing.T) {
		mockProc.On("LoadConversations", mock.Anything).Return(testConversations()).Once()

		req := httptest.NewRequest("GET", "/api/v1/conversations/77", nil)
		rr := httptest.NewRecorder()
		srv.HTTPServer.Handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		var conv domain.Conversation
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&conv))
		assert.Equal(t, "Carol", conv.Name)
	})

	t.Run("Conversation By ID Not Found", func(t *testing.T) {
		mockProc.On("LoadConversations", mock.Anything).Return(testConversations()).Once()

		req := httptest.NewRequest("GET", "/api/v1/conversations/999", nil)
		rr := httptest.NewRecorder()
		srv.HTTPServer.Handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("Process Endpoint", func(t *testing.T) {
		var b bytes.Buffer
		writer := multipart.NewWriter(&b)
		fw, err := writer.CreateFormFile("file", "transcript.html")
		require.NoError(t, err)
		_, err = fw.Write([]byte("<html></html>"))
		require.NoError(t, err)
		require.NoError(t, writer.Close())

		mockProc.On("ProcessArchive", mock.Anything, mock.Anything).Return(testConversations(), nil).Once()

		req := httptest.NewRequest("POST", "/api/v1/process", &b)
		req.Header.Set("Content-Type", writer.FormDataContentType())
		rr := httptest.NewRecorder()
		srv.HTTPServer.Handler.ServeHTTP(rr, req)

		require.Equal(t, http.StatusAccepted, rr.Code)
		var resp map[string]string
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		taskID := resp["task_id"]
		require.NotEmpty(t, taskID)

		// Ожидание завершения фоновой задачи
		require.Eventually(t, func() bool {
			task, err := taskStore.GetTask(taskID)
			return err == nil && task.Status == TaskStatusCompleted
		}, 2*time.Second, 10*time.Millisecond)

		// Результат доступен с пагинацией
		req = httptest.NewRequest("GET", "/api/v1/tasks/"+taskID+"/result", nil)
		rr = httptest.NewRecorder()
		srv.HTTPServer.Handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		var result pagedResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&result))
		assert.Equal(t, 2, result.Pagination.TotalItems)
	})

	t.Run("Process Endpoint Without File", func(t *testing.T) {
		var b bytes.Buffer
		writer := multipart.NewWriter(&b)
		require.NoError(t, writer.Close())

		req := httptest.NewRequest("POST", "/api/v1/process", &b)
		req.Header.Set("Content-Type", writer.FormDataContentType())
		rr := httptest.NewRecorder()
		srv.HTTPServer.Handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("Process By Hash Cache Hit", func(t *testing.T) {
		cacheStore.Put("knownhash", testConversations(), time.Minute)

		body := bytes.NewBufferString(`{"hash":"knownhash"}`)
		req := httptest.NewRequest("POST", "/api/v1/process-by-hash", body)
		rr := httptest.NewRecorder()
		srv.HTTPServer.Handler.ServeHTTP(rr, req)

		require.Equal(t, http.StatusAccepted, rr.Code)
		var resp map[string]string
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		taskID := resp["task_id"]

		require.Eventually(t, func() bool {
			task, err := taskStore.GetTask(taskID)
			return err == nil && task.Status == TaskStatusCompleted
		}, 2*time.Second, 10*time.Millisecond)
	})

	t.Run("Process By Hash Cache Miss", func(t *testing.T) {
		body := bytes.NewBufferString(`{"hash":"unknownhash"}`)
		req := httptest.NewRequest("POST", "/api/v1/process-by-hash", body)
		rr := httptest.NewRecorder()
		srv.HTTPServer.Handler.ServeHTTP(rr, req)

		require.Equal(t, http.StatusAccepted, rr.Code)
		var resp map[string]string
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		taskID := resp["task_id"]

		require.Eventually(t, func() bool {
			task, err := taskStore.GetTask(taskID)
			return err == nil && task.Status == TaskStatusFailed
		}, 2*time.Second, 10*time.Millisecond)
	})

	t.Run("Task Status Not Found", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/v1/tasks/nonexistent", nil)
		rr := httptest.NewRecorder()
		srv.HTTPServer.Handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("Task Result Not Completed", func(t *testing.T) {
		taskStore.CreateTask("pending-task", time.Hour)

		req := httptest.NewRequest("GET", "/api/v1/tasks/pending-task/result", nil)
		rr := httptest.NewRecorder()
		srv.HTTPServer.Handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	mockProc.AssertExpectations(t)
}
