package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"dm-archive-viewer/internal/adapters/source"
	"dm-archive-viewer/internal/cache"
	"dm-archive-viewer/internal/domain"
	"dm-archive-viewer/internal/pkg/config"
	"dm-archive-viewer/internal/ports"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// ArchiveProcessor определяет интерфейс для варианта использования, который обрабатывает архивы.
type ArchiveProcessor interface {
	// ProcessArchive обрабатывает архив из произвольного источника; ошибка
	// загрузки/разбора возвращается вызывающему (используется задачами).
	ProcessArchive(ctx context.Context, src ports.DataSource) ([]domain.Conversation, error)
	// LoadConversations обрабатывает архив из настроенного местоположения
	// и деградирует до пустого списка при любой ошибке.
	LoadConversations(ctx context.Context) []domain.Conversation
}

// Server представляет HTTP-сервер
type Server struct {
	HTTPServer *http.Server
	cfg        *config.Config
	taskStore  *TaskStore
	cacheStore *cache.CacheStore
	processor  ArchiveProcessor
	cancel     context.CancelFunc
}

// pagination описывает метаданные пагинации ответа
type pagination struct {
	CurrentPage int `json:"current_page"`
	PageSize    int `json:"page_size"`
	TotalItems  int `json:"total_items"`
	TotalPages  int `json:"total_pages"`
}

// pagedResponse — ответ со списком переписок и метаданными пагинации
type pagedResponse struct {
	Pagination pagination            `json:"pagination"`
	Data       []domain.Conversation `json:"data"`
}

// New создает новый экземпляр Server
func New(cfg *config.Config, processor ArchiveProcessor, taskStore *TaskStore, cacheStore *cache.CacheStore) (*Server, error) {
	chiRouter := chi.NewRouter()

	// Промежуточное ПО
	chiRouter.Use(middleware.Logger)
	chiRouter.Use(middleware.Recoverer)

	// Конечная точка для проверки работоспособности
	chiRouter.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{
			"status": "ok",
		})
	})

	// Маршруты API
	chiRouter.Route("/api/v1", func(r chi.Router) {
		// Полный список переписок настроенного архива с пагинацией.
		// При любой ошибке конвейера клиент получает пустой список,
		// а не ошибку сервера.
		r.Get("/conversations", func(w http.ResponseWriter, r *http.Request) {
			conversations := processor.LoadConversations(r.Context())

			page, pageSize := paginationParams(r)
			writeJSON(w, http.StatusOK, paginate(conversations, page, pageSize))
		})

		// Одна переписка по ее идентификатору
		r.Get("/conversations/{chatID}", func(w http.ResponseWriter, r *http.Request) {
			chatID := chi.URLParam(r, "chatID")

			for _, conversation := range processor.LoadConversations(r.Context()) {
				if conversation.ID == chatID {
					writeJSON(w, http.StatusOK, conversation)
					return
				}
			}

			http.Error(w, "Переписка не найдена", http.StatusNotFound)
		})

		// Конечная точка для запуска новой задачи обработки загруженного архива
		r.Post("/process", func(w http.ResponseWriter, r *http.Request) {
			// Разбор мультипарт-формы
			maxUpload := int64(cfg.Server.MaxUploadSizeMB) << 20
			if err := r.ParseMultipartForm(maxUpload); err != nil {
				http.Error(w, "Не удалось разобрать форму", http.StatusBadRequest)
				return
			}

			file, _, err := r.FormFile("file")
			if err != nil {
				http.Error(w, "Не удалось получить файл из формы", http.StatusBadRequest)
				return
			}
			defer file.Close()

			// Генерация уникального идентификатора задачи
			taskID := uuid.NewString()

			// Создание временного файла для хранения загруженного архива
			tempDir := os.TempDir()
			tempFilePath := filepath.Join(tempDir, fmt.Sprintf("archive_%s.html", taskID))

			out, err := os.Create(tempFilePath)
			if err != nil {
				http.Error(w, "Не удалось создать временный файл", http.StatusInternalServerError)
				return
			}
			defer out.Close()

			if _, err := io.Copy(out, file); err != nil {
				http.Error(w, "Не удалось сохранить загруженный файл", http.StatusInternalServerError)
				return
			}

			// Создание задачи в хранилище
			taskStore.CreateTask(taskID, 24*time.Hour) // TTL для записи о задаче

			// Запуск обработки в горутине
			go func() {
				taskStore.UpdateTaskStatus(taskID, TaskStatusProcessing)

				// Создание контекста для задачи с таймаутом из конфигурации.
				taskCtx := context.Background()
				if cfg.Processing.TaskTimeoutSeconds > 0 {
					var cancel context.CancelFunc
					taskCtx, cancel = context.WithTimeout(context.Background(), cfg.TaskTimeout())
					defer cancel()
				}

				result, err := processor.ProcessArchive(taskCtx, source.NewFileSource(tempFilePath))
				if err != nil {
					taskStore.UpdateTaskError(taskID, err.Error())
					// Очистка временного файла при ошибке
					os.Remove(tempFilePath)
					return
				}

				// Обновление задачи с результатом
				taskStore.UpdateTaskResult(taskID, result)

				// Очистка временного файла при успехе
				os.Remove(tempFilePath)
			}()

			// Возврат идентификатора задачи
			writeJSON(w, http.StatusAccepted, map[string]string{"task_id": taskID})
		})

		// Конечная точка для запуска новой задачи обработки по хешу содержимого
		r.Post("/process-by-hash", func(w http.ResponseWriter, r *http.Request) {
			var req struct {
				Hash string `json:"hash"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "Не удалось декодировать тело запроса", http.StatusBadRequest)
				return
			}

			if req.Hash == "" {
				http.Error(w, "Требуется хеш", http.StatusBadRequest)
				return
			}

			taskID := uuid.NewString()
			taskStore.CreateTask(taskID, 24*time.Hour)

			go func() {
				taskStore.UpdateTaskStatus(taskID, TaskStatusProcessing)

				if cachedItem, found := cacheStore.Get(req.Hash); found {
					taskStore.UpdateTaskResult(taskID, cachedItem.Data)
					slog.Info("Попадание в кеш для хеша", "hash", req.Hash, "task_id", taskID)
					return
				}

				// Без содержимого архива по хешу обработать нечего
				taskStore.UpdateTaskError(taskID, "Архив не найден в кеше для данного хеша")
				slog.Info("Промах кеша для хеша", "hash", req.Hash, "task_id", taskID)
			}()

			writeJSON(w, http.StatusAccepted, map[string]string{"task_id": taskID})
		})

		// Конечная точка для проверки статуса задачи
		r.Get("/tasks/{taskID}", func(w http.ResponseWriter, r *http.Request) {
			taskID := chi.URLParam(r, "taskID")

			task, err := taskStore.GetTask(taskID)
			if err != nil {
				http.Error(w, "Задача не найдена", http.StatusNotFound)
				return
			}

			writeJSON(w, http.StatusOK, map[string]interface{}{
				"task_id":       task.ID,
				"status":        task.Status,
				"error_message": task.ErrorMessage,
			})
		})

		// Конечная точка для получения результата задачи с пагинацией
		r.Get("/tasks/{taskID}/result", func(w http.ResponseWriter, r *http.Request) {
			taskID := chi.URLParam(r, "taskID")

			task, err := taskStore.GetTask(taskID)
			if err != nil {
				http.Error(w, "Задача не найдена", http.StatusNotFound)
				return
			}

			if task.Status != TaskStatusCompleted {
				http.Error(w, "Задача не завершена", http.StatusBadRequest)
				return
			}

			page, pageSize := paginationParams(r)
			writeJSON(w, http.StatusOK, paginate(task.Result, page, pageSize))
		})
	})

	// Раздача каталога архива как статики, чтобы UI мог загружать
	// сам документ и файлы вложений
	if cfg.Archive.Path != "" {
		archiveDir := filepath.Dir(cfg.Archive.Path)
		chiRouter.Handle("/*", http.FileServer(http.Dir(archiveDir)))
	}

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      chiRouter,
		ReadTimeout:  config.DefaultReadTimeout,
		WriteTimeout: config.DefaultWriteTimeout,
		IdleTimeout:  config.DefaultIdleTimeout,
	}

	ctx, cancel := context.WithCancel(context.Background())

	s := &Server{
		HTTPServer: httpServer,
		cfg:        cfg,
		taskStore:  taskStore,
		cacheStore: cacheStore,
		processor:  processor,
		cancel:     cancel,
	}

	// Тикеры для очистки просроченных задач и элементов кеша
	s.taskStore.StartCleanupTicker(ctx, config.DefaultCleanupInterval)
	s.cacheStore.StartCleanupTicker(ctx, config.DefaultCleanupInterval)

	return s, nil
}

// paginationParams разбирает параметры пагинации запроса,
// по умолчанию страница 1 размером 50
func paginationParams(r *http.Request) (page, pageSize int) {
	page, pageSize = 1, 50
	if v := r.URL.Query().Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			page = n
		}
	}
	if v := r.URL.Query().Get("page_size"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			pageSize = n
		}
	}
	return page, pageSize
}

// paginate нарезает список переписок в соответствии с пагинацией
func paginate(conversations []domain.Conversation, page, pageSize int) pagedResponse {
	totalItems := len(conversations)
	totalPages := (totalItems + pageSize - 1) / pageSize // Округление вверх

	startIndex := (page - 1) * pageSize
	endIndex := startIndex + pageSize
	if startIndex >= totalItems {
		startIndex = totalItems
		endIndex = totalItems
	}
	if endIndex > totalItems {
		endIndex = totalItems
	}

	return pagedResponse{
		Pagination: pagination{
			CurrentPage: page,
			PageSize:    pageSize,
			TotalItems:  totalItems,
			TotalPages:  totalPages,
		},
		Data: conversations[startIndex:endIndex],
	}
}

// writeJSON сериализует тело ответа с указанным статусом
func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// ListenAndServe запускает HTTP-сервер
func (s *Server) ListenAndServe() error {
	return s.HTTPServer.ListenAndServe()
}

// Shutdown корректно завершает работу HTTP-сервера и его фоновых тикеров
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("Завершение работы HTTP-сервера")
	s.cancel()
	return s.HTTPServer.Shutdown(ctx)
}
