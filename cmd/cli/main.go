package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"dm-archive-viewer/internal/adapters/exporter"
	"dm-archive-viewer/internal/adapters/parser"
	"dm-archive-viewer/internal/cache"
	"dm-archive-viewer/internal/core/services"
	"dm-archive-viewer/internal/domain"
	"dm-archive-viewer/internal/pkg/config"
	"dm-archive-viewer/internal/ports"
	"dm-archive-viewer/internal/server/usecase"
)

// TaskStatusResponse описывает ответ сервера о статусе задачи.
type TaskStatusResponse struct {
	TaskID       string `json:"task_id"`
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// TaskResultResponse описывает ответ сервера с результатом задачи.
type TaskResultResponse struct {
	Data []domain.Conversation `json:"data"`
}

func main() {
	var serverAddr string
	var local bool
	var jsonOut bool
	flag.StringVar(&serverAddr, "server", "http://localhost:8080", "Server address")
	flag.BoolVar(&local, "local", false, "Parse the archive locally without a server")
	flag.BoolVar(&jsonOut, "json", false, "Print the result as JSON")
	flag.Parse()

	if flag.NArg() != 1 {
		log.Fatal("Exactly one archive path is required. Usage: cli [flags] <archive.html>")
	}
	archivePath := flag.Arg(0)

	var exp ports.Exporter
	if jsonOut {
		exp = exporter.NewJSONExporter(os.Stdout)
	} else {
		exp = exporter.NewConsoleExporter()
	}

	var conversations []domain.Conversation
	var err error
	if local {
		conversations = parseLocally(archivePath)
	} else {
		conversations, err = processRemotely(serverAddr, archivePath)
		if err != nil {
			log.Fatalf("Не удалось обработать архив на сервере: %v", err)
		}
	}

	if err := exp.Export(conversations); err != nil {
		log.Fatalf("Не удалось вывести результат: %v", err)
	}
}

// parseLocally собирает конвейер обработки и прогоняет архив через него
// без участия сервера.
func parseLocally(archivePath string) []domain.Conversation {
	cfg := &config.Config{
		Archive: config.Archive{
			Path:              archivePath,
			ContainerIDPrefix: config.DefaultContainerIDPrefix,
			AttachmentsPrefix: config.DefaultAttachmentsPrefix,
			DefaultAvatarURL:  config.DefaultAvatarURL,
		},
		Processing: config.Processing{
			CacheTTLMinutes: int(config.DefaultCacheTTL / time.Minute),
		},
	}

	parserSvc := parser.NewHTMLParser()
	directorySvc := services.NewDirectoryService(services.ShowChatIDResolver, cfg.Archive.DefaultAvatarURL)
	attachmentSvc := services.NewAttachmentService(cfg.Archive.AttachmentsPrefix)
	messageSvc := services.NewMessageService(cfg.Archive.ContainerIDPrefix, attachmentSvc)
	processor := usecase.NewLoadArchiveUseCase(cfg, parserSvc, directorySvc, messageSvc, cache.NewCacheStore())

	return processor.LoadConversations(context.Background())
}

// processRemotely загружает архив на сервер, дожидается завершения задачи
// и возвращает ее результат.
func processRemotely(serverAddr, archivePath string) ([]domain.Conversation, error) {
	// Создание многочастной формы для загрузки файла
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	file, err := os.Open(archivePath)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть файл %s: %w", archivePath, err)
	}

	part, err := writer.CreateFormFile("file", filepath.Base(archivePath))
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("не удалось создать файл формы для %s: %w", archivePath, err)
	}

	if _, err := io.Copy(part, file); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("не удалось записать данные файла %s: %w", archivePath, err)
	}
	if err := file.Close(); err != nil {
		// Не фатально, но стоит залогировать
		log.Printf("Warning: failed to close file %s: %v", archivePath, err)
	}

	// Важно закрыть writer, чтобы записать завершающую границу
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("не удалось закрыть multipart writer: %w", err)
	}

	// Отправка файла на сервер
	resp, err := http.Post(serverAddr+"/api/v1/process", writer.FormDataContentType(), &body)
	if err != nil {
		return nil, fmt.Errorf("не удалось отправить запрос: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		return nil, fmt.Errorf("сервер вернул статус: %d", resp.StatusCode)
	}

	// Разбор идентификатора задачи из ответа
	var taskResp map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&taskResp); err != nil {
		return nil, fmt.Errorf("не удалось декодировать ответ: %w", err)
	}
	taskID := taskResp["task_id"]
	if taskID == "" {
		return nil, fmt.Errorf("идентификатор задачи не найден в ответе")
	}

	fmt.Printf("Задача создана с идентификатором: %s\n", taskID)

	// Опрос о статусе задачи
	for {
		time.Sleep(5 * time.Second) // Ожидание 5 секунд перед следующим опросом

		status, err := fetchTaskStatus(serverAddr, taskID)
		if err != nil {
			return nil, err
		}

		switch status.Status {
		case "completed":
			return fetchTaskResult(serverAddr, taskID)
		case "failed":
			return nil, fmt.Errorf("задача завершилась с ошибкой: %s", status.ErrorMessage)
		default:
			fmt.Printf("Статус задачи: %s\n", status.Status)
		}
	}
}

// fetchTaskStatus опрашивает сервер о статусе задачи.
func fetchTaskStatus(serverAddr, taskID string) (*TaskStatusResponse, error) {
	resp, err := http.Get(fmt.Sprintf("%s/api/v1/tasks/%s", serverAddr, taskID))
	if err != nil {
		return nil, fmt.Errorf("не удалось опросить статус задачи: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("сервер вернул статус: %d", resp.StatusCode)
	}

	var status TaskStatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("не удалось декодировать статус задачи: %w", err)
	}
	return &status, nil
}

// fetchTaskResult получает результат завершенной задачи.
func fetchTaskResult(serverAddr, taskID string) ([]domain.Conversation, error) {
	resp, err := http.Get(fmt.Sprintf("%s/api/v1/tasks/%s/result?page_size=1000", serverAddr, taskID))
	if err != nil {
		return nil, fmt.Errorf("не удалось получить результат задачи: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("сервер вернул статус: %d", resp.StatusCode)
	}

	var result TaskResultResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("не удалось декодировать результат задачи: %w", err)
	}
	return result.Data, nil
}
