package source

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"dm-archive-viewer/internal/ports"
)

// HTTPSource реализует интерфейс DataSource для загрузки архива
// по фиксированному URL.
type HTTPSource struct {
	url    string
	client *http.Client
}

// NewHTTPSource создает новый экземпляр HTTPSource.
func NewHTTPSource(url string) ports.DataSource {
	return &HTTPSource{
		url:    url,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// Fetch загружает документ по URL и возвращает его содержимое.
// Выполняется ровно одна попытка; повторов нет.
func (s *HTTPSource) Fetch() ([]byte, error) {
	if s.url == "" {
		return nil, fmt.Errorf("не указан URL архива")
	}

	resp, err := s.client.Get(s.url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", s.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("сервер архива вернул статус %d для %s", resp.StatusCode, s.url)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body from %s: %w", s.url, err)
	}

	return data, nil
}
