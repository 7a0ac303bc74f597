package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"dm-archive-viewer/internal/adapters/source"
	"dm-archive-viewer/internal/cache"
	"dm-archive-viewer/internal/domain"
	"dm-archive-viewer/internal/pkg/config"
	"dm-archive-viewer/internal/ports"

	"github.com/PuerkitoBio/goquery"
)

// LoadArchiveUseCase инкапсулирует конвейер обработки HTML-архива:
// загрузка, разбор, извлечение каталога и сообщений, сборка результата.
type LoadArchiveUseCase struct {
	cfg        *config.Config
	parser     ports.Parser
	directory  ports.DirectoryExtractor
	messages   ports.MessageExtractor
	cacheStore *cache.CacheStore
}

// NewLoadArchiveUseCase создает новый экземпляр LoadArchiveUseCase.
func NewLoadArchiveUseCase(
	cfg *config.Config,
	parser ports.Parser,
	directory ports.DirectoryExtractor,
	messages ports.MessageExtractor,
	cacheStore *cache.CacheStore,
) *LoadArchiveUseCase {
	return &LoadArchiveUseCase{
		cfg:        cfg,
		parser:     parser,
		directory:  directory,
		messages:   messages,
		cacheStore: cacheStore,
	}
}

// ProcessArchive обрабатывает один архив из указанного источника.
// Конвейер строго последовательный: загрузка — единственная точка ожидания,
// все остальное — синхронный обход дерева в памяти. Ошибки загрузки и
// разбора возвращаются вызывающему; ошибки структуры документа не
// существуют — каждая отсутствующая часть имеет значение по умолчанию.
func (uc *LoadArchiveUseCase) ProcessArchive(ctx context.Context, src ports.DataSource) ([]domain.Conversation, error) {
	data, err := src.Fetch()
	if err != nil {
		return nil, fmt.Errorf("не удалось загрузить архив: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Разбор одних и тех же байт детерминирован, поэтому результат
	// кешируется по хешу содержимого
	hash := cache.CalculateHash(data)
	if cachedItem, found := uc.cacheStore.Get(hash); found {
		slog.Info("Попадание в кеш для архива", "hash", hash)
		return cachedItem.Data, nil
	}

	doc, err := uc.parser.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("не удалось разобрать архив: %w", err)
	}

	conversations := uc.assemble(doc)
	slog.Info("Архив разобран", "conversation_count", len(conversations))

	uc.cacheStore.Put(hash, conversations, uc.cfg.CacheTTL())
	return conversations, nil
}

// assemble объединяет записи каталога с их сообщениями в финальный список
// переписок, сохраняя порядок каталога. Без фильтрации и пересортировки.
func (uc *LoadArchiveUseCase) assemble(doc *goquery.Document) []domain.Conversation {
	entries := uc.directory.ExtractDirectory(doc)

	conversations := make([]domain.Conversation, 0, len(entries))
	for _, entry := range entries {
		conversations = append(conversations, domain.Conversation{
			ID:        entry.ID,
			Name:      entry.Name,
			AvatarURL: entry.AvatarURL,
			Messages:  uc.messages.ExtractMessages(doc, entry.ID),
		})
	}

	return conversations
}

// LoadConversations обрабатывает архив из настроенного местоположения.
// Любая ошибка или паника конвейера деградирует до пустого списка:
// потребитель всегда получает валидный (возможно пустой) результат
// и никогда — проброшенную ошибку.
func (uc *LoadArchiveUseCase) LoadConversations(ctx context.Context) (result []domain.Conversation) {
	result = []domain.Conversation{}

	defer func() {
		if r := recover(); r != nil {
			slog.Error("Паника при обработке архива", "panic", r)
			result = []domain.Conversation{}
		}
	}()

	var src ports.DataSource
	if uc.cfg.Archive.Path != "" {
		src = source.NewFileSource(uc.cfg.Archive.Path)
	} else {
		src = source.NewHTTPSource(uc.cfg.Archive.URL)
	}

	conversations, err := uc.ProcessArchive(ctx, src)
	if err != nil {
		slog.Error("Не удалось обработать архив, возвращается пустой результат", "error", err)
		return []domain.Conversation{}
	}

	return conversations
}
