package ports

import (
	"dm-archive-viewer/internal/domain"

	"github.com/PuerkitoBio/goquery"
)

// DataSource определяет интерфейс для получения исходного HTML-архива.
type DataSource interface {
	// Fetch загружает данные из источника и возвращает их в виде байтового среза.
	Fetch() ([]byte, error)
}

// Parser определяет интерфейс для разбора сырого HTML в дерево документа,
// пригодное для выборки по CSS-селекторам.
type Parser interface {
	// Parse преобразует сырые байты в дерево документа.
	Parse(data []byte) (*goquery.Document, error)
}

// ChatIDResolver извлекает идентификатор переписки из строки директивы
// активации элемента каталога (атрибут onclick). Возвращает false, если
// идентификатор не удалось распознать; такой элемент каталога пропускается.
// Вынесено в отдельный тип, чтобы поддержка другого формата экспорта
// сводилась к замене одной функции.
type ChatIDResolver func(directive string) (string, bool)

// DirectoryExtractor определяет интерфейс для извлечения каталога
// переписок из дерева документа.
type DirectoryExtractor interface {
	// ExtractDirectory возвращает записи каталога в порядке документа.
	ExtractDirectory(doc *goquery.Document) []domain.DirectoryEntry
}

// MessageExtractor определяет интерфейс для извлечения сообщений
// одной переписки из дерева документа.
type MessageExtractor interface {
	// ExtractMessages возвращает сообщения переписки в порядке документа.
	// Для переписки без контейнера сообщений возвращается пустой срез.
	ExtractMessages(doc *goquery.Document, chatID string) []domain.Message
}

// AttachmentClassifier определяет интерфейс для извлечения и классификации
// вложений одного сообщения.
type AttachmentClassifier interface {
	// Collect возвращает вложения обертки сообщения или nil, если их нет.
	Collect(wrapper *goquery.Selection) []domain.Attachment
}

// Exporter определяет интерфейс для вывода результата.
type Exporter interface {
	// Export принимает финальный список переписок и выводит их.
	Export(conversations []domain.Conversation) error
}
