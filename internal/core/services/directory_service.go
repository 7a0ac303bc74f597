package services

import (
	"regexp"
	"strings"

	"dm-archive-viewer/internal/domain"
	"dm-archive-viewer/internal/ports"

	"github.com/PuerkitoBio/goquery"
)

// showChatPattern разбирает директиву активации вида showChat('123'),
// которую формат экспорта использует вместо явного атрибута с идентификатором.
var showChatPattern = regexp.MustCompile(`showChat\('([0-9A-Za-z]+)'\)`)

// ShowChatIDResolver — резолвер идентификатора переписки по умолчанию.
// Извлекает идентификатор из директивы showChat('<id>').
func ShowChatIDResolver(directive string) (string, bool) {
	m := showChatPattern.FindStringSubmatch(directive)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// DirectoryServiceImpl реализует интерфейс DirectoryExtractor.
type DirectoryServiceImpl struct {
	resolver         ports.ChatIDResolver
	defaultAvatarURL string
}

// NewDirectoryService создает новый экземпляр DirectoryServiceImpl.
// Резолвер идентификаторов и URL аватара по умолчанию передаются извне,
// а не берутся из глобального состояния.
func NewDirectoryService(resolver ports.ChatIDResolver, defaultAvatarURL string) ports.DirectoryExtractor {
	return &DirectoryServiceImpl{
		resolver:         resolver,
		defaultAvatarURL: defaultAvatarURL,
	}
}

// ExtractDirectory сканирует дерево документа и возвращает записи каталога
// переписок в порядке документа. Элемент без распознаваемого идентификатора
// пропускается; это допустимое состояние, а не ошибка. Отсутствующее имя
// заменяется на Unknown, отсутствующий аватар — на URL по умолчанию.
func (s *DirectoryServiceImpl) ExtractDirectory(doc *goquery.Document) []domain.DirectoryEntry {
	var entries []domain.DirectoryEntry

	doc.Find(".dm-item").Each(func(_ int, item *goquery.Selection) {
		directive, _ := item.Attr("onclick")
		chatID, ok := s.resolver(directive)
		if !ok {
			return
		}

		name := strings.TrimSpace(item.Find("span").First().Text())
		if name == "" {
			name = domain.UnknownAuthor
		}

		avatarURL, _ := item.Find(".dm-avatar").First().Attr("src")
		if avatarURL == "" {
			avatarURL = s.defaultAvatarURL
		}

		entries = append(entries, domain.DirectoryEntry{
			ID:        chatID,
			Name:      name,
			AvatarURL: avatarURL,
		})
	})

	return entries
}
