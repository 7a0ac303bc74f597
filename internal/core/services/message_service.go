package services

import (
	"fmt"
	"strings"

	"dm-archive-viewer/internal/domain"
	"dm-archive-viewer/internal/ports"

	"github.com/PuerkitoBio/goquery"
)

// MessageServiceImpl реализует интерфейс MessageExtractor.
type MessageServiceImpl struct {
	// containerIDPrefix — префикс идентификатора контейнера сообщений;
	// контейнер переписки адресуется как "<префикс><id переписки>".
	containerIDPrefix string
	classifier        ports.AttachmentClassifier
}

// NewMessageService создает новый экземпляр MessageServiceImpl.
func NewMessageService(containerIDPrefix string, classifier ports.AttachmentClassifier) ports.MessageExtractor {
	return &MessageServiceImpl{
		containerIDPrefix: containerIDPrefix,
		classifier:        classifier,
	}
}

// ExtractMessages находит контейнер сообщений переписки и извлекает
// сообщения в порядке документа. Отсутствие контейнера — не ошибка:
// переписка существует с пустым списком сообщений. Обертка без текста
// и без вложений все равно дает запись сообщения, чтобы сохранить
// непрерывность позиций и идентификаторов.
func (s *MessageServiceImpl) ExtractMessages(doc *goquery.Document, chatID string) []domain.Message {
	messages := []domain.Message{}

	container := doc.Find("#" + s.containerIDPrefix + chatID)
	if container.Length() == 0 {
		return messages
	}

	container.Find(".message-wrapper").Each(func(index int, wrapper *goquery.Selection) {
		author := strings.TrimSpace(wrapper.Find(".msg-author").First().Text())
		if author == "" {
			author = domain.UnknownAuthor
		}

		msg := domain.Message{
			ID:        fmt.Sprintf("%s-%d", chatID, index),
			Author:    author,
			Content:   strings.TrimSpace(wrapper.Find(".message-main > div").First().Text()),
			Timestamp: strings.TrimSpace(wrapper.Find(".msg-time").First().Text()),
			IsMine:    wrapper.HasClass("mine"),
		}

		if src, ok := wrapper.Find(".msg-avatar").First().Attr("src"); ok {
			msg.AvatarURL = src
		}

		// Вложения присоединяются только при непустом результате
		if attachments := s.classifier.Collect(wrapper); len(attachments) > 0 {
			msg.Attachments = attachments
		}

		messages = append(messages, msg)
	})

	return messages
}
