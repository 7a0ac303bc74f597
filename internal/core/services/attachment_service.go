package services

import (
	"fmt"

	"dm-archive-viewer/internal/domain"
	"dm-archive-viewer/internal/ports"

	"github.com/PuerkitoBio/goquery"
)

// AttachmentServiceImpl реализует интерфейс AttachmentClassifier.
type AttachmentServiceImpl struct {
	// hrefPrefix — префикс ссылок на файлы вложений (каталог вложений архива).
	hrefPrefix string
}

// NewAttachmentService создает новый экземпляр AttachmentServiceImpl.
func NewAttachmentService(hrefPrefix string) ports.AttachmentClassifier {
	return &AttachmentServiceImpl{hrefPrefix: hrefPrefix}
}

// Collect извлекает вложения одной обертки сообщения: сначала все
// изображения-вложения в порядке документа, затем все ссылки на файлы
// вложений в порядке документа. Два независимых прохода, а не один
// чередующийся — порядок соответствует формату экспорта.
// Возвращает nil, если вложений нет.
func (s *AttachmentServiceImpl) Collect(wrapper *goquery.Selection) []domain.Attachment {
	var attachments []domain.Attachment

	wrapper.Find(".attachment-img").Each(func(_ int, img *goquery.Selection) {
		src, _ := img.Attr("src")
		if src == "" {
			return
		}
		attachments = append(attachments, domain.Attachment{
			Kind:     domain.KindImage,
			URL:      domain.NormalizePath(src),
			Filename: domain.LastPathSegment(src),
		})
	})

	linkSelector := fmt.Sprintf("a[href^=%q]", s.hrefPrefix)
	wrapper.Find(linkSelector).Each(func(_ int, link *goquery.Selection) {
		href, _ := link.Attr("href")
		if href == "" {
			return
		}
		filename := domain.LastPathSegment(href)
		attachments = append(attachments, domain.Attachment{
			Kind:     domain.KindForFilename(filename),
			URL:      domain.NormalizePath(href),
			Filename: filename,
		})
	})

	return attachments
}
