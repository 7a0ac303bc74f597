package domain

import "strings"

// AttachmentKind представляет категорию медиа-вложения.
type AttachmentKind string

const (
	KindImage AttachmentKind = "image"
	KindVideo AttachmentKind = "video"
	KindAudio AttachmentKind = "audio"
)

// UnknownAuthor — значение по умолчанию для нераспознанного имени
// автора или собеседника.
const UnknownAuthor = "Unknown"

// Attachment представляет один медиа-файл, прикрепленный к сообщению.
type Attachment struct {
	Kind     AttachmentKind `json:"type"`
	URL      string         `json:"url"`
	Filename string         `json:"filename"`
}

// Message представляет одно сообщение в переписке.
type Message struct {
	// ID уникален в пределах переписки и строится детерминированно
	// как "<идентификатор переписки>-<позиция сообщения>".
	ID        string `json:"id"`
	Author    string `json:"author"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
	AvatarURL string `json:"avatarUrl,omitempty"`
	IsMine    bool   `json:"isMine"`
	// Attachments отсутствует (nil), когда у сообщения нет вложений.
	// Пустой срез здесь не используется.
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Conversation представляет одну переписку с собеседником.
type Conversation struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatarUrl"`
	// Messages упорядочены так, как они расположены в документе
	// (от старых к новым). Для переписки без сообщений это пустой
	// срез, а не nil.
	Messages []Message `json:"messages"`
}

// DirectoryEntry представляет "сырые" данные об одной переписке,
// извлеченные из каталога документа, до присоединения сообщений.
type DirectoryEntry struct {
	// ID переписки — собственный идентификатор архива (непрозрачная строка).
	ID string
	// Отображаемое имя собеседника.
	Name string
	// Ссылка на аватар собеседника.
	AvatarURL string
}

// kindByExt — фиксированная таблица соответствия расширения файла
// и категории медиа.
var kindByExt = map[string]AttachmentKind{
	"jpg": KindImage, "jpeg": KindImage, "png": KindImage,
	"gif": KindImage, "webp": KindImage, "bmp": KindImage,
	"mp4": KindVideo, "mov": KindVideo, "avi": KindVideo,
	"webm": KindVideo, "mkv": KindVideo, "m4v": KindVideo,
	"ogg": KindAudio, "mp3": KindAudio, "wav": KindAudio,
	"m4a": KindAudio, "flac": KindAudio, "aac": KindAudio,
}

// KindForFilename определяет категорию вложения по расширению имени файла.
// Регистр не учитывается. Нераспознанное расширение считается изображением —
// унаследованное поведение формата экспорта, сознательно сохраненное.
func KindForFilename(filename string) AttachmentKind {
	ext := ""
	if idx := strings.LastIndex(filename, "."); idx >= 0 {
		ext = strings.ToLower(filename[idx+1:])
	}
	if kind, ok := kindByExt[ext]; ok {
		return kind
	}
	return KindImage
}

// NormalizePath заменяет все обратные слеши в пути на прямые.
func NormalizePath(p string) string {
	return strings.ReplaceAll(p, `\`, "/")
}

// LastPathSegment возвращает последний сегмент пути, где разделителем
// может быть как '/', так и '\'.
func LastPathSegment(p string) string {
	p = NormalizePath(p)
	if idx := strings.LastIndex(p, "/"); idx >= 0 {
		return p[idx+1:]
	}
	return p
}
