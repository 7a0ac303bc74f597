package integration

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"dm-archive-viewer/internal/adapters/parser"
	"dm-archive-viewer/internal/adapters/source"
	"dm-archive-viewer/internal/cache"
	"dm-archive-viewer/internal/core/services"
	"dm-archive-viewer/internal/domain"
	"dm-archive-viewer/internal/pkg/config"
	"dm-archive-viewer/internal/server/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// transcriptFixture — минимальный, но полный архив: каталог с двумя
// распознаваемыми записями и одной мусорной, переписка с текстом,
// вложением-изображением и медиа-ссылками, переписка без контейнера.
const transcriptFixture = `<!DOCTYPE html>
<html><body>
<div class="dm-list">
	<div class="dm-item" onclick="showChat('42')">
		<img class="dm-avatar" src="avatars/alice.png"><span>Alice</span>
	</div>
	<div class="dm-item" onclick="toggleTheme()">
		<img class="dm-avatar" src="avatars/bob.png"><span>Bob</span>
	</div>
	<div class="dm-item" onclick="showChat('77')">
		<span>Carol</span>
	</div>
</div>
<div id="chat-42">
	<div class="message-wrapper mine">
		<img class="msg-avatar" src="avatars/me.png">
		<div class="message-main">
			<span class="msg-author">Me</span>
			<span class="msg-time">2023-04-01 12:01</span>
			<div>hi</div>
		</div>
	</div>
	<div class="message-wrapper">
		<img class="msg-avatar" src="avatars/alice.png">
		<div class="message-main">
			<span class="msg-author">Alice</span>
			<span class="msg-time">2023-04-01 12:02</span>
			<div></div>
		</div>
		<img class="attachment-img" src="attachments\img\photo.jpg">
		<a href="attachments/voice.ogg">voice.ogg</a>
		<a href="attachments/clip.MP4">clip.MP4</a>
	</div>
</div>
</body></html>`

// newProcessor собирает полный конвейер с указанным кеш-хранилищем.
func newProcessor(cfg *config.Config, cacheStore *cache.CacheStore) *usecase.LoadArchiveUseCase {
	directorySvc := services.NewDirectoryService(services.ShowChatIDResolver, cfg.Archive.DefaultAvatarURL)
	attachmentSvc := services.NewAttachmentService(cfg.Archive.AttachmentsPrefix)
	messageSvc := services.NewMessageService(cfg.Archive.ContainerIDPrefix, attachmentSvc)
	return usecase.NewLoadArchiveUseCase(cfg, parser.NewHTMLParser(), directorySvc, messageSvc, cacheStore)
}

func defaultTestConfig() *config.Config {
	return &config.Config{
		Archive: config.Archive{
			ContainerIDPrefix: config.DefaultContainerIDPrefix,
			AttachmentsPrefix: config.DefaultAttachmentsPrefix,
			DefaultAvatarURL:  config.DefaultAvatarURL,
		},
		Processing: config.Processing{CacheTTLMinutes: 60},
	}
}

func TestPipeline(t *testing.T) {
	t.Run("полный конвейер строит модель переписок из архива", func(t *testing.T) {
		uc := newProcessor(defaultTestConfig(), cache.NewCacheStore())

		conversations, err := uc.ProcessArchive(context.Background(), source.NewMemorySource([]byte(transcriptFixture)))
		require.NoError(t, err)

		// Две корректные записи каталога; мусорная директива Bob пропущена
		require.Len(t, conversations, 2)

		alice := conversations[0]
		assert.Equal(t, "42", alice.ID)
		assert.Equal(t, "Alice", alice.Name)
		require.Len(t, alice.Messages, 2)

		mine := alice.Messages[0]
		assert.Equal(t, "42-0", mine.ID)
		assert.True(t, mine.IsMine)
		assert.Equal(t, "hi", mine.Content)
		assert.Equal(t, "2023-04-01 12:01", mine.Timestamp)
		assert.Nil(t, mine.Attachments)

		reply := alice.Messages[1]
		assert.Equal(t, "42-1", reply.ID)
		assert.False(t, reply.IsMine)
		assert.Equal(t, "", reply.Content)
		require.Len(t, reply.Attachments, 3)

		// Изображения идут перед медиа-ссылками, пути нормализованы
		assert.Equal(t, domain.Attachment{Kind: domain.KindImage, URL: "attachments/img/photo.jpg", Filename: "photo.jpg"}, reply.Attachments[0])
		assert.Equal(t, domain.KindAudio, reply.Attachments[1].Kind)
		assert.Equal(t, domain.KindVideo, reply.Attachments[2].Kind)

		carol := conversations[1]
		assert.Equal(t, "77", carol.ID)
		assert.Equal(t, config.DefaultAvatarURL, carol.AvatarURL)
		assert.NotNil(t, carol.Messages)
		assert.Empty(t, carol.Messages)
	})

	t.Run("конвейер идемпотентен", func(t *testing.T) {
		uc := newProcessor(defaultTestConfig(), cache.NewCacheStore())
		src := source.NewMemorySource([]byte(transcriptFixture))

		first, err := uc.ProcessArchive(context.Background(), src)
		require.NoError(t, err)
		second, err := uc.ProcessArchive(context.Background(), src)
		require.NoError(t, err)

		assert.Equal(t, first, second)
	})

	t.Run("сбой загрузки деградирует до пустого списка", func(t *testing.T) {
		cfg := defaultTestConfig()
		cfg.Archive.Path = filepath.Join(t.TempDir(), "missing.html")
		uc := newProcessor(cfg, cache.NewCacheStore())

		conversations := uc.LoadConversations(context.Background())
		require.NotNil(t, conversations)
		assert.Empty(t, conversations)
	})

	t.Run("конвейер читает архив с диска", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "transcript.html")
		require.NoError(t, os.WriteFile(path, []byte(transcriptFixture), 0o644))

		cfg := defaultTestConfig()
		cfg.Archive.Path = path
		uc := newProcessor(cfg, cache.NewCacheStore())

		conversations := uc.LoadConversations(context.Background())
		require.Len(t, conversations, 2)
		assert.Equal(t, "Alice", conversations[0].Name)
	})
}
