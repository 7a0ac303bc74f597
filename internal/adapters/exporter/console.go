package exporter

import (
	"fmt"
	"io"
	"os"

	"dm-archive-viewer/internal/domain"
	"dm-archive-viewer/internal/ports"
)

// ConsoleExporter реализует интерфейс Exporter для вывода переписок в консоль.
type ConsoleExporter struct {
	out io.Writer
}

// NewConsoleExporter создает новый экземпляр ConsoleExporter.
func NewConsoleExporter() ports.Exporter {
	return &ConsoleExporter{out: os.Stdout}
}

// Export выводит финальный список переписок в консоль.
func (e *ConsoleExporter) Export(conversations []domain.Conversation) error {
	fmt.Fprintln(e.out, "--- Conversations ---")
	if len(conversations) == 0 {
		fmt.Fprintln(e.out, "No conversations found.")
		return nil
	}

	for i, c := range conversations {
		fmt.Fprintf(e.out, "%d. %s (id: %s, messages: %d)\n", i+1, c.Name, c.ID, len(c.Messages))
		for _, m := range c.Messages {
			author := m.Author
			if m.IsMine {
				author += " (me)"
			}
			if m.Timestamp != "" {
				fmt.Fprintf(e.out, "   [%s] %s: %s\n", m.Timestamp, author, m.Content)
			} else {
				fmt.Fprintf(e.out, "   %s: %s\n", author, m.Content)
			}
			for _, a := range m.Attachments {
				fmt.Fprintf(e.out, "       attachment: %s (%s)\n", a.Filename, a.Kind)
			}
		}
	}
	return nil
}
