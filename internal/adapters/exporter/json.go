package exporter

import (
	"encoding/json"
	"fmt"
	"io"

	"dm-archive-viewer/internal/domain"
	"dm-archive-viewer/internal/ports"
)

// JSONExporter реализует интерфейс Exporter для вывода переписок в виде JSON.
type JSONExporter struct {
	out io.Writer
}

// NewJSONExporter создает новый экземпляр JSONExporter, пишущий в указанный writer.
func NewJSONExporter(out io.Writer) ports.Exporter {
	return &JSONExporter{out: out}
}

// Export сериализует финальный список переписок в JSON с отступами.
func (e *JSONExporter) Export(conversations []domain.Conversation) error {
	enc := json.NewEncoder(e.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(conversations); err != nil {
		return fmt.Errorf("failed to encode conversations: %w", err)
	}
	return nil
}
