package parser

import (
	"encoding/json"
	"fmt"

	"telegram-text-export/internal/domain"
	"telegram-text-export/internal/ports"
)

// JSONParser реализует интерфейс Parser для разбора JSON-модели выгрузки.
type JSONParser struct{}

// NewJSONParser создает новый экземпляр JSONParser.
func NewJSONParser() ports.Parser {
	return &JSONParser{}
}

// Parse преобразует срез байт с JSON в собранную модель выгрузки.
func (p *JSONParser) Parse(data []byte) (*domain.Export, error) {
	var dto exportDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return nil, fmt.Errorf("failed to unmarshal json: %w", err)
	}
	export, err := dto.toDomain()
	if err != nil {
		return nil, fmt.Errorf("invalid export model: %w", err)
	}
	return export, nil
}
