package export

import (
	"context"
	"errors"
	"fmt"
	"landing-bot/internal/config"
	"landing-bot/internal/models"
	"os"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// ErrNotConfigured: приемник выгрузки не настроен.
var ErrNotConfigured = errors.New("приемник выгрузки не настроен")

// SheetsSink дописывает заявки в конец Google-таблицы.
type SheetsSink struct {
	service *sheets.Service
	sheetID string
	rng     string
	loc     *time.Location
}

// NewSheetsSink подключается к Sheets API с ключом сервисного аккаунта.
// Без ID таблицы или файла ключа возвращает ErrNotConfigured.
func NewSheetsSink(ctx context.Context, cfg config.Sheets, loc *time.Location) (*SheetsSink, error) {
	if cfg.SheetID == "" || cfg.CredentialsPath == "" {
		return nil, ErrNotConfigured
	}
	if _, err := os.Stat(cfg.CredentialsPath); err != nil {
		return nil, ErrNotConfigured
	}

	return NewSheetsSinkWithOptions(ctx, cfg, loc,
		option.WithCredentialsFile(cfg.CredentialsPath),
		option.WithScopes(sheets.SpreadsheetsScope),
	)
}

// NewSheetsSinkWithOptions создает приемник с произвольными опциями клиента.
func NewSheetsSinkWithOptions(ctx context.Context, cfg config.Sheets, loc *time.Location, opts ...option.ClientOption) (*SheetsSink, error) {
	service, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheets client: %w", err)
	}

	rng := cfg.Range
	if rng == "" {
		rng = "A1"
	}

	return &SheetsSink{
		service: service,
		sheetID: cfg.SheetID,
		rng:     rng,
		loc:     loc,
	}, nil
}

func (s *SheetsSink) Name() string { return "sheets" }

// Append дописывает строки; пустая выгрузка ничего не отправляет.
func (s *SheetsSink) Append(ctx context.Context, rows []models.ExportRow) error {
	if len(rows) == 0 {
		return nil
	}

	body := &sheets.ValueRange{Values: Rows(rows, s.loc)}
	_, err := s.service.Spreadsheets.Values.Append(s.sheetID, s.rng, body).
		ValueInputOption("USER_ENTERED").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("sheets append: %w", err)
	}
	return nil
}
