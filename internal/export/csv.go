package export

import (
	"bytes"
	"encoding/csv"
	"landing-bot/internal/models"
	"time"
)

// FileName: имя файла выгрузки, которую получает администратор.
const FileName = "orders_export.csv"

const dateLayout = "2006-01-02 15:04:05"

// BOM нужен Excel, чтобы распознать UTF-8
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

var header = []string{"Дата", "ID заявки", "Имя", "Телефон", "Статус"}

// BuildCSV собирает CSV с BOM: заголовок и по строке на заявку. Даты выводятся в часовом поясе loc.
func BuildCSV(rows []models.ExportRow, loc *time.Location) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(utf8BOM)

	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, r := range rows {
		if err := w.Write(record(r, loc)); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Rows приводит заявки к строкам таблицы в порядке колонок CSV.
func Rows(rows []models.ExportRow, loc *time.Location) [][]interface{} {
	values := make([][]interface{}, 0, len(rows))
	for _, r := range rows {
		rec := record(r, loc)
		row := make([]interface{}, len(rec))
		for i, v := range rec {
			row[i] = v
		}
		values = append(values, row)
	}
	return values
}

func record(r models.ExportRow, loc *time.Location) []string {
	if loc == nil {
		loc = time.Local
	}
	return []string{
		r.CreatedAt.In(loc).Format(dateLayout),
		r.OrderID,
		r.FullName,
		r.Phone,
		string(r.Status),
	}
}
