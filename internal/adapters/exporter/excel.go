package exporter

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"telegram-chat-log/internal/domain"
	"telegram-chat-log/internal/ports"
	"telegram-chat-log/internal/render"
)

// SheetName — имя листа с историей.
const SheetName = "История"

var excelHeaders = []string{"ID", "Дата", "Отправитель", "Тип", "Текст", "Вложение", "Ответ на"}

// ExcelExporter записывает сообщения в XLSX-книгу.
type ExcelExporter struct {
	out io.Writer
	loc *time.Location
}

var _ ports.Exporter = (*ExcelExporter)(nil)

// NewExcelExporter создает экспортер, пишущий книгу в out. Если loc nil, используется UTC.
func NewExcelExporter(out io.Writer, loc *time.Location) *ExcelExporter {
	if loc == nil {
		loc = time.UTC
	}
	return &ExcelExporter{out: out, loc: loc}
}

// Export строит книгу с одним листом: строка заголовков и по строке на сообщение.
func (e *ExcelExporter) Export(messages []domain.NormalizedMessage) (err error) {
	f := excelize.NewFile()
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close excel file: %w", closeErr)
		}
	}()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}

	for i, h := range excelHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(SheetName, cell, h); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}

	for i, msg := range messages {
		row := i + 2
		replyTo := ""
		if msg.ReplyTo != nil {
			replyTo = strconv.Itoa(*msg.ReplyTo)
		}
		values := []any{
			msg.ID,
			time.Unix(msg.Timestamp, 0).In(e.loc).Format(timeLayout),
			msg.Sender,
			render.Badge(msg.MessageType),
			msg.DisplayText,
			render.MediaSummary(msg.Media),
			replyTo,
		}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", row, err)
		}
	}

	if err := f.SetColWidth(SheetName, "E", "E", 80); err != nil {
		return fmt.Errorf("failed to set column width: %w", err)
	}

	if err := f.Write(e.out); err != nil {
		return fmt.Errorf("failed to write excel: %w", err)
	}
	return nil
}
