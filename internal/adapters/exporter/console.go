package exporter

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-runewidth"

	"telegram-chat-log/internal/domain"
	"telegram-chat-log/internal/ports"
	"telegram-chat-log/internal/render"
)

const (
	defaultSenderWidth = 16
	defaultTextWidth   = 80
	timeLayout         = "2006-01-02 15:04:05"
)

// ConsoleOption — функциональная опция для ConsoleExporter.
type ConsoleOption func(*ConsoleExporter)

// WithWriter задает, куда печатать сообщения. По умолчанию os.Stdout.
func WithWriter(w io.Writer) ConsoleOption {
	return func(e *ConsoleExporter) {
		if w != nil {
			e.out = w
		}
	}
}

// WithLocation задает часовой пояс для времени сообщений.
func WithLocation(loc *time.Location) ConsoleOption {
	return func(e *ConsoleExporter) {
		if loc != nil {
			e.loc = loc
		}
	}
}

// WithTextWidth задает ширину колонки текста; 0 отключает перенос.
func WithTextWidth(width int) ConsoleOption {
	return func(e *ConsoleExporter) {
		e.textWidth = width
	}
}

// ConsoleExporter печатает сообщения построчно: время, значок типа, отправитель и текст.
// Колонка отправителя выравнивается по ширине символов на экране.
type ConsoleExporter struct {
	mu          sync.Mutex
	out         io.Writer
	loc         *time.Location
	senderWidth int
	textWidth   int
}

var _ ports.Exporter = (*ConsoleExporter)(nil)

// NewConsoleExporter создает новый экземпляр ConsoleExporter.
func NewConsoleExporter(opts ...ConsoleOption) *ConsoleExporter {
	e := &ConsoleExporter{
		out:         os.Stdout,
		loc:         time.Local,
		senderWidth: defaultSenderWidth,
		textWidth:   defaultTextWidth,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Export печатает сообщения в переданном порядке.
func (e *ConsoleExporter) Export(messages []domain.NormalizedMessage) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var sb strings.Builder
	for _, msg := range messages {
		e.writeMessage(&sb, msg)
	}

	if _, err := io.WriteString(e.out, sb.String()); err != nil {
		return fmt.Errorf("failed to write messages: %w", err)
	}
	return nil
}

func (e *ConsoleExporter) writeMessage(sb *strings.Builder, msg domain.NormalizedMessage) {
	ts := time.Unix(msg.Timestamp, 0).In(e.loc).Format(timeLayout)
	sender := runewidth.FillRight(runewidth.Truncate(msg.Sender, e.senderWidth, "…"), e.senderWidth)
	prefix := fmt.Sprintf("[%s] %s %s │ ", ts, msg.MessageType.Emoji(), sender)
	indent := strings.Repeat(" ", runewidth.StringWidth(prefix)-runewidth.StringWidth("│ ")) + "│ "

	text := msg.DisplayText
	if summary := render.MediaSummary(msg.Media); summary != "" {
		text += " (" + summary + ")"
	}
	if msg.ReplyTo != nil {
		text = fmt.Sprintf("↩ %d %s", *msg.ReplyTo, text)
	}

	var lines []string
	for _, paragraph := range strings.Split(text, "\n") {
		lines = append(lines, wrapString(paragraph, e.textWidth)...)
	}

	for i, line := range lines {
		if i == 0 {
			sb.WriteString(prefix)
		} else {
			sb.WriteString(indent)
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}
}

// wrapString переносит строку по словам так, чтобы каждая строка занимала не больше width
// позиций на экране. Слово длиннее width разрезается.
func wrapString(s string, width int) []string {
	if width <= 0 || runewidth.StringWidth(s) <= width {
		return []string{s}
	}

	words := strings.Fields(s)
	if len(words) == 0 {
		return []string{""}
	}

	var (
		lines   []string
		current strings.Builder
	)
	for _, word := range words {
		if runewidth.StringWidth(word) > width {
			if current.Len() > 0 {
				lines = append(lines, current.String())
				current.Reset()
			}
			lines = append(lines, splitByWidth(word, width)...)
			continue
		}

		lineWidth := runewidth.StringWidth(current.String())
		if lineWidth > 0 && lineWidth+1+runewidth.StringWidth(word) > width {
			lines = append(lines, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(word)
	}
	if current.Len() > 0 {
		lines = append(lines, current.String())
	}
	return lines
}

func splitByWidth(word string, width int) []string {
	var parts []string
	runes := []rune(word)
	for len(runes) > 0 {
		i, w := 0, 0
		for i < len(runes) {
			rw := runewidth.RuneWidth(runes[i])
			if w+rw > width && i > 0 {
				break
			}
			w += rw
			i++
		}
		parts = append(parts, string(runes[:i]))
		runes = runes[i:]
	}
	return parts
}
