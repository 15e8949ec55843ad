package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telegram-chat-log/internal/domain"
)

const exportJSON = `{
	"name": "Заметки",
	"type": "personal_chat",
	"id": 77,
	"messages": [
		{"id": 1, "type": "message", "date_unixtime": "1700000000", "from": "Аня", "text": "первое", "text_entities": [{"type": "plain", "text": "первое"}]},
		{"id": 2, "type": "message", "date_unixtime": "1700000060", "from": "Боря", "reply_to_message_id": 1, "text": "второе", "text_entities": [{"type": "plain", "text": "второе"}]}
	]
}`

func writeExport(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "result.json")
	require.NoError(t, os.WriteFile(path, []byte(exportJSON), 0o600))
	return path
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "missing.yml")}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestHistoryCommand_JSON(t *testing.T) {
	out, err := runCLI(t, "--export-file", writeExport(t), "--chat", "77", "history", "--format", "json")
	require.NoError(t, err)

	var messages []domain.NormalizedMessage
	require.NoError(t, json.Unmarshal([]byte(out), &messages))
	require.Len(t, messages, 2)

	assert.Equal(t, 1, messages[0].ID)
	assert.Equal(t, "Аня", messages[0].Sender)
	assert.Equal(t, "второе", messages[1].DisplayText)
	require.NotNil(t, messages[1].ReplyTo)
	assert.Equal(t, 1, *messages[1].ReplyTo)
}

func TestHistoryCommand_Errors(t *testing.T) {
	t.Run("чат не задан", func(t *testing.T) {
		_, err := runCLI(t, "--export-file", writeExport(t), "history")
		assert.ErrorIs(t, err, errNoChat)
	})

	t.Run("чужой чат", func(t *testing.T) {
		_, err := runCLI(t, "--export-file", writeExport(t), "--chat", "78", "history")
		assert.ErrorIs(t, err, domain.ErrChatNotFound)
	})

	t.Run("нулевой лимит для чужого чата", func(t *testing.T) {
		_, err := runCLI(t, "--export-file", writeExport(t), "--chat", "78", "history", "--limit", "0")
		assert.ErrorIs(t, err, domain.ErrChatNotFound)
	})

	t.Run("неизвестный формат", func(t *testing.T) {
		_, err := runCLI(t, "--export-file", writeExport(t), "--chat", "77", "history", "--format", "csv")
		assert.ErrorContains(t, err, "csv")
	})
}

func TestLimitFlags(t *testing.T) {
	testCases := []struct {
		name string
		args []string
	}{
		{"history со слишком большим лимитом", []string{"history", "--limit", "5000"}},
		{"history с отрицательным лимитом", []string{"history", "--limit", "-1"}},
		{"export со слишком большим лимитом", []string{"export", "--limit", "1001"}},
		{"tail со слишком большой догрузкой", []string{"tail", "--backfill", "1099511627776"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			args := append([]string{"--export-file", writeExport(t), "--chat", "77"}, tc.args...)
			_, err := runCLI(t, args...)
			assert.ErrorIs(t, err, errBadLimit)
		})
	}

	t.Run("history с граничным лимитом", func(t *testing.T) {
		out, err := runCLI(t, "--export-file", writeExport(t), "--chat", "77", "history", "--limit", "1000", "--format", "json")
		require.NoError(t, err)

		var messages []domain.NormalizedMessage
		require.NoError(t, json.Unmarshal([]byte(out), &messages))
		assert.Len(t, messages, 2)
	})
}

func TestDialogsCommand(t *testing.T) {
	out, err := runCLI(t, "--export-file", writeExport(t), "dialogs")
	require.NoError(t, err)
	assert.Equal(t, "ID  Название\n77  Заметки\n", out)
}

func TestTailCommand_NoStream(t *testing.T) {
	_, err := runCLI(t, "--export-file", writeExport(t), "--chat", "77", "tail")
	assert.Error(t, err)
}

func TestExportCommand(t *testing.T) {
	output := filepath.Join(t.TempDir(), "out.xlsx")
	_, err := runCLI(t, "--export-file", writeExport(t), "--chat", "77", "export", "-o", output)
	require.NoError(t, err)

	info, err := os.Stat(output)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestPrintDialogs(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printDialogs(&buf, []domain.Dialog{
		{ID: -1001234567890, Title: "Канал"},
		{ID: 5, Title: "Личный"},
	}))

	assert.Equal(t,
		strings.Repeat(" ", 12)+"ID  Название\n"+
			"-1001234567890  Канал\n"+
			strings.Repeat(" ", 13)+"5  Личный\n",
		buf.String())
}
