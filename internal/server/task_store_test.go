package server

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskStore(t *testing.T) {
	t.Run("Создание и чтение задачи", func(t *testing.T) {
		ts := NewTaskStore()
		ttl := 5 * time.Minute

		ts.CreateTask("task-1", -100, ttl)

		task, err := ts.GetTask("task-1")
		require.NoError(t, err)
		assert.Equal(t, "task-1", task.ID)
		assert.Equal(t, int64(-100), task.ChatID)
		assert.Equal(t, TaskStatusPending, task.Status)
		assert.WithinDuration(t, time.Now().Add(ttl), task.ExpiresAt, time.Second)
	})

	t.Run("Неизвестная задача", func(t *testing.T) {
		_, err := NewTaskStore().GetTask("non-existent")
		assert.ErrorIs(t, err, ErrTaskNotFound)
	})

	t.Run("Смена статуса", func(t *testing.T) {
		ts := NewTaskStore()
		ts.CreateTask("task-1", 1, time.Minute)

		require.NoError(t, ts.UpdateTaskStatus("task-1", TaskStatusProcessing))
		task, _ := ts.GetTask("task-1")
		assert.Equal(t, TaskStatusProcessing, task.Status)

		assert.ErrorIs(t, ts.UpdateTaskStatus("non-existent", TaskStatusCompleted), ErrTaskNotFound)
	})

	t.Run("Сохранение результата", func(t *testing.T) {
		ts := NewTaskStore()
		ts.CreateTask("task-1", 1, time.Minute)
		result := &ExportResult{FileName: "history.xlsx", Data: []byte("xlsx"), MessageCount: 3}

		require.NoError(t, ts.UpdateTaskResult("task-1", result))

		task, _ := ts.GetTask("task-1")
		assert.Equal(t, TaskStatusCompleted, task.Status)
		assert.Equal(t, result, task.Result)
		assert.Error(t, ts.UpdateTaskResult("non-existent", result))
	})

	t.Run("Сохранение ошибки", func(t *testing.T) {
		ts := NewTaskStore()
		ts.CreateTask("task-1", 1, time.Minute)

		require.NoError(t, ts.UpdateTaskError("task-1", "chat not found"))

		task, _ := ts.GetTask("task-1")
		assert.Equal(t, TaskStatusFailed, task.Status)
		assert.Equal(t, "chat not found", task.ErrorMessage)
		assert.Error(t, ts.UpdateTaskError("non-existent", ""))
	})

	t.Run("Копия задачи не меняет хранилище", func(t *testing.T) {
		ts := NewTaskStore()
		ts.CreateTask("task-1", 1, time.Minute)

		task, _ := ts.GetTask("task-1")
		task.Status = TaskStatusFailed

		again, _ := ts.GetTask("task-1")
		assert.Equal(t, TaskStatusPending, again.Status)
	})

	t.Run("Очистка просроченных задач", func(t *testing.T) {
		ts := NewTaskStore()
		ts.CreateTask("expired", 1, -time.Minute)
		ts.CreateTask("valid", 1, time.Minute)

		ts.CleanupExpired()

		_, err := ts.GetTask("expired")
		assert.Error(t, err)
		_, err = ts.GetTask("valid")
		assert.NoError(t, err)
	})
}

func TestTaskStore_StartCleanupTicker(t *testing.T) {
	ts := NewTaskStore()
	ts.CreateTask("expired", 1, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ts.StartCleanupTicker(ctx, 20*time.Millisecond)

	assert.Eventually(t, func() bool {
		_, err := ts.GetTask("expired")
		return err != nil
	}, time.Second, 10*time.Millisecond)
}
