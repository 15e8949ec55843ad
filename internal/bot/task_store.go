package bot

import "sync"

// TaskStore — это потокобезопасное in-memory хранилище для сопоставления
// идентификатора чата Telegram с активной задачей экспорта на сервере.
type TaskStore struct {
	mu    sync.Mutex
	tasks map[int64]string // map[chatID]taskID
}

// NewTaskStore создает новый экземпляр TaskStore.
func NewTaskStore() *TaskStore {
	return &TaskStore{
		tasks: make(map[int64]string),
	}
}

// Reserve занимает chatID под новую задачу. Возвращает false, если у чата уже есть активная задача.
func (s *TaskStore) Reserve(chatID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.tasks[chatID]; busy {
		return false
	}
	s.tasks[chatID] = ""
	return true
}

// Set сохраняет сопоставление chatID и taskID.
func (s *TaskStore) Set(chatID int64, taskID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[chatID] = taskID
}

// Get извлекает taskID для указанного chatID.
// Пустой taskID с true означает, что задача еще создается.
func (s *TaskStore) Get(chatID int64) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	taskID, ok := s.tasks[chatID]
	return taskID, ok
}

// Delete удаляет задачу для указанного chatID.
func (s *TaskStore) Delete(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tasks, chatID)
}
