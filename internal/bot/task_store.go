package bot

import "sync"

// TaskStore — это потокобезопасное in-memory хранилище для сопоставления
// идентификатора чата Telegram с идентификатором задачи рендеринга.
// У чата может быть только одна активная задача.
type TaskStore struct {
	mu    sync.RWMutex
	tasks map[int64]string // map[chatID]taskID
}

// NewTaskStore создает новый экземпляр TaskStore.
func NewTaskStore() *TaskStore {
	return &TaskStore{
		tasks: make(map[int64]string),
	}
}

// Reserve занимает чат под новую задачу. Возвращает false, если у чата уже есть
// активная задача. Идентификатор задачи записывается позже через Set.
func (s *TaskStore) Reserve(chatID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[chatID]; ok {
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
// Для зарезервированного чата без задачи возвращает пустую строку и true.
func (s *TaskStore) Get(chatID int64) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	taskID, ok := s.tasks[chatID]
	return taskID, ok
}

// Delete освобождает чат.
func (s *TaskStore) Delete(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tasks, chatID)
}

// Len возвращает число чатов с активной задачей.
func (s *TaskStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}
