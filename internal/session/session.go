package session

import "sync"

// Key идентифицирует разговор: чат Telegram, MTProto peer или HTTP сессию
type Key string

// Action действие, для которого ожидается тема
type Action int

const (
	ActionNone Action = iota
	ActionTopNews
	ActionSummarize
)

func (a Action) String() string {
	switch a {
	case ActionTopNews:
		return "top_news"
	case ActionSummarize:
		return "summarize"
	default:
		return "none"
	}
}

// Session состояние одного разговора. Нулевое значение - ожидание команды.
type Session struct {
	Pending Action
	Topic   string
}

// Idle сообщает, что никакое действие не выбрано
func (s Session) Idle() bool {
	return s.Pending == ActionNone
}

type entry struct {
	mu      sync.Mutex
	session Session
	refs    int // сколько вызовов Do сейчас работают с записью
}

// Store хранит сессии по ключу. Мьютекс записи удерживается на все время
// обработки сообщения, поэтому сообщения одной сессии не пересекаются,
// а разные сессии обрабатываются независимо. Сессия в состоянии ожидания
// команды удаляется, как только с ней никто не работает.
type Store struct {
	mu      sync.Mutex
	entries map[Key]*entry
}

// NewStore создает пустое хранилище сессий
func NewStore() *Store {
	return &Store{entries: make(map[Key]*entry)}
}

func (s *Store) acquire(key Key) *entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		e = &entry{}
		s.entries[key] = e
	}
	e.refs++
	return e
}

func (s *Store) release(key Key, e *entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e.refs--
	if e.refs == 0 && e.session.Idle() {
		delete(s.entries, key)
	}
}

// Do выполняет fn под блокировкой сессии key. Сессия создается при первом обращении.
func (s *Store) Do(key Key, fn func(*Session)) {
	e := s.acquire(key)
	defer s.release(key, e)

	e.mu.Lock()
	defer e.mu.Unlock()
	fn(&e.session)
}

// Get возвращает копию состояния сессии
func (s *Store) Get(key Key) Session {
	var snapshot Session
	s.Do(key, func(sess *Session) {
		snapshot = *sess
	})
	return snapshot
}

// Len количество сессий, ожидающих тему или занятых обработкой
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
