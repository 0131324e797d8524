package server

import (
	"strconv"
	"sync"
	"time"

	"github.com/effective-security/agentloop/assistants"
	"github.com/effective-security/xdb/pkg/flake"
)

// session is a conversation with its own Assistant,
// turns on a session are serialized.
type session struct {
	id        string
	lock      sync.Mutex
	assistant *assistants.Assistant
	lastUsed  time.Time
}

// sessions are the in-memory conversations by ID.
type sessions struct {
	lock sync.Mutex
	byID map[string]*session
	new  func() (*assistants.Assistant, error)
}

func newSessions(factory func() (*assistants.Assistant, error)) *sessions {
	return &sessions{
		byID: make(map[string]*session),
		new:  factory,
	}
}

// NewSessionID returns a new unique session ID.
func NewSessionID() string {
	return strconv.FormatUint(flake.DefaultIDGenerator.NextID(), 10)
}

// get returns the session by ID, creating it when it does not exist.
// A new ID is generated when id is empty.
func (s *sessions) get(id string) (*session, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if id == "" {
		id = NewSessionID()
	}
	if sess, ok := s.byID[id]; ok {
		sess.lastUsed = time.Now()
		return sess, nil
	}

	a, err := s.new()
	if err != nil {
		return nil, err
	}
	sess := &session{id: id, assistant: a, lastUsed: time.Now()}
	s.byID[id] = sess
	return sess, nil
}

// touch marks the session as used now.
func (s *sessions) touch(sess *session) {
	s.lock.Lock()
	defer s.lock.Unlock()
	sess.lastUsed = time.Now()
}

func (s *sessions) find(id string) (*session, bool) {
	s.lock.Lock()
	defer s.lock.Unlock()
	sess, ok := s.byID[id]
	return sess, ok
}

func (s *sessions) remove(id string) bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	_, ok := s.byID[id]
	delete(s.byID, id)
	return ok
}

func (s *sessions) len() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return len(s.byID)
}

// evict removes the sessions not used since the given time.
// Sessions with a turn in progress are kept.
func (s *sessions) evict(before time.Time) int {
	s.lock.Lock()
	defer s.lock.Unlock()

	count := 0
	for id, sess := range s.byID {
		if !sess.lastUsed.Before(before) || !sess.lock.TryLock() {
			continue
		}
		delete(s.byID, id)
		sess.lock.Unlock()
		count++
	}
	return count
}
