package session

import (
	"github.com/gofiber/fiber/v2/middleware/session"
)

// FiberStore adapts a per-request fiber session. Changes are persisted by
// Save, which handlers call once before responding.
type FiberStore struct {
	sess *session.Session
}

// NewFiberStore wraps sess.
func NewFiberStore(sess *session.Session) *FiberStore {
	return &FiberStore{sess: sess}
}

func (f *FiberStore) Get(key string) (string, bool, error) {
	v, ok := f.sess.Get(key).(string)
	return v, ok, nil
}

func (f *FiberStore) Set(key, value string) error {
	f.sess.Set(key, value)
	return nil
}

func (f *FiberStore) Delete(key string) error {
	f.sess.Delete(key)
	return nil
}

// Regenerate moves the data to a fresh session ID and drops the old one
// from storage.
func (f *FiberStore) Regenerate() error {
	return f.sess.Regenerate()
}

// Save writes the session to its storage and refreshes the cookie.
func (f *FiberStore) Save() error {
	return f.sess.Save()
}
