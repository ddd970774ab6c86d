package dashboard

import (
	"docdash/internal/session"
)

// ToastKind selects the toast style.
type ToastKind string

const (
	ToastSuccess ToastKind = "success"
	ToastError   ToastKind = "error"
)

// Toast is a one-shot notification. Message is a message ID unless Raw is
// set, in which case it is shown as is (API error texts).
type Toast struct {
	Kind    ToastKind `json:"kind"`
	Message string    `json:"message"`
	Raw     bool      `json:"raw,omitempty"`
}

// PushToast stores t for the next page render.
func PushToast(store session.Store, t Toast) error {
	return session.SetJSON(store, session.KeyToast, t)
}

// PopToast returns and removes the pending toast, if any.
func PopToast(store session.Store) (*Toast, error) {
	var t Toast
	ok, err := session.GetJSON(store, session.KeyToast, &t)
	if delErr := store.Delete(session.KeyToast); delErr != nil && err == nil {
		err = delErr
	}
	if err != nil || !ok {
		return nil, err
	}
	return &t, nil
}
