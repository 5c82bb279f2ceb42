/**
 * @description
 * This package defines the chat-transport contract consumed by the bot: a
 * bidirectional messaging channel that delivers inbound user messages,
 * emits connection lifecycle events, and accepts outbound text.
 *
 * The transport also owns credential material for the messaging session.
 * Rotated credentials are persisted through a CredentialStore before any
 * further message is processed, so a crash never loses the ability to
 * resume the session.
 */

package chattransport

import (
	"context"
	"os"
	"path/filepath"
)

// Message is one inbound chat message. From is the sender's messaging
// identity (phone number).
type Message struct {
	From string `json:"from"`
	Text string `json:"text"`
}

// EventType classifies connection lifecycle events.
type EventType string

const (
	EventConnected    EventType = "connected"
	EventDisconnected EventType = "disconnected"
)

// ConnectionEvent is delivered to the lifecycle handler.
type ConnectionEvent struct {
	Type EventType
	Err  error
}

// MessageHandler processes one inbound message.
type MessageHandler func(ctx context.Context, msg Message)

// EventHandler observes connection lifecycle changes.
type EventHandler func(evt ConnectionEvent)

// Transport is the messaging-session contract. Exactly one message handler
// and one lifecycle handler are registered; both must be set before Connect.
type Transport interface {
	Connect(ctx context.Context) error
	OnMessage(handler MessageHandler)
	OnConnectionEvent(handler EventHandler)
	SendText(ctx context.Context, to, text string) error
	Close() error
}

// CredentialStore persists the transport session's credential material
// across restarts.
type CredentialStore interface {
	Load() ([]byte, error)
	Save(data []byte) error
}

// FileCredentialStore keeps credential material in a single file. Save
// writes to a temp file and renames so a crash mid-write cannot corrupt the
// stored material.
type FileCredentialStore struct {
	Path string
}

func NewFileCredentialStore(path string) *FileCredentialStore {
	return &FileCredentialStore{Path: path}
}

// Load returns the stored material, or nil when none has been saved yet.
func (s *FileCredentialStore) Load() ([]byte, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return data, nil
}

func (s *FileCredentialStore) Save(data []byte) error {
	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".creds-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, s.Path)
}
