// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package logger

// Keeps log entries in memory so unit tests can assert on what a build step reported.

import (
	"sync"

	"github.com/sirupsen/logrus"
)

type MemoryLogMessage struct {
	Message string
	Level   logrus.Level
}

type MemoryLogHook struct {
	lock     sync.Mutex
	messages []MemoryLogMessage
}

// AddMemoryLogHook attaches a new in-memory hook to the global logger.
// Call Close on the result when done.
func AddMemoryLogHook() *MemoryLogHook {
	hook := &MemoryLogHook{}
	Log.AddHook(hook)
	return hook
}

func (h *MemoryLogHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *MemoryLogHook) Fire(entry *logrus.Entry) error {
	h.lock.Lock()
	defer h.lock.Unlock()

	h.messages = append(h.messages, MemoryLogMessage{
		Message: entry.Message,
		Level:   entry.Level,
	})
	return nil
}

// Close detaches the hook from the global logger.
func (h *MemoryLogHook) Close() {
	remaining := make(logrus.LevelHooks)
	for level, hooks := range Log.Hooks {
		for _, hook := range hooks {
			if hook == logrus.Hook(h) {
				continue
			}
			remaining[level] = append(remaining[level], hook)
		}
	}
	Log.ReplaceHooks(remaining)
}

// ConsumeMessages returns the messages collected so far and clears them.
func (h *MemoryLogHook) ConsumeMessages() []MemoryLogMessage {
	h.lock.Lock()
	defer h.lock.Unlock()

	messages := h.messages
	h.messages = nil
	return messages
}
