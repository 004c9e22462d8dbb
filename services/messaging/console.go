package messagingsvc

import (
	"context"
	"sync"

	"github.com/trezcool/microlearn/core"
)

// SentMessage is a message delivered by the console service.
type SentMessage struct {
	Phone       string
	Text        string
	Interactive *core.InteractiveMessage
}

// consoleService logs the messages instead of sending them. It is used when WhatsApp is not configured and in tests.
type consoleService struct {
	logger core.Logger

	mu   sync.Mutex
	sent []SentMessage
	fail error
}

var _ core.Messenger = (*consoleService)(nil) // interface compliance check

func NewConsoleService(logger core.Logger) *consoleService {
	return &consoleService{logger: logger}
}

// FailWith makes the next deliveries fail with `err` until reset with nil.
func (svc *consoleService) FailWith(err error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	svc.fail = err
}

// Sent returns a copy of the delivered messages.
func (svc *consoleService) Sent() []SentMessage {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	sent := make([]SentMessage, len(svc.sent))
	copy(sent, svc.sent)
	return sent
}

func (svc *consoleService) Reset() {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	svc.sent = nil
	svc.fail = nil
}

func (svc *consoleService) deliver(m SentMessage) error {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	if svc.fail != nil {
		return svc.fail
	}
	svc.sent = append(svc.sent, m)
	return nil
}

func (svc *consoleService) SendInteractiveMessage(_ context.Context, msg core.InteractiveMessage) error {
	if err := svc.deliver(SentMessage{Phone: msg.Phone, Text: msg.Body, Interactive: &msg}); err != nil {
		return err
	}
	if svc.logger != nil {
		svc.logger.Debug("whatsapp to " + msg.Phone + ": [" + msg.Header + "] " + msg.Body + " (" + msg.Button + ")")
	}
	return nil
}

func (svc *consoleService) SendText(_ context.Context, phone, text string) error {
	if err := svc.deliver(SentMessage{Phone: phone, Text: text}); err != nil {
		return err
	}
	if svc.logger != nil {
		svc.logger.Debug("whatsapp to " + phone + ": " + text)
	}
	return nil
}
