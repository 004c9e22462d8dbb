package core

import "context"

type (
	// InteractiveMessage is a WhatsApp message with a text header and a single reply button.
	InteractiveMessage struct {
		Phone  string // digits only, country code included
		Header string
		Body   string
		Button string
	}

	// Messenger is any service that can deliver WhatsApp messages to a learner's phone.
	Messenger interface {
		SendInteractiveMessage(ctx context.Context, msg InteractiveMessage) error
		SendText(ctx context.Context, phone, text string) error
	}
)
