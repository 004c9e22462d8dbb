package messagingsvc

import (
	"context"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"github.com/trezcool/microlearn/core"
)

const (
	interactivePath = "/api/v1/sendInteractiveButtonsMessage"
	sessionPath     = "/api/v1/sendSessionMessage/{phone}"
)

var ErrNotConfigured = errors.New("whatsapp messaging is not configured")

type (
	interactiveHeader struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}

	interactiveButton struct {
		Text string `json:"text"`
	}

	interactivePayload struct {
		Header  interactiveHeader   `json:"header"`
		Body    string              `json:"body"`
		Buttons []interactiveButton `json:"buttons"`
	}

	sessionPayload struct {
		MessageText string `json:"messageText"`
	}
)

// whatsappService sends messages through the WhatsApp business API. Each message is attempted once.
type whatsappService struct {
	client     *resty.Client
	configured bool
}

var _ core.Messenger = (*whatsappService)(nil) // interface compliance check

func NewWhatsappService(conf *core.Config) *whatsappService {
	baseURL := strings.TrimRight(conf.Messaging.Endpoint, "/")
	if baseURL != "" && !strings.Contains(baseURL, "://") {
		baseURL = "https://" + baseURL
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(conf.Messaging.Timeout).
		SetHeader("Authorization", conf.Messaging.ApiKey).
		SetHeader("Content-Type", "application/json")
	return &whatsappService{
		client:     client,
		configured: baseURL != "" && conf.Messaging.ApiKey != "",
	}
}

func (svc *whatsappService) SendInteractiveMessage(ctx context.Context, msg core.InteractiveMessage) error {
	if !svc.configured {
		return ErrNotConfigured
	}
	body := interactivePayload{
		Header:  interactiveHeader{Type: "Text", Text: msg.Header},
		Body:    msg.Body,
		Buttons: []interactiveButton{{Text: msg.Button}},
	}
	resp, err := svc.client.R().
		SetContext(ctx).
		SetQueryParam("whatsappNumber", msg.Phone).
		SetBody(body).
		Post(interactivePath)
	return checkResponse(resp, err, "sending interactive message")
}

func (svc *whatsappService) SendText(ctx context.Context, phone, text string) error {
	if !svc.configured {
		return ErrNotConfigured
	}
	resp, err := svc.client.R().
		SetContext(ctx).
		SetPathParam("phone", phone).
		SetBody(sessionPayload{MessageText: text}).
		Post(sessionPath)
	return checkResponse(resp, err, "sending session message")
}

func checkResponse(resp *resty.Response, err error, msg string) error {
	if err != nil {
		return errors.Wrap(err, msg)
	}
	if resp.IsError() {
		return errors.Errorf("%s - status: %d - body: %s", msg, resp.StatusCode(), resp.String())
	}
	return nil
}
