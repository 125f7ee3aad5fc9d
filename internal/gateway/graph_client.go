// internal/gateway/graph_client.go
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const sendTimeout = 15 * time.Second

// GraphClient talks to the WhatsApp Cloud API
// (POST {base}/{version}/{phone_number_id}/messages).
type GraphClient struct {
	Base    string
	Version string
	HTTP    *http.Client
}

func NewGraphClient(base, version string) *GraphClient {
	return &GraphClient{
		Base:    base,
		Version: version,
		HTTP:    &http.Client{Timeout: sendTimeout},
	}
}

type templatePayload struct {
	MessagingProduct string       `json:"messaging_product"`
	To               string       `json:"to"`
	Type             string       `json:"type"`
	Template         templateSpec `json:"template"`
}

type templateSpec struct {
	Name       string              `json:"name"`
	Language   templateLang        `json:"language"`
	Components []templateComponent `json:"components"`
}

type templateLang struct {
	Code string `json:"code"`
}

type templateComponent struct {
	Type       string          `json:"type"`
	Parameters []templateParam `json:"parameters"`
}

type templateParam struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type sendResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Graph error codes that mean the recipient itself is bad, not the request.
var recipientErrorCodes = map[int]bool{
	131021: true, // recipient same as sender
	131026: true, // message undeliverable
	131030: true, // recipient not in allowed list
}

func (c *GraphClient) Send(ctx context.Context, req SendRequest) (string, error) {
	params := make([]templateParam, 0, len(req.BodyParams))
	for _, p := range req.BodyParams {
		params = append(params, templateParam{Type: "text", Text: p})
	}

	payload := templatePayload{
		MessagingProduct: "whatsapp",
		To:               req.To,
		Type:             "template",
		Template: templateSpec{
			Name:     req.TemplateName,
			Language: templateLang{Code: req.LanguageCode},
			Components: []templateComponent{
				{Type: "body", Parameters: params},
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/%s/%s/messages", c.Base, c.Version, req.PhoneNumberID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+req.AccessToken)

	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		return "", &SendError{Kind: KindTransient, Detail: err.Error()}
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	var parsed sendResponse
	_ = json.Unmarshal(respBody, &parsed)

	if resp.StatusCode == http.StatusOK {
		if len(parsed.Messages) == 0 || parsed.Messages[0].ID == "" {
			return "", &SendError{Kind: KindUnknown, StatusCode: resp.StatusCode, Detail: "no message id in response"}
		}
		return parsed.Messages[0].ID, nil
	}

	return "", &SendError{
		Kind:       classify(resp.StatusCode, parsed.Error.Code),
		StatusCode: resp.StatusCode,
		Detail:     parsed.Error.Message,
	}
}

func classify(httpStatus, graphCode int) ErrorKind {
	switch {
	case httpStatus == http.StatusTooManyRequests:
		return KindRateLimited
	case httpStatus == http.StatusUnauthorized || httpStatus == http.StatusForbidden:
		return KindAuthInvalid
	case recipientErrorCodes[graphCode]:
		return KindRecipientInvalid
	case httpStatus >= 500:
		return KindTransient
	default:
		return KindUnknown
	}
}

var _ Sender = (*GraphClient)(nil)
