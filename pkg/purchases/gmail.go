package purchases

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"ai-partner-be/internal/model"
	"ai-partner-be/internal/pkg/logger"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// Extractor reads Amazon order-confirmation mail through the Gmail API and
// turns each message into an order record.
type Extractor struct {
	svc    *gmail.Service
	logger logger.ILogger
}

func NewExtractor(svc *gmail.Service, log logger.ILogger) *Extractor {
	return &Extractor{svc: svc, logger: log}
}

// NewGmailService builds a read-only Gmail client from an installed-app
// OAuth credentials file and a cached token. When no cached token exists,
// authURLPrompt receives the consent URL and must return the auth code
// (interactive CLI flow); the obtained token is cached for next time.
func NewGmailService(ctx context.Context, credentialsFile, tokenFile string, authURLPrompt func(url string) (string, error)) (*gmail.Service, error) {
	b, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read credentials file: %w", err)
	}

	cfg, err := google.ConfigFromJSON(b, gmail.GmailReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}

	token, err := tokenFromFile(tokenFile)
	if err != nil {
		if authURLPrompt == nil {
			return nil, fmt.Errorf("no cached token at %s and no interactive prompt available", tokenFile)
		}
		authURL := cfg.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
		code, err := authURLPrompt(authURL)
		if err != nil {
			return nil, fmt.Errorf("read auth code: %w", err)
		}
		token, err = cfg.Exchange(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("exchange auth code: %w", err)
		}
		if err := saveToken(tokenFile, token); err != nil {
			return nil, err
		}
	}

	svc, err := gmail.NewService(ctx, option.WithTokenSource(cfg.TokenSource(ctx, token)))
	if err != nil {
		return nil, fmt.Errorf("create gmail service: %w", err)
	}
	return svc, nil
}

func tokenFromFile(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	token := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(token); err != nil {
		return nil, err
	}
	return token, nil
}

func saveToken(path string, token *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("cache oauth token: %w", err)
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(token)
}

// FetchOrders lists Amazon order mail from the past `days` days and
// extracts an order record from each message body.
func (e *Extractor) FetchOrders(ctx context.Context, days int) ([]model.Order, error) {
	dateAfter := time.Now().AddDate(0, 0, -days).Format("2006/01/02")
	query := fmt.Sprintf("from:order-update@amazon.co.jp after:%s", dateAfter)

	e.logger.Info("Purchases", "Searching Gmail", map[string]interface{}{"query": query})

	listResp, err := e.svc.Users.Messages.List("me").Q(query).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	if len(listResp.Messages) == 0 {
		return nil, nil
	}

	var orders []model.Order
	for _, ref := range listResp.Messages {
		msg, err := e.svc.Users.Messages.Get("me", ref.Id).Format("full").Context(ctx).Do()
		if err != nil {
			e.logger.Warn("Purchases", "Failed to fetch message", map[string]interface{}{
				"message_id": ref.Id,
				"error":      err.Error(),
			})
			continue
		}

		body := messageBody(msg)
		if body == "" {
			continue
		}

		order := ExtractOrder(body)
		orders = append(orders, order)
		e.logger.Info("Purchases", "Order extracted", map[string]interface{}{
			"product": order.Product,
			"price":   order.Price,
			"date":    order.Date,
		})
	}
	return orders, nil
}

// messageBody decodes the first available body part of a Gmail message.
func messageBody(msg *gmail.Message) string {
	if msg.Payload == nil {
		return ""
	}
	data := ""
	if len(msg.Payload.Parts) > 0 && msg.Payload.Parts[0].Body != nil {
		data = msg.Payload.Parts[0].Body.Data
	} else if msg.Payload.Body != nil {
		data = msg.Payload.Body.Data
	}
	if data == "" {
		return ""
	}
	decoded, err := base64.URLEncoding.DecodeString(data)
	if err != nil {
		// Gmail omits padding on occasion.
		decoded, err = base64.RawURLEncoding.DecodeString(data)
		if err != nil {
			return ""
		}
	}
	return string(decoded)
}
