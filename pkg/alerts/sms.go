package alerts

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// SMSNotifier sends short alert messages through an HTTP SMS gateway
// (NetGSM-style GET API).
type SMSNotifier struct {
	apiURL    string
	apiKey    string
	userCode  string
	msgHeader string
	phones    []string
	client    *http.Client
}

// NewSMSNotifier creates an SMS gateway notifier.
func NewSMSNotifier(apiURL, apiKey, userCode, msgHeader string, phones []string) *SMSNotifier {
	return &SMSNotifier{
		apiURL:    apiURL,
		apiKey:    apiKey,
		userCode:  userCode,
		msgHeader: msgHeader,
		phones:    phones,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (s *SMSNotifier) Name() string { return "sms" }

func (s *SMSNotifier) Send(ctx context.Context, n Notification) error {
	if s.apiKey == "" {
		return fmt.Errorf("sms api key not configured")
	}

	params := url.Values{}
	params.Set("usercode", s.userCode)
	params.Set("password", s.apiKey)
	params.Set("gsmno", strings.Join(s.phones, ","))
	params.Set("message", SMSMessage(n.Drugs, n.Kind))
	params.Set("msgheader", s.msgHeader)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.apiURL+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create sms request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send sms alert: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("sms gateway returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}
