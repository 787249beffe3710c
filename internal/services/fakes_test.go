package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/signalpage/signalpage/internal/models"
	"github.com/stripe/stripe-go/v76"
	"github.com/tmc/langchaingo/llms"
)

// fakeGenerator replays canned responses in order. Once exhausted it keeps
// returning the last one.
type fakeGenerator struct {
	mu        sync.Mutex
	responses []string
	err       error
	failFirst int
	prompts   []string
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	if f.failFirst > 0 {
		f.failFirst--
		return "", errors.New("transient failure")
	}
	if len(f.responses) == 0 {
		return "", errors.New("no response queued")
	}
	resp := f.responses[0]
	if len(f.responses) > 1 {
		f.responses = f.responses[1:]
	}
	return resp, nil
}

func (f *fakeGenerator) Model() string { return "fake-model" }

func (f *fakeGenerator) lastPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.prompts) == 0 {
		return ""
	}
	return f.prompts[len(f.prompts)-1]
}

// fakeModel is a langchaingo model returning a fixed completion.
type fakeModel struct {
	content string
	err     error
	got     string
}

func (m *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	var parts []string
	for _, msg := range messages {
		for _, p := range msg.Parts {
			if text, ok := p.(llms.TextContent); ok {
				parts = append(parts, text.Text)
			}
		}
	}
	m.got = strings.Join(parts, "\n")
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: m.content}}}, nil
}

func (m *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

// fakeChannel records every delivery it accepts.
type fakeChannel struct {
	mu        sync.Mutex
	name      string
	accept    func(d Delivery, st *models.Settings) bool
	err       error
	delivered []Delivery
}

func (f *fakeChannel) Name() string { return f.name }

func (f *fakeChannel) Accepts(d Delivery, st *models.Settings) bool {
	if f.accept == nil {
		return true
	}
	return f.accept(d, st)
}

func (f *fakeChannel) Deliver(ctx context.Context, d Delivery) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delivered = append(f.delivered, d)
	return f.err
}

func (f *fakeChannel) deliveries() []Delivery {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Delivery(nil), f.delivered...)
}

// fakeGateway stands in for the payment processor.
type fakeGateway struct {
	customers int
	checkout  []CheckoutParams
	portal    []string
	event     stripe.Event
	parseErr  error
}

func (g *fakeGateway) CreateCustomer(ctx context.Context, email, userID string) (string, error) {
	g.customers++
	return fmt.Sprintf("cus_%d", g.customers), nil
}

func (g *fakeGateway) CreateCheckoutSession(ctx context.Context, p CheckoutParams) (string, error) {
	g.checkout = append(g.checkout, p)
	return "https://checkout.example/" + p.CustomerID, nil
}

func (g *fakeGateway) CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	g.portal = append(g.portal, customerID)
	return "https://portal.example/" + customerID, nil
}

func (g *fakeGateway) ParseWebhook(payload []byte, signature string) (stripe.Event, error) {
	if g.parseErr != nil {
		return stripe.Event{}, g.parseErr
	}
	return g.event, nil
}
