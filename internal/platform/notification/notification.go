// Package notification delivers booking-related email and SMS messages with
// template rendering, an in-memory delivery log, retry support and Echo HTTP
// handlers. Delivery is best-effort: callers treat failures as warnings.
package notification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Channel is the delivery mechanism for a notification.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

// Delivery statuses recorded in the log.
const (
	StatusPending = "pending"
	StatusSent    = "sent"
	StatusFailed  = "failed"
)

// Notification is a single outbound message and its delivery record.
type Notification struct {
	ID           string            `json:"id"`
	Channel      Channel           `json:"channel"`
	Recipient    string            `json:"recipient"`
	Subject      string            `json:"subject,omitempty"`
	Body         string            `json:"body"`
	TemplateID   string            `json:"template_id,omitempty"`
	TemplateData map[string]string `json:"template_data,omitempty"`
	Status       string            `json:"status"`
	CreatedAt    time.Time         `json:"created_at"`
	SentAt       *time.Time        `json:"sent_at,omitempty"`
	Error        string            `json:"error,omitempty"`
}

// EmailSender is the interface for sending email messages.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// SMSSender is the interface for sending SMS messages.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

// Template defines a reusable notification template.
type Template struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Subject string  `json:"subject"`
	Body    string  `json:"body"`
	Channel Channel `json:"channel"`
}

// Built-in template ids for booking lifecycle events.
const (
	TemplateBookingConfirmation = "booking-confirmation"
	TemplateAppointmentReminder = "appointment-reminder"
	TemplateCancellation        = "appointment-cancellation"
	TemplateSMSReminder         = "sms-reminder"
)

// TemplateEngine manages notification templates and renders them with data.
type TemplateEngine struct {
	mu        sync.RWMutex
	templates map[string]*Template
}

// NewTemplateEngine creates a TemplateEngine with the booking templates
// pre-registered.
func NewTemplateEngine() *TemplateEngine {
	e := &TemplateEngine{templates: make(map[string]*Template)}
	e.registerBuiltIn()
	return e
}

func (e *TemplateEngine) registerBuiltIn() {
	builtIn := []Template{
		{
			ID:      TemplateBookingConfirmation,
			Name:    "Booking Confirmation",
			Subject: "Appointment confirmed - {{reference}}",
			Body: "Dear {{patient_name}},\n\n" +
				"Your appointment has been confirmed.\n\n" +
				"Doctor: {{doctor_name}} ({{specialization}})\n" +
				"Date: {{date}} at {{time}}\n" +
				"Location: {{address}}\n" +
				"Reference number: {{reference}}\n\n" +
				"Please arrive 10 minutes before your appointment. " +
				"If you need to cancel, do so at least 24 hours in advance.",
			Channel: ChannelEmail,
		},
		{
			ID:      TemplateAppointmentReminder,
			Name:    "Appointment Reminder",
			Subject: "Appointment reminder - {{date}} {{time}}",
			Body: "Dear {{patient_name}},\n\n" +
				"This is a reminder of your upcoming appointment.\n\n" +
				"Doctor: {{doctor_name}}\n" +
				"Date: {{date}} at {{time}}\n" +
				"Location: {{address}}\n" +
				"Reference number: {{reference}}",
			Channel: ChannelEmail,
		},
		{
			ID:      TemplateCancellation,
			Name:    "Appointment Cancellation",
			Subject: "Appointment cancelled - {{reference}}",
			Body: "Dear {{patient_name}},\n\n" +
				"Your appointment with {{doctor_name}} on {{date}} at {{time}} " +
				"has been cancelled.\n" +
				"Reference number: {{reference}}\n\n" +
				"You can book a new appointment at any time.",
			Channel: ChannelEmail,
		},
		{
			ID:      TemplateSMSReminder,
			Name:    "SMS Reminder",
			Subject: "",
			Body:    "Reminder: appointment with {{doctor_name}} on {{date}} at {{time}}. Ref: {{reference}}",
			Channel: ChannelSMS,
		},
	}
	for i := range builtIn {
		t := builtIn[i]
		e.templates[t.ID] = &t
	}
}

// RegisterTemplate adds or replaces a template in the engine.
func (e *TemplateEngine) RegisterTemplate(t Template) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.templates[t.ID] = &t
}

// Get returns a template by id.
func (e *TemplateEngine) Get(id string) (*Template, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	t, ok := e.templates[id]
	return t, ok
}

// List returns every registered template.
func (e *TemplateEngine) List() []*Template {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]*Template, 0, len(e.templates))
	for _, t := range e.templates {
		out = append(out, t)
	}
	return out
}

// Render looks up a template by ID and performs {{key}} replacement using the
// supplied data map. Keys present in the template but absent from data are
// left as-is.
func (e *TemplateEngine) Render(templateID string, data map[string]string) (subject, body string, err error) {
	t, ok := e.Get(templateID)
	if !ok {
		return "", "", fmt.Errorf("template %q not found", templateID)
	}
	subject = t.Subject
	body = t.Body
	for k, v := range data {
		placeholder := "{{" + k + "}}"
		subject = strings.ReplaceAll(subject, placeholder, v)
		body = strings.ReplaceAll(body, placeholder, v)
	}
	return subject, body, nil
}

// EmailCall records a single call to SendEmail.
type EmailCall struct {
	To      string
	Subject string
	Body    string
}

// MockEmailSender is a test double for EmailSender. It doubles as the default
// sender when no real provider is configured.
type MockEmailSender struct {
	mu         sync.Mutex
	calls      []EmailCall
	ShouldFail bool
	FailError  string
}

// SendEmail records the call and optionally returns an error.
func (m *MockEmailSender) SendEmail(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, EmailCall{To: to, Subject: subject, Body: body})
	if m.ShouldFail {
		return errors.New(m.FailError)
	}
	return nil
}

// Calls returns a copy of recorded email calls.
func (m *MockEmailSender) Calls() []EmailCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]EmailCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// SMSCall records a single call to SendSMS.
type SMSCall struct {
	To   string
	Body string
}

// MockSMSSender is a test double for SMSSender.
type MockSMSSender struct {
	mu         sync.Mutex
	calls      []SMSCall
	ShouldFail bool
	FailError  string
}

// SendSMS records the call and optionally returns an error.
func (m *MockSMSSender) SendSMS(_ context.Context, to, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, SMSCall{To: to, Body: body})
	if m.ShouldFail {
		return errors.New(m.FailError)
	}
	return nil
}

// Calls returns a copy of recorded SMS calls.
func (m *MockSMSSender) Calls() []SMSCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SMSCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// Manager orchestrates sending, the delivery log and retries.
type Manager struct {
	emailSender EmailSender
	smsSender   SMSSender
	templates   *TemplateEngine

	mu  sync.RWMutex
	log map[string]*Notification
}

// NewManager constructs a notification Manager.
func NewManager(email EmailSender, sms SMSSender, tpl *TemplateEngine) *Manager {
	return &Manager{
		emailSender: email,
		smsSender:   sms,
		templates:   tpl,
		log:         make(map[string]*Notification),
	}
}

// Templates exposes the template engine.
func (m *Manager) Templates() *TemplateEngine {
	return m.templates
}

func (m *Manager) dispatch(ctx context.Context, n *Notification) error {
	switch n.Channel {
	case ChannelEmail:
		return m.emailSender.SendEmail(ctx, n.Recipient, n.Subject, n.Body)
	case ChannelSMS:
		return m.smsSender.SendSMS(ctx, n.Recipient, n.Body)
	default:
		return fmt.Errorf("unsupported channel: %s", n.Channel)
	}
}

// Send dispatches a notification, assigns an ID and timestamps, and records
// the outcome in the delivery log.
func (m *Manager) Send(ctx context.Context, n *Notification) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	n.CreatedAt = time.Now().UTC()
	n.Status = StatusPending

	sendErr := m.dispatch(ctx, n)
	if sendErr != nil {
		n.Status = StatusFailed
		n.Error = sendErr.Error()
	} else {
		n.Status = StatusSent
		sentAt := time.Now().UTC()
		n.SentAt = &sentAt
	}

	m.mu.Lock()
	m.log[n.ID] = n
	m.mu.Unlock()

	return sendErr
}

// SendFromTemplate renders a template and sends the resulting notification.
func (m *Manager) SendFromTemplate(ctx context.Context, templateID string, data map[string]string, recipient string) (*Notification, error) {
	subject, body, err := m.templates.Render(templateID, data)
	if err != nil {
		return nil, fmt.Errorf("render template: %w", err)
	}
	tpl, _ := m.templates.Get(templateID)

	n := &Notification{
		Channel:      tpl.Channel,
		Recipient:    recipient,
		Subject:      subject,
		Body:         body,
		TemplateID:   templateID,
		TemplateData: data,
	}
	if err := m.Send(ctx, n); err != nil {
		return n, err
	}
	return n, nil
}

// Get retrieves a delivery-log entry by ID.
func (m *Manager) Get(_ context.Context, id string) (*Notification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n, ok := m.log[id]
	if !ok {
		return nil, fmt.Errorf("notification %q not found", id)
	}
	return n, nil
}

// ListByRecipient returns the log entries for a recipient, up to limit.
func (m *Manager) ListByRecipient(_ context.Context, recipient string, limit int) []*Notification {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*Notification
	for _, n := range m.log {
		if n.Recipient == recipient {
			result = append(result, n)
			if len(result) >= limit {
				break
			}
		}
	}
	return result
}

// Retry re-sends a failed notification. Only entries in failed status can be
// retried.
func (m *Manager) Retry(ctx context.Context, id string) error {
	m.mu.RLock()
	n, ok := m.log[id]
	m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("notification %q not found", id)
	}
	if n.Status != StatusFailed {
		return fmt.Errorf("notification %q is not in failed status (current: %s)", id, n.Status)
	}

	sendErr := m.dispatch(ctx, n)

	m.mu.Lock()
	if sendErr != nil {
		n.Status = StatusFailed
		n.Error = sendErr.Error()
	} else {
		n.Status = StatusSent
		sentAt := time.Now().UTC()
		n.SentAt = &sentAt
		n.Error = ""
	}
	m.mu.Unlock()

	return sendErr
}

// Stats returns delivery-log counts grouped by status.
func (m *Manager) Stats(_ context.Context) map[string]int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stats := make(map[string]int)
	for _, n := range m.log {
		stats[n.Status]++
	}
	return stats
}
