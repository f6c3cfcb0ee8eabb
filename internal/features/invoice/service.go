package invoice

import (
	"context"
	"fmt"
	"time"

	common_models "go-eventops/internal/common/models"
	"go-eventops/internal/config"
	"go-eventops/internal/features/audit"
	"go-eventops/internal/features/contact"
	"go-eventops/internal/features/mail"
	"go-eventops/internal/features/notification"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// OwnerNotifier is the slice of the notification feature the reminder path
// needs to tell the invoice owner a reminder went out.
type OwnerNotifier interface {
	CreateNotification(ctx context.Context, organizationID, userID primitive.ObjectID, title, message string, notifType notification.NotificationType, link string) error
}

// ReminderResult is returned after a reminder was logged. The mail itself is
// best-effort; a non-nil result means the ledger write went through.
type ReminderResult struct {
	LogEntry        *ReminderLog    `json:"log_entry"`
	Recipient       string          `json:"recipient"`
	Subject         string          `json:"subject"`
	DaysOverdue     int             `json:"days_overdue"`
	EscalationLevel EscalationLevel `json:"escalation_level"`
}

type ReminderService interface {
	CreateInvoice(ctx context.Context, invoice *Invoice) error
	GetInvoice(ctx context.Context, id string) (*Invoice, error)
	ListInvoices(ctx context.Context, organizationID primitive.ObjectID) ([]Invoice, error)
	CreateSequence(ctx context.Context, sequence *ReminderSequence) error
	ListSequences(ctx context.Context, organizationID primitive.ObjectID) ([]ReminderSequence, error)

	// SendReminder sends the next eligible reminder for one invoice. The
	// ledger insert is the only step whose failure aborts; mail, the owner
	// notification and audit run best-effort afterwards.
	SendReminder(ctx context.Context, invoiceID string) (*ReminderResult, error)

	ListReminders(ctx context.Context, invoiceID string) ([]ReminderLog, error)

	// ProcessOverdue walks every unpaid past-due invoice and sends whatever
	// is due. Per-invoice failures are logged and skipped.
	ProcessOverdue(ctx context.Context) error
}

type ReminderServiceImpl struct {
	Invoices      InvoiceRepository
	Sequences     ReminderSequenceRepository
	Log           ReminderLogRepository
	Contacts      contact.ContactRepository
	Companies     contact.CompanyRepository
	Mailer        mail.Sender
	Notifications OwnerNotifier
	AuditService  audit.AuditService
	Config        *config.Config
	Logger        *zap.Logger
	now           func() time.Time
}

func NewReminderService(
	invoices InvoiceRepository,
	sequences ReminderSequenceRepository,
	log ReminderLogRepository,
	contacts contact.ContactRepository,
	companies contact.CompanyRepository,
	mailer mail.Sender,
	notifications notification.NotificationService,
	auditService audit.AuditService,
	cfg *config.Config,
	logger *zap.Logger,
) ReminderService {
	return &ReminderServiceImpl{
		Invoices:      invoices,
		Sequences:     sequences,
		Log:           log,
		Contacts:      contacts,
		Companies:     companies,
		Mailer:        mailer,
		Notifications: notifications,
		AuditService:  auditService,
		Config:        cfg,
		Logger:        logger,
		now:           time.Now,
	}
}

func (s *ReminderServiceImpl) CreateInvoice(ctx context.Context, invoice *Invoice) error {
	if invoice.Status == "" {
		invoice.Status = InvoiceStatusDraft
	}
	if err := s.Invoices.Create(ctx, invoice); err != nil {
		return err
	}
	_ = s.AuditService.LogChange(ctx, common_models.AuditActionCreate, "invoice", invoice.ID.Hex(), nil, map[string]interface{}{
		"number": invoice.Number,
		"amount": invoice.Amount,
		"status": invoice.Status,
	})
	return nil
}

func (s *ReminderServiceImpl) GetInvoice(ctx context.Context, id string) (*Invoice, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	invoice, err := s.Invoices.GetByID(ctx, objID)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, ErrNotFound
	}
	return invoice, nil
}

func (s *ReminderServiceImpl) ListInvoices(ctx context.Context, organizationID primitive.ObjectID) ([]Invoice, error) {
	return s.Invoices.List(ctx, organizationID)
}

func (s *ReminderServiceImpl) CreateSequence(ctx context.Context, sequence *ReminderSequence) error {
	for i := range sequence.Steps {
		if sequence.Steps[i].ID.IsZero() {
			sequence.Steps[i].ID = primitive.NewObjectID()
		}
	}
	if err := s.Sequences.Create(ctx, sequence); err != nil {
		return err
	}
	_ = s.AuditService.LogChange(ctx, common_models.AuditActionCreate, "reminder_sequence", sequence.ID.Hex(), nil, map[string]interface{}{
		"name":  sequence.Name,
		"steps": len(sequence.Steps),
	})
	return nil
}

func (s *ReminderServiceImpl) ListSequences(ctx context.Context, organizationID primitive.ObjectID) ([]ReminderSequence, error) {
	return s.Sequences.List(ctx, organizationID)
}

func (s *ReminderServiceImpl) SendReminder(ctx context.Context, invoiceID string) (*ReminderResult, error) {
	invoice, err := s.GetInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	return s.sendFor(ctx, invoice)
}

func (s *ReminderServiceImpl) sendFor(ctx context.Context, invoice *Invoice) (*ReminderResult, error) {
	switch invoice.Status {
	case InvoiceStatusPaid:
		return nil, ErrAlreadyPaid
	case InvoiceStatusDraft:
		return nil, ErrStillDraft
	}

	daysOverdue := DaysOverdue(s.now(), invoice.DueDate)
	if daysOverdue < 0 {
		return nil, ErrNotYetOverdue
	}

	recipient, counterparty, err := s.resolveRecipient(ctx, invoice)
	if err != nil {
		return nil, err
	}

	sequence, err := s.Sequences.FindForOrganization(ctx, invoice.OrganizationID)
	if err != nil {
		return nil, err
	}

	var step ReminderStep
	if sequence != nil {
		sent, err := s.Log.SentStepIDs(ctx, invoice.ID)
		if err != nil {
			return nil, err
		}
		next := SelectNextStep(sequence.Steps, sent, daysOverdue)
		if next == nil {
			return nil, ErrNoStepDue
		}
		step = *next
	} else {
		step = SynthesizeStep(daysOverdue)
	}

	subject := RenderTemplate(step.SubjectTemplate, invoice.Number, counterparty)
	body := RenderTemplate(step.BodyTemplate, invoice.Number, counterparty)

	entry := &ReminderLog{
		OrganizationID:  invoice.OrganizationID,
		InvoiceID:       invoice.ID,
		StepNumber:      step.StepNumber,
		EscalationLevel: step.EscalationLevel,
		Subject:         subject,
		Recipient:       recipient,
		DaysOverdue:     daysOverdue,
		SentAt:          s.now(),
	}
	if !step.ID.IsZero() {
		stepID := step.ID
		entry.StepID = &stepID
	}

	// The ledger insert races concurrent sends of the same step; the unique
	// index decides the winner. Nothing goes out before this succeeds.
	if err := s.Log.Create(ctx, entry); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrReminderConflict
		}
		return nil, err
	}

	if err := s.Mailer.Send(ctx, &mail.Message{
		From:     s.Config.SMTPFrom,
		To:       []string{recipient},
		Subject:  subject,
		HtmlBody: body,
	}); err != nil {
		s.Logger.Warn("Failed to send reminder mail",
			zap.String("invoice_id", invoice.ID.Hex()),
			zap.String("recipient", recipient),
			zap.Error(err))
	}

	if err := s.Notifications.CreateNotification(ctx, invoice.OrganizationID, invoice.OwnerID,
		fmt.Sprintf("Reminder sent for invoice %s", invoice.Number),
		fmt.Sprintf("A %s reminder went to %s (%d day(s) overdue).", step.EscalationLevel, recipient, daysOverdue),
		notification.NotificationTypeReminder,
		fmt.Sprintf("/invoices/%s", invoice.ID.Hex()),
	); err != nil {
		s.Logger.Warn("Failed to notify invoice owner",
			zap.String("invoice_id", invoice.ID.Hex()),
			zap.Error(err))
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionReminder, "invoice", invoice.ID.Hex(), nil, map[string]interface{}{
		"recipient":        recipient,
		"subject":          subject,
		"escalation_level": step.EscalationLevel,
		"days_overdue":     daysOverdue,
		"step_number":      step.StepNumber,
	})

	return &ReminderResult{
		LogEntry:        entry,
		Recipient:       recipient,
		Subject:         subject,
		DaysOverdue:     daysOverdue,
		EscalationLevel: step.EscalationLevel,
	}, nil
}

// resolveRecipient prefers the linked contact's email and falls back to the
// linked company's. The second return is the counterparty display name.
func (s *ReminderServiceImpl) resolveRecipient(ctx context.Context, invoice *Invoice) (string, string, error) {
	if invoice.ContactID != nil {
		c, err := s.Contacts.GetByID(ctx, *invoice.ContactID)
		if err != nil {
			return "", "", err
		}
		if c != nil && c.Email != "" {
			return c.Email, c.Name, nil
		}
	}
	if invoice.CompanyID != nil {
		co, err := s.Companies.GetByID(ctx, *invoice.CompanyID)
		if err != nil {
			return "", "", err
		}
		if co != nil && co.Email != "" {
			return co.Email, co.Name, nil
		}
	}
	return "", "", ErrNoRecipient
}

func (s *ReminderServiceImpl) ListReminders(ctx context.Context, invoiceID string) ([]ReminderLog, error) {
	objID, err := primitive.ObjectIDFromHex(invoiceID)
	if err != nil {
		return nil, ErrNotFound
	}
	invoice, err := s.Invoices.GetByID(ctx, objID)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, ErrNotFound
	}
	return s.Log.ListByInvoice(ctx, objID)
}

func (s *ReminderServiceImpl) ProcessOverdue(ctx context.Context) error {
	invoices, err := s.Invoices.ListOverdueUnpaid(ctx, s.now())
	if err != nil {
		return err
	}

	var sent, skipped int
	for i := range invoices {
		invoice := &invoices[i]
		result, err := s.sendFor(ctx, invoice)
		switch {
		case err == nil:
			sent++
			s.Logger.Info("Sent overdue reminder",
				zap.String("invoice_id", invoice.ID.Hex()),
				zap.String("escalation_level", string(result.EscalationLevel)))
		case err == ErrNoStepDue || err == ErrReminderConflict || err == ErrNotYetOverdue:
			skipped++
		default:
			skipped++
			s.Logger.Warn("Failed to send overdue reminder",
				zap.String("invoice_id", invoice.ID.Hex()),
				zap.Error(err))
		}
	}

	s.Logger.Info("Overdue reminder pass finished",
		zap.Int("scanned", len(invoices)),
		zap.Int("sent", sent),
		zap.Int("skipped", skipped))
	return nil
}
