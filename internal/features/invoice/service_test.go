package invoice

import (
	"context"
	"errors"
	"testing"
	"time"

	common_models "go-eventops/internal/common/models"
	"go-eventops/internal/config"
	"go-eventops/internal/features/contact"
	"go-eventops/internal/features/mail"
	"go-eventops/internal/features/notification"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type fakeInvoices struct {
	byID    map[primitive.ObjectID]*Invoice
	overdue []Invoice
}

func (f *fakeInvoices) Create(ctx context.Context, invoice *Invoice) error { return nil }

func (f *fakeInvoices) GetByID(ctx context.Context, id primitive.ObjectID) (*Invoice, error) {
	return f.byID[id], nil
}

func (f *fakeInvoices) List(ctx context.Context, organizationID primitive.ObjectID) ([]Invoice, error) {
	return nil, nil
}

func (f *fakeInvoices) ListOverdueUnpaid(ctx context.Context, asOf time.Time) ([]Invoice, error) {
	return f.overdue, nil
}

type fakeSequences struct {
	sequence *ReminderSequence
}

func (f *fakeSequences) Create(ctx context.Context, sequence *ReminderSequence) error { return nil }

func (f *fakeSequences) List(ctx context.Context, organizationID primitive.ObjectID) ([]ReminderSequence, error) {
	return nil, nil
}

func (f *fakeSequences) FindForOrganization(ctx context.Context, organizationID primitive.ObjectID) (*ReminderSequence, error) {
	return f.sequence, nil
}

type fakeReminderLog struct {
	entries   []ReminderLog
	sent      map[string]bool
	createErr error
}

func (f *fakeReminderLog) Create(ctx context.Context, entry *ReminderLog) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.entries = append(f.entries, *entry)
	if entry.StepID != nil {
		if f.sent == nil {
			f.sent = map[string]bool{}
		}
		f.sent[entry.StepID.Hex()] = true
	}
	return nil
}

func (f *fakeReminderLog) ListByInvoice(ctx context.Context, invoiceID primitive.ObjectID) ([]ReminderLog, error) {
	return f.entries, nil
}

func (f *fakeReminderLog) SentStepIDs(ctx context.Context, invoiceID primitive.ObjectID) (map[string]bool, error) {
	return f.sent, nil
}

func (f *fakeReminderLog) EnsureIndexes(ctx context.Context) error { return nil }

type fakeContacts struct {
	contact *contact.Contact
}

func (f *fakeContacts) Create(ctx context.Context, c *contact.Contact) error { return nil }

func (f *fakeContacts) GetByID(ctx context.Context, id primitive.ObjectID) (*contact.Contact, error) {
	return f.contact, nil
}

type fakeCompanies struct {
	company *contact.Company
}

func (f *fakeCompanies) Create(ctx context.Context, c *contact.Company) error { return nil }

func (f *fakeCompanies) GetByID(ctx context.Context, id primitive.ObjectID) (*contact.Company, error) {
	return f.company, nil
}

type fakeMailer struct {
	sent []mail.Message
	err  error
}

func (f *fakeMailer) Send(ctx context.Context, msg *mail.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, *msg)
	return nil
}

type fakeOwnerNotifier struct {
	calls int
	err   error
}

func (f *fakeOwnerNotifier) CreateNotification(ctx context.Context, organizationID, userID primitive.ObjectID, title, message string, notifType notification.NotificationType, link string) error {
	f.calls++
	return f.err
}

type fakeAudit struct {
	actions []common_models.AuditAction
}

func (f *fakeAudit) LogChange(ctx context.Context, action common_models.AuditAction, entityType string, entityID string, oldValues, newValues map[string]interface{}) error {
	f.actions = append(f.actions, action)
	return nil
}

func (f *fakeAudit) ListLogs(ctx context.Context, filters map[string]interface{}, page, limit int64) ([]common_models.AuditLog, error) {
	return nil, nil
}

func (f *fakeAudit) ExportLogs(ctx context.Context, filters map[string]interface{}) ([]byte, string, error) {
	return nil, "", nil
}

type reminderFixture struct {
	svc       *ReminderServiceImpl
	invoices  *fakeInvoices
	sequences *fakeSequences
	log       *fakeReminderLog
	mailer    *fakeMailer
	notifier  *fakeOwnerNotifier
	audit     *fakeAudit
	invoice   *Invoice
	now       time.Time
}

func newReminderFixture(t *testing.T, invoice *Invoice) *reminderFixture {
	t.Helper()
	f := &reminderFixture{
		invoices:  &fakeInvoices{byID: map[primitive.ObjectID]*Invoice{}},
		sequences: &fakeSequences{},
		log:       &fakeReminderLog{},
		mailer:    &fakeMailer{},
		notifier:  &fakeOwnerNotifier{},
		audit:     &fakeAudit{},
		invoice:   invoice,
		now:       time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	if invoice != nil {
		f.invoices.byID[invoice.ID] = invoice
	}
	f.svc = &ReminderServiceImpl{
		Invoices:      f.invoices,
		Sequences:     f.sequences,
		Log:           f.log,
		Contacts:      &fakeContacts{contact: &contact.Contact{Name: "Acme Ltd", Email: "billing@acme.test"}},
		Companies:     &fakeCompanies{},
		Mailer:        f.mailer,
		Notifications: f.notifier,
		AuditService:  f.audit,
		Config:        &config.Config{SMTPFrom: "ar@example.test"},
		Logger:        zap.NewNop(),
	}
	f.svc.now = func() time.Time { return f.now }
	return f
}

func overdueInvoice(days int, now time.Time) *Invoice {
	contactID := primitive.NewObjectID()
	return &Invoice{
		ID:             primitive.NewObjectID(),
		OrganizationID: primitive.NewObjectID(),
		OwnerID:        primitive.NewObjectID(),
		Number:         "INV-100",
		Status:         InvoiceStatusSent,
		Amount:         1200,
		DueDate:        now.AddDate(0, 0, -days),
		ContactID:      &contactID,
	}
}

func TestSendReminderStatusGuards(t *testing.T) {
	tests := []struct {
		name    string
		status  InvoiceStatus
		wantErr error
	}{
		{"paid invoice", InvoiceStatusPaid, ErrAlreadyPaid},
		{"draft invoice", InvoiceStatusDraft, ErrStillDraft},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := overdueInvoice(10, time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
			inv.Status = tt.status
			f := newReminderFixture(t, inv)

			_, err := f.svc.SendReminder(context.Background(), inv.ID.Hex())
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if len(f.log.entries) != 0 {
				t.Error("guard failure still wrote a ledger entry")
			}
		})
	}
}

func TestSendReminderNotYetOverdue(t *testing.T) {
	inv := overdueInvoice(-5, time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	f := newReminderFixture(t, inv)

	if _, err := f.svc.SendReminder(context.Background(), inv.ID.Hex()); !errors.Is(err, ErrNotYetOverdue) {
		t.Fatalf("err = %v, want ErrNotYetOverdue", err)
	}
}

func TestSendReminderNotFound(t *testing.T) {
	f := newReminderFixture(t, nil)

	if _, err := f.svc.SendReminder(context.Background(), primitive.NewObjectID().Hex()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown id: err = %v, want ErrNotFound", err)
	}
	if _, err := f.svc.SendReminder(context.Background(), "bogus"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("malformed id: err = %v, want ErrNotFound", err)
	}
}

func TestSendReminderNoRecipient(t *testing.T) {
	inv := overdueInvoice(10, time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	f := newReminderFixture(t, inv)
	f.svc.Contacts = &fakeContacts{contact: &contact.Contact{Name: "Acme Ltd"}} // no email
	f.svc.Companies = &fakeCompanies{}

	if _, err := f.svc.SendReminder(context.Background(), inv.ID.Hex()); !errors.Is(err, ErrNoRecipient) {
		t.Fatalf("err = %v, want ErrNoRecipient", err)
	}
}

func TestSendReminderFallsBackToCompanyEmail(t *testing.T) {
	inv := overdueInvoice(10, time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	inv.ContactID = nil
	companyID := primitive.NewObjectID()
	inv.CompanyID = &companyID
	f := newReminderFixture(t, inv)
	f.svc.Companies = &fakeCompanies{company: &contact.Company{Name: "Globex", Email: "ap@globex.test"}}

	result, err := f.svc.SendReminder(context.Background(), inv.ID.Hex())
	if err != nil {
		t.Fatalf("SendReminder() error = %v", err)
	}
	if result.Recipient != "ap@globex.test" {
		t.Errorf("recipient = %s, want the company email", result.Recipient)
	}
}

func TestSendReminderWalksConfiguredSequence(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	inv := overdueInvoice(10, now)
	f := newReminderFixture(t, inv)
	f.sequences.sequence = &ReminderSequence{
		Active: true,
		Steps: []ReminderStep{
			{ID: primitive.NewObjectID(), StepNumber: 1, DaysAfterDue: 0, SubjectTemplate: "Reminder: {invoice_number}", BodyTemplate: "Hi {counterparty}", EscalationLevel: EscalationStandard},
			{ID: primitive.NewObjectID(), StepNumber: 2, DaysAfterDue: 7, SubjectTemplate: "Second reminder: {invoice_number}", BodyTemplate: "Hi {counterparty}", EscalationLevel: EscalationUrgent},
			{ID: primitive.NewObjectID(), StepNumber: 3, DaysAfterDue: 14, SubjectTemplate: "Final: {invoice_number}", BodyTemplate: "Hi {counterparty}", EscalationLevel: EscalationFinal},
		},
	}

	first, err := f.svc.SendReminder(context.Background(), inv.ID.Hex())
	if err != nil {
		t.Fatalf("first send error = %v", err)
	}
	if first.LogEntry.StepNumber != 1 || first.EscalationLevel != EscalationStandard {
		t.Errorf("first send took step %d (%s), want step 1 (standard)", first.LogEntry.StepNumber, first.EscalationLevel)
	}
	if first.Subject != "Reminder: INV-100" {
		t.Errorf("subject = %q, templates were not rendered", first.Subject)
	}
	if first.DaysOverdue != 10 {
		t.Errorf("days overdue = %d, want 10", first.DaysOverdue)
	}

	second, err := f.svc.SendReminder(context.Background(), inv.ID.Hex())
	if err != nil {
		t.Fatalf("second send error = %v", err)
	}
	if second.LogEntry.StepNumber != 2 || second.EscalationLevel != EscalationUrgent {
		t.Errorf("second send took step %d (%s), want step 2 (urgent)", second.LogEntry.StepNumber, second.EscalationLevel)
	}

	// Step 3 needs 14 days; at 10 days overdue the sequence is caught up.
	if _, err := f.svc.SendReminder(context.Background(), inv.ID.Hex()); !errors.Is(err, ErrNoStepDue) {
		t.Fatalf("third send err = %v, want ErrNoStepDue", err)
	}

	if len(f.mailer.sent) != 2 {
		t.Errorf("mails sent = %d, want 2", len(f.mailer.sent))
	}
	if f.mailer.sent[0].From != "ar@example.test" {
		t.Errorf("mail from = %s, want the configured sender", f.mailer.sent[0].From)
	}
	if f.notifier.calls != 2 {
		t.Errorf("owner notifications = %d, want 2", f.notifier.calls)
	}
	for _, action := range f.audit.actions {
		if action != common_models.AuditActionReminder {
			t.Errorf("unexpected audit action %s", action)
		}
	}
}

func TestSendReminderSynthesizesWithoutSequence(t *testing.T) {
	tests := []struct {
		days int
		want EscalationLevel
	}{
		{5, EscalationStandard},
		{45, EscalationUrgent},
		{90, EscalationFinal},
	}

	for _, tt := range tests {
		now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
		inv := overdueInvoice(tt.days, now)
		f := newReminderFixture(t, inv)

		result, err := f.svc.SendReminder(context.Background(), inv.ID.Hex())
		if err != nil {
			t.Fatalf("days=%d: SendReminder() error = %v", tt.days, err)
		}
		if result.EscalationLevel != tt.want {
			t.Errorf("days=%d: escalation = %s, want %s", tt.days, result.EscalationLevel, tt.want)
		}
		if result.LogEntry.StepID != nil {
			t.Errorf("days=%d: fallback reminder carries a step id", tt.days)
		}
	}
}

func TestSendReminderConflict(t *testing.T) {
	inv := overdueInvoice(10, time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	f := newReminderFixture(t, inv)
	f.log.createErr = mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000}}}

	_, err := f.svc.SendReminder(context.Background(), inv.ID.Hex())
	if !errors.Is(err, ErrReminderConflict) {
		t.Fatalf("err = %v, want ErrReminderConflict", err)
	}
	if len(f.mailer.sent) != 0 {
		t.Error("mail went out after losing the ledger race")
	}
	if f.notifier.calls != 0 {
		t.Error("owner was notified after losing the ledger race")
	}
}

func TestSendReminderSurvivesMailFailure(t *testing.T) {
	inv := overdueInvoice(10, time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	f := newReminderFixture(t, inv)
	f.mailer.err = errors.New("smtp down")
	f.notifier.err = errors.New("notify down")

	result, err := f.svc.SendReminder(context.Background(), inv.ID.Hex())
	if err != nil {
		t.Fatalf("SendReminder() error = %v, delivery failures must not surface", err)
	}
	if len(f.log.entries) != 1 {
		t.Errorf("ledger entries = %d, want 1", len(f.log.entries))
	}
	if result.LogEntry == nil {
		t.Error("result lost the ledger entry")
	}
}

func TestProcessOverdueSkipsFailuresAndContinues(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	sendable := overdueInvoice(10, now)
	noRecipient := overdueInvoice(20, now)
	noRecipient.ContactID = nil

	f := newReminderFixture(t, sendable)
	f.invoices.byID[noRecipient.ID] = noRecipient
	f.invoices.overdue = []Invoice{*noRecipient, *sendable}

	if err := f.svc.ProcessOverdue(context.Background()); err != nil {
		t.Fatalf("ProcessOverdue() error = %v", err)
	}
	if len(f.log.entries) != 1 {
		t.Fatalf("ledger entries = %d, want 1 (the sendable invoice only)", len(f.log.entries))
	}
	if f.log.entries[0].InvoiceID != sendable.ID {
		t.Errorf("reminder logged for %s, want %s", f.log.entries[0].InvoiceID.Hex(), sendable.ID.Hex())
	}
}
