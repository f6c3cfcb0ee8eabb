package invoice

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"time"
)

// DaysOverdue returns floor((now - due) / 1 day). Negative means the invoice
// is not due yet.
func DaysOverdue(now, due time.Time) int {
	return int(math.Floor(now.Sub(due).Hours() / 24))
}

// SelectNextStep picks the lowest-numbered step that has not been sent and
// whose threshold is met. The greedy least-escalated choice is deliberate:
// after a long gap between checks the sequence still walks every rung
// instead of jumping to the harshest eligible one.
func SelectNextStep(steps []ReminderStep, sentStepIDs map[string]bool, daysOverdue int) *ReminderStep {
	ordered := slices.Clone(steps)
	slices.SortFunc(ordered, func(a, b ReminderStep) int {
		return a.StepNumber - b.StepNumber
	})

	for i := range ordered {
		step := &ordered[i]
		if sentStepIDs[step.ID.Hex()] {
			continue
		}
		if daysOverdue >= step.DaysAfterDue {
			return step
		}
	}
	return nil
}

// SynthesizeStep builds the reminder used when no sequence is configured.
// Escalation is derived purely from how overdue the invoice is.
func SynthesizeStep(daysOverdue int) ReminderStep {
	level := EscalationStandard
	prefix := "Payment reminder"
	switch {
	case daysOverdue > 60:
		level = EscalationFinal
		prefix = "Final notice"
	case daysOverdue > 30:
		level = EscalationUrgent
		prefix = "Urgent payment reminder"
	}

	return ReminderStep{
		SubjectTemplate: fmt.Sprintf("%s: invoice {invoice_number}", prefix),
		BodyTemplate:    fmt.Sprintf("Dear {counterparty},<br/>invoice {invoice_number} is %d day(s) overdue. Please arrange payment.", daysOverdue),
		EscalationLevel: level,
	}
}

// RenderTemplate substitutes the supported placeholders.
func RenderTemplate(template, invoiceNumber, counterparty string) string {
	out := strings.ReplaceAll(template, "{invoice_number}", invoiceNumber)
	return strings.ReplaceAll(out, "{counterparty}", counterparty)
}
