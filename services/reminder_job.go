package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"

	"dar-review-api/models"
	"dar-review-api/stores"
	"dar-review-api/utils"
	"dar-review-api/workflow"
)

// Mailer delivers an HTML message. config.SMTPMailer implements it.
type Mailer interface {
	Send(to []string, subject, html string) error
}

// UserDirectory resolves applicant contact details.
type UserDirectory interface {
	GetUser(ctx context.Context, id int) (models.User, error)
}

// ReminderOptions configures the reminder job.
type ReminderOptions struct {
	// IntervalDays is the reminder cadence. One reminder is due for each whole interval since
	// the last activity; a missed run catches up and a repeated run sends nothing new.
	IntervalDays int
	RepMailbox   []string
	DACMailbox   []string
	// LockName serializes runs across instances when a Locker is set.
	LockName string
}

// ReminderSummary reports what one run did.
type ReminderSummary struct {
	Checked int
	Sent    int
	Skipped int
	Failed  int
}

// ReminderJob nudges whoever an application is waiting on. It only reads lifecycle data.
type ReminderJob struct {
	query  *ReminderService
	marks  stores.ReminderMarkStore
	users  UserDirectory
	mailer Mailer
	clock  Clock
	locker stores.Locker
	opts   ReminderOptions
}

func NewReminderJob(query *ReminderService, marks stores.ReminderMarkStore, users UserDirectory, mailer Mailer, clock Clock, opts ReminderOptions) *ReminderJob {
	if clock == nil {
		clock = SystemClock{}
	}
	if opts.IntervalDays <= 0 {
		opts.IntervalDays = 7
	}
	return &ReminderJob{query: query, marks: marks, users: users, mailer: mailer, clock: clock, opts: opts}
}

// UseLocker makes Run take opts.LockName before doing any work.
func (j *ReminderJob) UseLocker(locker stores.Locker) {
	j.locker = locker
}

// ReminderStates are the states where an application waits on someone.
func ReminderStates() []workflow.State {
	return []workflow.State{
		workflow.StateRepReview,
		workflow.StateDacReview,
		workflow.StateRepRevisionRequested,
		workflow.StateDacRevisionsRequested,
	}
}

// Run sends the reminders due now. A failed delivery is counted and logged; the run continues.
// With a locker, a run that finds the lock held returns stores.ErrLockHeld.
func (j *ReminderJob) Run(ctx context.Context) (ReminderSummary, error) {
	if j.locker == nil {
		return j.run(ctx)
	}
	var summary ReminderSummary
	err := j.locker.WithLock(ctx, j.opts.LockName, func(ctx context.Context) error {
		var err error
		summary, err = j.run(ctx)
		return err
	})
	return summary, err
}

func (j *ReminderJob) run(ctx context.Context) (ReminderSummary, error) {
	var summary ReminderSummary

	items, err := j.query.ListApplicationsNeedingAttention(ctx, ReminderStates())
	if err != nil {
		return summary, fmt.Errorf("list applications needing attention: %w", err)
	}

	ids := make([]int, len(items))
	for i, item := range items {
		ids[i] = item.Application.ApplicationID
	}
	marks, err := j.marks.MarksFor(ctx, ids)
	if err != nil {
		return summary, fmt.Errorf("load reminder marks: %w", err)
	}

	now := j.clock.Now()
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		summary.Checked++

		activityAt := item.LastActivityAt()
		days := int(now.Sub(activityAt).Hours() / 24)
		interval := days / j.opts.IntervalDays
		if interval <= 0 {
			summary.Skipped++
			continue
		}
		if mark, ok := marks[item.Application.ApplicationID]; ok && mark.Covers(activityAt, interval) {
			summary.Skipped++
			continue
		}

		to, err := j.recipients(ctx, item.Application)
		if err != nil {
			log.Printf("[reminder] application_id=%d: resolve recipients: %v", item.Application.ApplicationID, err)
			summary.Failed++
			continue
		}
		if len(to) == 0 {
			summary.Skipped++
			continue
		}

		subject, body := reminderMessage(item, days)
		if err := j.mailer.Send(to, subject, body); err != nil {
			log.Printf("[reminder] application_id=%d: send to %v failed: %v", item.Application.ApplicationID, to, err)
			summary.Failed++
			continue
		}
		summary.Sent++

		mark := models.ReminderMark{
			ApplicationID: item.Application.ApplicationID,
			ActivityAt:    activityAt,
			Interval:      interval,
			SentAt:        now,
		}
		if err := j.marks.SaveMark(ctx, mark); err != nil {
			log.Printf("[reminder] application_id=%d: reminder sent but not recorded: %v", item.Application.ApplicationID, err)
		}
	}

	log.Printf("[reminder] run finished: checked=%d sent=%d skipped=%d failed=%d",
		summary.Checked, summary.Sent, summary.Skipped, summary.Failed)
	return summary, nil
}

func (j *ReminderJob) recipients(ctx context.Context, app models.Application) ([]string, error) {
	var candidates []string
	switch app.State {
	case workflow.StateRepReview:
		candidates = j.opts.RepMailbox
	case workflow.StateDacReview:
		candidates = j.opts.DACMailbox
	case workflow.StateRepRevisionRequested, workflow.StateDacRevisionsRequested:
		owner, err := j.users.GetUser(ctx, app.OwnerID)
		if err != nil {
			if errors.Is(err, stores.ErrNotFound) {
				return nil, nil
			}
			return nil, err
		}
		candidates = []string{owner.Email}
	}

	var to []string
	for _, addr := range candidates {
		if addr = utils.SanitizeInput(addr); utils.ValidateEmail(addr) {
			to = append(to, addr)
		}
	}
	return to, nil
}

func reminderMessage(item AttentionItem, days int) (string, string) {
	app := item.Application
	var subject, waiting string
	switch app.State {
	case workflow.StateRepReview:
		subject = "Data access request awaiting institutional review"
		waiting = "A data access request is waiting for review by the institutional representative."
	case workflow.StateDacReview:
		subject = "Data access request awaiting DAC review"
		waiting = "A data access request is waiting for review by the Data Access Committee."
	default:
		subject = "Revisions requested on your data access request"
		waiting = "Your data access request is waiting for the revisions the reviewers asked for."
	}

	meta := []emailMetaItem{
		{Label: "Reference", Value: app.ReferenceNumber},
		{Label: "Application", Value: strconv.Itoa(app.ApplicationID)},
		{Label: "Status", Value: string(app.State)},
		{Label: "Days waiting", Value: strconv.Itoa(days)},
		{Label: "Last activity", Value: item.LastActivityAt().Format("2006-01-02")},
	}
	return subject, buildReminderEmail(subject, []string{waiting}, meta)
}
