package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"dar-review-api/config"
	"dar-review-api/services"
	"dar-review-api/stores"

	"github.com/robfig/cron/v3"
)

func main() {
	var (
		once     bool
		lockName string
	)

	flag.BoolVar(&once, "once", false, "send due reminders once and exit")
	flag.StringVar(&lockName, "lock-name", "dar_reminder_job", "MySQL advisory lock name; empty disables locking")
	flag.Parse()

	config.LoadEnv()
	settings := config.LoadSettings()

	_, closeLog, err := config.OpenLog(settings)
	if err != nil {
		log.Printf("Warning: logging to stdout only: %v", err)
	}
	defer closeLog()

	mailer := config.NewSMTPMailer(settings.SMTP)
	if !mailer.Configured() {
		log.Fatal("SMTP is not configured (SMTP_HOST, SMTP_FROM)")
	}

	db, err := config.OpenDB(settings)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	query := services.NewReminderService(stores.NewGormApplicationStore(db), stores.NewGormActionStore(db))
	job := services.NewReminderJob(query, stores.NewGormReminderMarkStore(db), stores.NewGormUserStore(db), mailer, services.SystemClock{}, services.ReminderOptions{
		IntervalDays: settings.ReminderDays,
		RepMailbox:   settings.RepMailbox,
		DACMailbox:   settings.DACMailbox,
		LockName:     lockName,
	})
	job.UseLocker(stores.NewGormLocker(db))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if once {
		summary, err := job.Run(ctx)
		if err != nil {
			log.Fatalf("reminder run failed: %v", err)
		}
		fmt.Printf("Reminders: checked=%d sent=%d skipped=%d failed=%d\n",
			summary.Checked, summary.Sent, summary.Skipped, summary.Failed)
		return
	}

	scheduler := cron.New(cron.WithLogger(cron.VerbosePrintfLogger(log.Default())))
	_, err = scheduler.AddFunc(settings.ReminderSchedule, func() {
		if _, err := job.Run(ctx); err != nil {
			if errors.Is(err, stores.ErrLockHeld) {
				log.Printf("[reminder] another instance is running, skipping")
				return
			}
			log.Printf("[reminder] run failed: %v", err)
		}
	})
	if err != nil {
		log.Fatalf("invalid DAR_REMINDER_SCHEDULE %q: %v", settings.ReminderSchedule, err)
	}

	log.Printf("[reminder] scheduled with %q", settings.ReminderSchedule)
	scheduler.Start()
	<-ctx.Done()
	<-scheduler.Stop().Done()
}
