package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadSettingsDefaults(t *testing.T) {
	for _, key := range []string{"SERVER_PORT", "DAR_TX_TIMEOUT", "DAR_REMINDER_DAYS", "DAR_REMINDER_SCHEDULE", "DAR_APPROVAL_VALIDITY_DAYS", "SMTP_PORT", "DAR_REVIEWER_ROLE_IDS"} {
		t.Setenv(key, "")
	}

	s := LoadSettings()
	assert.Equal(t, "8080", s.ServerPort)
	assert.Equal(t, 5*time.Second, s.TxTimeout)
	assert.Equal(t, 7, s.ReminderDays)
	assert.Equal(t, "0 8 * * *", s.ReminderSchedule)
	assert.Zero(t, s.ApprovalValidity)
	assert.Equal(t, 587, s.SMTP.Port)
	assert.Empty(t, s.ReviewerRoleIDs)
}

func TestLoadSettingsFromEnvironment(t *testing.T) {
	t.Setenv("DAR_TX_TIMEOUT", "3")
	t.Setenv("DAR_APPROVAL_VALIDITY_DAYS", "365")
	t.Setenv("DAR_REP_MAILBOX", "rep@example.org, ,ops@example.org")
	t.Setenv("DAR_REVIEWER_ROLE_IDS", "3,x,4")
	t.Setenv("ENVIRONMENT", "Production")
	t.Setenv("DAR_REMINDER_DAYS", "soon")

	s := LoadSettings()
	assert.Equal(t, 3*time.Second, s.TxTimeout)
	assert.Equal(t, 365*24*time.Hour, s.ApprovalValidity)
	assert.Equal(t, []string{"rep@example.org", "ops@example.org"}, s.RepMailbox)
	assert.Equal(t, []int{3, 4}, s.ReviewerRoleIDs)
	assert.True(t, s.IsProduction())
	assert.Equal(t, 7, s.ReminderDays)

	t.Setenv("DAR_TX_TIMEOUT", "750ms")
	assert.Equal(t, 750*time.Millisecond, LoadSettings().TxTimeout)
}

func TestDSNUsesUTC(t *testing.T) {
	dsn := DSN(Settings{DBUsername: "dar", DBPassword: "pw", DBHost: "db", DBPort: "3306", DBDatabase: "dar"})
	assert.Equal(t, "dar:pw@tcp(db:3306)/dar?charset=utf8mb4&parseTime=True&loc=UTC", dsn)
}

func TestSMTPMailerMessage(t *testing.T) {
	m := NewSMTPMailer(SMTPSettings{Host: "smtp.example.org", From: "DAR Office <no-reply@example.org>"})
	assert.True(t, m.Configured())

	msg := m.Message([]string{"a@example.org", "b@example.org"}, "Reminder", "<p>hi</p>")
	assert.Equal(t, []string{"DAR Office <no-reply@example.org>"}, msg.GetHeader("From"))
	assert.Equal(t, []string{"a@example.org", "b@example.org"}, msg.GetHeader("To"))
	assert.Equal(t, []string{"Reminder"}, msg.GetHeader("Subject"))

	assert.NoError(t, m.Send(nil, "Reminder", "<p>hi</p>"))
	assert.Error(t, NewSMTPMailer(SMTPSettings{}).Send([]string{"a@example.org"}, "x", "y"))
}
