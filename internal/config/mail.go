package config

// MailConfig holds SMTP settings. An empty Host means outgoing mail is
// written to the log instead of being delivered.
type MailConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// Enabled reports whether an SMTP relay is configured.
func (m MailConfig) Enabled() bool { return m.Host != "" }

func LoadMailConfig() MailConfig {
	return MailConfig{
		Host:     envStr("SMTP_HOST", ""),
		Port:     envInt("SMTP_PORT", 587),
		User:     envStr("SMTP_USER", ""),
		Password: envStr("SMTP_PASS", ""),
		From:     envStr("MAIL_FROM", "no-reply@event-booking.local"),
	}
}
