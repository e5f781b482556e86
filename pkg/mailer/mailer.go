package mailer

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"yamdb/pkg/utils"

	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// Mailer delivers plain-text messages.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// New returns an SMTP mailer, or a LogMailer when no SMTP host is configured.
func New(config utils.EmailConfig, log *zap.Logger) Mailer {
	if config.Host == "" {
		return NewLogMailer(log)
	}
	return NewSMTPMailer(config, log)
}

// ErrUnavailable is returned while the SMTP circuit is open.
var ErrUnavailable = errors.New("mail delivery temporarily unavailable")

const (
	breakerFailureThreshold = 5
	defaultSendTimeout      = 10 * time.Second
)

// SMTPMailer sends through an SMTP relay. Each delivery is bounded by the
// configured timeout and the caller's context. After breakerFailureThreshold
// consecutive failures the relay is skipped until the breaker half-opens.
type SMTPMailer struct {
	host    string
	addr    string
	from    string
	auth    smtp.Auth
	timeout time.Duration
	send    func(ctx context.Context, to string, msg []byte) error
	cb      *gobreaker.CircuitBreaker[struct{}]
}

func NewSMTPMailer(config utils.EmailConfig, log *zap.Logger) *SMTPMailer {
	log = log.With(zap.String("component", "mailer"))

	m := &SMTPMailer{
		host:    config.Host,
		addr:    net.JoinHostPort(config.Host, strconv.Itoa(config.Port)),
		from:    config.From,
		timeout: config.Timeout,
	}
	if m.timeout <= 0 {
		m.timeout = defaultSendTimeout
	}
	m.send = m.deliver
	if config.User != "" {
		m.auth = smtp.PlainAuth("", config.User, config.Password, config.Host)
	}

	m.cb = gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "smtp",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerFailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("SMTP circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return m
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err := m.cb.Execute(func() (struct{}, error) {
		return struct{}{}, m.send(ctx, to, BuildMessage(m.from, to, subject, body))
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrUnavailable
	}
	if err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}

// deliver runs one SMTP conversation. When the timeout passes or ctx is
// cancelled the connection deadline is pulled in, which aborts blocked I/O.
func (m *SMTPMailer) deliver(ctx context.Context, to string, msg []byte) error {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	dialer := &net.Dialer{Timeout: m.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", m.addr)
	if err != nil {
		return fmt.Errorf("connect to SMTP server: %w", err)
	}
	defer func() { _ = conn.Close() }()

	stop := context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Now()) })
	defer stop()

	client, err := smtp.NewClient(conn, m.host)
	if err != nil {
		return m.abort(ctx, "greeting", err)
	}
	defer func() { _ = client.Close() }()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: m.host, MinVersion: tls.VersionTLS12}); err != nil {
			return m.abort(ctx, "starttls", err)
		}
	}
	if m.auth != nil {
		if err := client.Auth(m.auth); err != nil {
			return m.abort(ctx, "auth", err)
		}
	}
	if err := client.Mail(m.from); err != nil {
		return m.abort(ctx, "mail from", err)
	}
	if err := client.Rcpt(to); err != nil {
		return m.abort(ctx, "rcpt to", err)
	}

	w, err := client.Data()
	if err != nil {
		return m.abort(ctx, "data", err)
	}
	if _, err := w.Write(msg); err != nil {
		return m.abort(ctx, "write body", err)
	}
	if err := w.Close(); err != nil {
		return m.abort(ctx, "end data", err)
	}

	return client.Quit()
}

// abort reports an SMTP step failure, preferring the context error when the
// deadline or a cancellation is what cut the conversation short.
func (*SMTPMailer) abort(ctx context.Context, step string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("smtp %s: %w", step, ctxErr)
	}
	return fmt.Errorf("smtp %s: %w", step, err)
}

func BuildMessage(from, to, subject, body string) []byte {
	var msg strings.Builder
	msg.WriteString(fmt.Sprintf("From: %s\r\n", from))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", to))
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)
	return []byte(msg.String())
}

// LogMailer writes messages to the logger instead of sending them.
type LogMailer struct {
	log *zap.Logger
}

func NewLogMailer(log *zap.Logger) *LogMailer {
	return &LogMailer{log: log.With(zap.String("component", "mailer"))}
}

func (m *LogMailer) Send(ctx context.Context, to, subject, body string) error {
	m.log.Info("Email delivery skipped, no SMTP host configured",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.String("body", body),
	)
	return nil
}
