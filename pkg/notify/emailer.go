// Package notify sends the registration notification email over SMTP.
package notify

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"mime"
	"mime/quotedprintable"
	"net"
	"net/smtp"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"argg-api/pkg/config"
	"argg-api/pkg/shared"
)

const (
	PortImplicitTLS = 465
	PortStartTLS    = 587

	codeAuthFailed = 535
)

// security is how a session is protected. Only protected sessions log in.
type security int

const (
	securityNone security = iota
	securityImplicitTLS
	securityStartTLS
)

func securityForPort(port int) security {
	switch port {
	case PortImplicitTLS:
		return securityImplicitTLS
	case PortStartTLS:
		return securityStartTLS
	default:
		return securityNone
	}
}

type Emailer struct {
	server    string
	port      int
	security  security
	from      string
	password  string
	tlsConfig *tls.Config
	dialer    *net.Dialer
}

func New(cfg config.SMTPConfig) *Emailer {
	return &Emailer{
		server:    cfg.Server,
		port:      cfg.Port,
		security:  securityForPort(cfg.Port),
		from:      cfg.FromAddress,
		password:  cfg.FromPassword,
		tlsConfig: &tls.Config{ServerName: cfg.Server, MinVersion: tls.VersionTLS12},
		dialer:    &net.Dialer{Timeout: 30 * time.Second},
	}
}

// Send delivers an HTML message to every address of the comma separated
// recipients list. It succeeds when at least one recipient is accepted.
func (e *Emailer) Send(ctx context.Context, recipients, subject, htmlBody string) error {
	to := SplitRecipients(recipients)
	switch {
	case len(to) == 0:
		return shared.NewAppError(shared.ErrCodeConfigError, "no recipient email addresses", nil)
	case e.from == "":
		return shared.NewAppError(shared.ErrCodeConfigError, "no sender email address", nil)
	case e.server == "":
		return shared.NewAppError(shared.ErrCodeConfigError, "no SMTP server", nil)
	}

	msg, err := buildMessage(e.from, to, subject, htmlBody)
	if err != nil {
		return fmt.Errorf("failed to build message: %w", err)
	}

	c, err := e.connect(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	if e.secure() {
		if err := c.Auth(smtp.PlainAuth("", e.from, e.password, e.server)); err != nil {
			return authError(err)
		}
	}

	if err := c.Mail(e.from); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}

	accepted := 0
	for _, rcpt := range to {
		if err := c.Rcpt(rcpt); err != nil {
			log.Warn().Err(err).Str("recipient", rcpt).Msg("Recipient refused")
			continue
		}
		accepted++
	}
	if accepted == 0 {
		_ = c.Reset()
		_ = c.Quit()
		return shared.NewAppError(shared.ErrCodeNotifyRecipients,
			"all recipients were refused", nil).WithDetails(strings.Join(to, ", "))
	}

	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("failed to start message data: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	if err := c.Quit(); err != nil {
		log.Debug().Err(err).Msg("SMTP quit failed after delivery")
	}

	log.Debug().Int("recipients", accepted).Str("subject", subject).Msg("Notification email sent")
	return nil
}

func (e *Emailer) secure() bool {
	return e.security != securityNone
}

func (e *Emailer) connect(ctx context.Context) (*smtp.Client, error) {
	addr := net.JoinHostPort(e.server, strconv.Itoa(e.port))

	var conn net.Conn
	var err error
	if e.security == securityImplicitTLS {
		td := &tls.Dialer{NetDialer: e.dialer, Config: e.tlsConfig}
		conn, err = td.DialContext(ctx, "tcp", addr)
	} else {
		conn, err = e.dialer.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	c, err := smtp.NewClient(conn, e.server)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open SMTP session: %w", err)
	}

	if e.security == securityStartTLS {
		if err := c.StartTLS(e.tlsConfig); err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to start TLS: %w", err)
		}
	}
	return c, nil
}

// authError separates rejected credentials from other authentication
// failures such as a server without AUTH support.
func authError(err error) error {
	var tpErr *textproto.Error
	if errors.As(err, &tpErr) && tpErr.Code == codeAuthFailed {
		return shared.NewAppError(shared.ErrCodeNotifyCredentials,
			"SMTP server rejected the sender credentials", err)
	}
	return fmt.Errorf("failed to authenticate: %w", err)
}

// SplitRecipients splits a comma separated address list, dropping blanks.
func SplitRecipients(csv string) []string {
	var out []string
	for _, part := range strings.Split(csv, ",") {
		if addr := strings.TrimSpace(part); addr != "" {
			out = append(out, addr)
		}
	}
	return out
}

func buildMessage(from string, to []string, subject, htmlBody string) ([]byte, error) {
	var buf bytes.Buffer
	headers := [][2]string{
		{"From", from},
		{"To", strings.Join(to, ", ")},
		{"Subject", mime.QEncoding.Encode("utf-8", subject)},
		{"Date", time.Now().Format(time.RFC1123Z)},
		{"MIME-Version", "1.0"},
		{"Content-Type", `text/html; charset="utf-8"`},
		{"Content-Transfer-Encoding", "quoted-printable"},
	}
	for _, h := range headers {
		fmt.Fprintf(&buf, "%s: %s\r\n", h[0], h[1])
	}
	buf.WriteString("\r\n")

	qp := quotedprintable.NewWriter(&buf)
	if _, err := qp.Write([]byte(htmlBody)); err != nil {
		return nil, err
	}
	if err := qp.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
