// Package notify tells operators about new activity: contact form
// submissions by e-mail through the Gmail API, and new conversations and
// contact messages on IRC.
package notify

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"os"
	"strings"

	"github.com/techtribe/techtribe/internal/domain"
	"github.com/techtribe/techtribe/internal/logging"
	"github.com/yuin/goldmark"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// Mailer delivers one HTML e-mail.
type Mailer interface {
	Send(ctx context.Context, to, subject, html string) error
}

// GmailMailer sends mail as the authorized Gmail account.
type GmailMailer struct {
	svc  *gmail.Service
	from string
}

// NewGmailMailer builds a mailer from an OAuth client credentials file and
// a token previously saved by AuthorizeGmail.
func NewGmailMailer(ctx context.Context, credentialsFile, tokenFile, from string) (*GmailMailer, error) {
	cfg, err := oauthConfig(credentialsFile)
	if err != nil {
		return nil, err
	}
	tok, err := tokenFromFile(tokenFile)
	if err != nil {
		return nil, fmt.Errorf("no gmail token at %s (run 'techtribe gmail auth'): %w", tokenFile, err)
	}

	svc, err := gmail.NewService(ctx, option.WithHTTPClient(cfg.Client(ctx, tok)))
	if err != nil {
		return nil, fmt.Errorf("creating gmail service: %w", err)
	}
	return &GmailMailer{svc: svc, from: from}, nil
}

// Send delivers html to a single recipient.
func (m *GmailMailer) Send(ctx context.Context, to, subject, html string) error {
	raw := buildMIME(m.from, to, subject, html)
	msg := &gmail.Message{Raw: base64.URLEncoding.EncodeToString(raw)}
	if _, err := m.svc.Users.Messages.Send("me", msg).Context(ctx).Do(); err != nil {
		return fmt.Errorf("gmail send: %w", err)
	}
	return nil
}

func buildMIME(from, to, subject, html string) []byte {
	var b bytes.Buffer
	if from != "" {
		fmt.Fprintf(&b, "From: %s\r\n", from)
	}
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.BEncoding.Encode("UTF-8", subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	b.WriteString("Content-Transfer-Encoding: base64\r\n")
	b.WriteString("\r\n")
	b.WriteString(base64.StdEncoding.EncodeToString([]byte(html)))
	b.WriteString("\r\n")
	return b.Bytes()
}

func oauthConfig(credentialsFile string) (*oauth2.Config, error) {
	b, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("reading gmail credentials: %w", err)
	}
	cfg, err := google.ConfigFromJSON(b, gmail.GmailSendScope)
	if err != nil {
		return nil, fmt.Errorf("parsing gmail credentials: %w", err)
	}
	return cfg, nil
}

// AuthorizeGmail runs the interactive consent flow: it prints the consent
// URL to out, reads the authorization code from in, and saves the token.
func AuthorizeGmail(ctx context.Context, credentialsFile, tokenFile string, in io.Reader, out io.Writer) error {
	cfg, err := oauthConfig(credentialsFile)
	if err != nil {
		return err
	}

	url := cfg.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	fmt.Fprintf(out, "Open this link in your browser, then paste the authorization code:\n%s\n", url)

	var code string
	if _, err := fmt.Fscan(in, &code); err != nil {
		return fmt.Errorf("reading authorization code: %w", err)
	}
	tok, err := cfg.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("exchanging authorization code: %w", err)
	}
	return saveToken(tokenFile, tok)
}

func tokenFromFile(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, err
	}
	return tok, nil
}

func saveToken(path string, tok *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("saving gmail token: %w", err)
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(tok)
}

// ContactNotifier e-mails new contact messages to the business inbox.
type ContactNotifier struct {
	mailer Mailer
	to     string
	md     goldmark.Markdown
	log    *logging.Logger
}

// NewContactNotifier creates a notifier sending to the given address.
func NewContactNotifier(mailer Mailer, to string, log *logging.Logger) *ContactNotifier {
	return &ContactNotifier{
		mailer: mailer,
		to:     to,
		md:     goldmark.New(),
		log:    log.Sub("notify.email"),
	}
}

// Notify renders and sends the message.
func (n *ContactNotifier) Notify(ctx context.Context, c domain.ContactMessage) error {
	html, err := n.render(c)
	if err != nil {
		return err
	}
	subject := "Yeni əlaqə mesajı: " + c.Subject
	if err := n.mailer.Send(ctx, n.to, subject, html); err != nil {
		return err
	}
	n.log.Info().Str("contact", c.ID).Str("to", n.to).Msg("contact e-mail sent")
	return nil
}

// render converts the message to HTML. Raw HTML in visitor input is not
// passed through.
func (n *ContactNotifier) render(c domain.ContactMessage) (string, error) {
	var src strings.Builder
	src.WriteString("## Yeni əlaqə mesajı\n\n")
	fmt.Fprintf(&src, "- **Ad:** %s\n", mdInline(c.Name))
	fmt.Fprintf(&src, "- **E-poçt:** %s\n", mdInline(c.Email))
	if c.Phone != "" {
		fmt.Fprintf(&src, "- **Telefon:** %s\n", mdInline(c.Phone))
	}
	fmt.Fprintf(&src, "- **Mövzu:** %s\n\n", mdInline(c.Subject))
	src.WriteString("**Mesaj:**\n\n")
	for _, line := range strings.Split(c.Message, "\n") {
		src.WriteString("> " + line + "\n")
	}

	var out bytes.Buffer
	if err := n.md.Convert([]byte(src.String()), &out); err != nil {
		return "", fmt.Errorf("rendering contact e-mail: %w", err)
	}
	return out.String(), nil
}

// mdInline keeps a single-line field on one line and stops it from opening
// markdown constructs.
func mdInline(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	r := strings.NewReplacer(`\`, `\\`, "*", `\*`, "_", `\_`, "`", "\\`", "[", `\[`, "]", `\]`, "<", `\<`, "#", `\#`)
	return r.Replace(s)
}
