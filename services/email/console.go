package emailsvc

import (
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/somahq/soma/core"
)

type consoleService struct {
	conf       *core.Config
	subjPrefix string

	mu   sync.Mutex
	sent []core.EmailMessage
}

var _ core.EmailService = (*consoleService)(nil)

// NewConsoleService writes rendered emails to stdout; used in DEV and TEST.
func NewConsoleService(conf *core.Config) *consoleService {
	return &consoleService{
		conf:       conf,
		subjPrefix: "[" + conf.AppName + "] ",
	}
}

// SendMessages renders and prints synchronously so tests can assert on
// SentMessages immediately.
func (svc *consoleService) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		if err := msg.Render(svc.conf); err != nil {
			log.Printf("%+v", errors.Wrap(err, "rendering email"))
			continue
		}
		if msg.HasRecipients() && msg.HasContent() {
			svc.print(*msg)
		}
		svc.mu.Lock()
		svc.sent = append(svc.sent, *msg)
		svc.mu.Unlock()
	}
}

// SentMessages returns a snapshot of everything sent so far.
func (svc *consoleService) SentMessages() []core.EmailMessage {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	out := make([]core.EmailMessage, len(svc.sent))
	copy(out, svc.sent)
	return out
}

func (svc *consoleService) print(msg core.EmailMessage) {
	if svc.conf.TestMode {
		return
	}
	body := new(strings.Builder)
	_, _ = fmt.Fprintf(body, "From: %s\r\n", svc.conf.DefaultFromEmail.String())
	_, _ = fmt.Fprintf(body, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	_, _ = fmt.Fprintf(body, "Subject: %s\r\n", svc.subjPrefix+msg.Subject)
	for _, to := range msg.To {
		_, _ = fmt.Fprintf(body, "To: %s\r\n", to.String())
	}
	_, _ = fmt.Fprint(body, "\r\n")
	if msg.TextContent != "" {
		_, _ = fmt.Fprintln(body, msg.TextContent)
	} else {
		_, _ = fmt.Fprintln(body, msg.HTMLContent)
	}
	fmt.Println(body.String())
}
