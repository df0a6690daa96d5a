package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/wishlist-backend/internal/pkg/logger"
	"github.com/yungbote/wishlist-backend/internal/platform/sendgrid"
	"github.com/yungbote/wishlist-backend/internal/realtime"
)

// SecretSantaNotifier is told about committed lifecycle transitions.
type SecretSantaNotifier interface {
	DrawStarted(ctx context.Context, n DrawStartedNotification) error
	DrawCancelled(ctx context.Context, n DrawCancelledNotification) error
}

// DrawnPair tells one giver who they drew.
type DrawnPair struct {
	Email            string
	UserID           *uuid.UUID
	DisplayName      string
	DrawnDisplayName string
}

type DrawStartedNotification struct {
	EventID      uuid.UUID
	EventTitle   string
	Budget       *float64
	Description  *string
	Participants []DrawnPair
}

type DrawCancelledNotification struct {
	EventID    uuid.UUID
	EventTitle string
	Emails     []string
	UserIDs    []uuid.UUID
}

type MailConfig struct {
	AppBaseURL    string `env:"APP_BASE_URL"`
	TemplatesFile string `env:"MAIL_TEMPLATES_FILE"`
	Concurrency   int    `env:"NOTIFY_CONCURRENCY" envDefault:"4"`
}

type mailSecretSantaNotifier struct {
	log       *logger.Logger
	mail      sendgrid.Client
	cfg       MailConfig
	started   *compiledMailTemplate
	cancelled *compiledMailTemplate
}

func NewMailSecretSantaNotifier(log *logger.Logger, mail sendgrid.Client, cfg MailConfig) (SecretSantaNotifier, error) {
	if log == nil {
		log = logger.Nop()
	}
	if mail == nil {
		return nil, fmt.Errorf("mail client required")
	}
	tpls, err := LoadMailTemplates(cfg.TemplatesFile)
	if err != nil {
		return nil, err
	}
	started, err := compileMailTemplate("draw_started", tpls.DrawStarted)
	if err != nil {
		return nil, err
	}
	cancelled, err := compileMailTemplate("draw_cancelled", tpls.DrawCancelled)
	if err != nil {
		return nil, err
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	cfg.AppBaseURL = strings.TrimRight(strings.TrimSpace(cfg.AppBaseURL), "/")
	return &mailSecretSantaNotifier{
		log:       log.With("service", "MailSecretSantaNotifier"),
		mail:      mail,
		cfg:       cfg,
		started:   started,
		cancelled: cancelled,
	}, nil
}

type drawStartedMailData struct {
	EventTitle       string
	EventURL         string
	RecipientName    string
	DrawnDisplayName string
	Budget           string
	Description      string
}

type drawCancelledMailData struct {
	EventTitle    string
	EventURL      string
	RecipientName string
}

func (n *mailSecretSantaNotifier) eventURL(eventID uuid.UUID) string {
	if n.cfg.AppBaseURL == "" {
		return ""
	}
	return n.cfg.AppBaseURL + "/events/" + eventID.String()
}

func (n *mailSecretSantaNotifier) DrawStarted(ctx context.Context, in DrawStartedNotification) error {
	budget := ""
	if in.Budget != nil {
		budget = strconv.FormatFloat(*in.Budget, 'f', 2, 64)
	}
	description := ""
	if in.Description != nil {
		description = *in.Description
	}
	url := n.eventURL(in.EventID)

	return n.sendAll(ctx, len(in.Participants), func(i int) (string, any) {
		p := in.Participants[i]
		return p.Email, drawStartedMailData{
			EventTitle:       in.EventTitle,
			EventURL:         url,
			RecipientName:    recipientName(p.DisplayName, p.Email),
			DrawnDisplayName: p.DrawnDisplayName,
			Budget:           budget,
			Description:      description,
		}
	}, n.started, "secret_santa_draw_started")
}

func (n *mailSecretSantaNotifier) DrawCancelled(ctx context.Context, in DrawCancelledNotification) error {
	url := n.eventURL(in.EventID)
	return n.sendAll(ctx, len(in.Emails), func(i int) (string, any) {
		email := in.Emails[i]
		return email, drawCancelledMailData{
			EventTitle:    in.EventTitle,
			EventURL:      url,
			RecipientName: recipientName("", email),
		}
	}, n.cancelled, "secret_santa_draw_cancelled")
}

// sendAll mails every recipient with bounded concurrency. One failed
// recipient does not stop the others; failures are joined.
func (n *mailSecretSantaNotifier) sendAll(ctx context.Context, count int, item func(i int) (string, any), tpl *compiledMailTemplate, category string) error {
	var (
		mu   sync.Mutex
		errs []error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(n.cfg.Concurrency)

	for i := 0; i < count; i++ {
		email, data := item(i)
		email = strings.TrimSpace(email)
		if email == "" {
			continue
		}
		g.Go(func() error {
			mail, err := tpl.render(data)
			if err == nil {
				_, err = n.mail.Send(gctx, sendgrid.Message{
					To:         []sendgrid.Address{{Email: email}},
					Subject:    mail.Subject,
					Text:       mail.Text,
					HTML:       mail.HTML,
					Categories: []string{category},
				})
			}
			if err != nil {
				n.log.Warn("secret santa mail failed", "category", category, "email", email, "error", err)
				mu.Lock()
				errs = append(errs, fmt.Errorf("mail %s: %w", email, err))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

func recipientName(displayName, email string) string {
	if s := strings.TrimSpace(displayName); s != "" {
		return s
	}
	if at := strings.Index(email, "@"); at > 0 {
		return email[:at]
	}
	return "there"
}

type realtimeSecretSantaNotifier struct {
	emit SSEEmitter
}

// NewRealtimeSecretSantaNotifier pushes lifecycle events to each participant's
// user channel. The drawn person is never part of the SSE payload.
func NewRealtimeSecretSantaNotifier(emit SSEEmitter) SecretSantaNotifier {
	return &realtimeSecretSantaNotifier{emit: emit}
}

func (n *realtimeSecretSantaNotifier) DrawStarted(ctx context.Context, in DrawStartedNotification) error {
	if n == nil || n.emit == nil {
		return nil
	}
	for _, p := range in.Participants {
		if p.UserID == nil || *p.UserID == uuid.Nil {
			continue
		}
		n.emit.Emit(ctx, realtime.SSEMessage{
			Channel: realtime.UserChannel(*p.UserID),
			Event:   realtime.SSEEventSecretSantaDrawStarted,
			Data: map[string]any{
				"event_id":    in.EventID,
				"event_title": in.EventTitle,
			},
		})
	}
	return nil
}

func (n *realtimeSecretSantaNotifier) DrawCancelled(ctx context.Context, in DrawCancelledNotification) error {
	if n == nil || n.emit == nil {
		return nil
	}
	for _, userID := range in.UserIDs {
		if userID == uuid.Nil {
			continue
		}
		n.emit.Emit(ctx, realtime.SSEMessage{
			Channel: realtime.UserChannel(userID),
			Event:   realtime.SSEEventSecretSantaDrawCancelled,
			Data: map[string]any{
				"event_id":    in.EventID,
				"event_title": in.EventTitle,
			},
		})
	}
	return nil
}

// MultiSecretSantaNotifier calls every notifier and joins their errors.
type MultiSecretSantaNotifier []SecretSantaNotifier

func (m MultiSecretSantaNotifier) DrawStarted(ctx context.Context, in DrawStartedNotification) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.DrawStarted(ctx, in); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m MultiSecretSantaNotifier) DrawCancelled(ctx context.Context, in DrawCancelledNotification) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.DrawCancelled(ctx, in); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type noopSecretSantaNotifier struct{}

func (noopSecretSantaNotifier) DrawStarted(context.Context, DrawStartedNotification) error {
	return nil
}

func (noopSecretSantaNotifier) DrawCancelled(context.Context, DrawCancelledNotification) error {
	return nil
}
