package application

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-user-service/internal/domain/entity"
	"github.com/oksasatya/go-user-service/pkg/mailer"
	tpl "github.com/oksasatya/go-user-service/pkg/mailer/templates"
)

// LoginMeta describes the client behind a successful login.
type LoginMeta struct {
	IP        string
	UserAgent string
}

// Hooks observes user lifecycle events. Implementations are best effort and
// must never fail the operation that triggered them.
type Hooks interface {
	AfterRegister(ctx context.Context, u *entity.User)
	AfterUpdate(ctx context.Context, u *entity.User, fields []string)
	AfterLogin(ctx context.Context, u *entity.User, meta LoginMeta)
	AfterDelete(ctx context.Context, u *entity.User)
}

// NopHooks ignores every event. Embed it to implement only some hooks.
type NopHooks struct{}

func (NopHooks) AfterRegister(context.Context, *entity.User)         {}
func (NopHooks) AfterUpdate(context.Context, *entity.User, []string) {}
func (NopHooks) AfterLogin(context.Context, *entity.User, LoginMeta) {}
func (NopHooks) AfterDelete(context.Context, *entity.User)           {}

// HookChain fans every event out to each hook in order.
type HookChain []Hooks

func (c HookChain) AfterRegister(ctx context.Context, u *entity.User) {
	for _, h := range c {
		h.AfterRegister(ctx, u)
	}
}

func (c HookChain) AfterUpdate(ctx context.Context, u *entity.User, fields []string) {
	for _, h := range c {
		h.AfterUpdate(ctx, u, fields)
	}
}

func (c HookChain) AfterLogin(ctx context.Context, u *entity.User, meta LoginMeta) {
	for _, h := range c {
		h.AfterLogin(ctx, u, meta)
	}
}

func (c HookChain) AfterDelete(ctx context.Context, u *entity.User) {
	for _, h := range c {
		h.AfterDelete(ctx, u)
	}
}

// LogHooks writes an audit line per event.
type LogHooks struct {
	Logger *logrus.Logger
}

func (h LogHooks) AfterRegister(ctx context.Context, u *entity.User) {
	h.Logger.WithFields(logrus.Fields{"user_id": u.ID, "email": u.Email}).Info("user registered")
}

func (h LogHooks) AfterUpdate(ctx context.Context, u *entity.User, fields []string) {
	h.Logger.WithFields(logrus.Fields{"user_id": u.ID, "fields": fields}).Info("user updated")
}

func (h LogHooks) AfterLogin(ctx context.Context, u *entity.User, meta LoginMeta) {
	h.Logger.WithFields(logrus.Fields{"user_id": u.ID, "ip": meta.IP}).Info("user logged in")
}

func (h LogHooks) AfterDelete(ctx context.Context, u *entity.User) {
	h.Logger.WithField("user_id", u.ID).Info("user deleted")
}

// JobPublisher enqueues a JSON job; helpers.RabbitPublisher satisfies it.
type JobPublisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// EmailHooks enqueues notification emails for the email worker.
type EmailHooks struct {
	NopHooks
	Pub         JobPublisher
	AppName     string
	SupportURL  string
	NotifyLogin bool
	Logger      *logrus.Logger
}

func (h EmailHooks) AfterRegister(ctx context.Context, u *entity.User) {
	h.enqueue(ctx, u, tpl.Welcome, tpl.WithTime(time.Now()))
}

func (h EmailHooks) AfterUpdate(ctx context.Context, u *entity.User, fields []string) {
	h.enqueue(ctx, u, tpl.ProfileUpdated, tpl.WithTime(time.Now()), tpl.WithChanges(fields))
}

func (h EmailHooks) AfterLogin(ctx context.Context, u *entity.User, meta LoginMeta) {
	if !h.NotifyLogin {
		return
	}
	h.enqueue(ctx, u, tpl.LoginNotification,
		tpl.WithTime(time.Now()),
		tpl.WithIP(meta.IP),
		tpl.WithUserAgent(meta.UserAgent),
	)
}

func (h EmailHooks) enqueue(ctx context.Context, u *entity.User, typ string, opts ...tpl.Option) {
	if h.Pub == nil {
		return
	}
	data := tpl.NewEmailData(h.AppName, h.SupportURL, typ, u.Email, opts...)
	job := mailer.EmailJob{To: u.Email, Template: typ, Data: data}
	if err := h.Pub.PublishJSON(ctx, job); err != nil && h.Logger != nil {
		h.Logger.WithError(err).WithFields(logrus.Fields{"user_id": u.ID, "template": typ}).Warn("failed to publish email job")
	}
}

// IndexHooks keeps the search index in sync with the store.
type IndexHooks struct {
	NopHooks
	Index *UserIndex
}

func (h IndexHooks) AfterRegister(ctx context.Context, u *entity.User) {
	_ = h.Index.Put(ctx, u)
}

func (h IndexHooks) AfterUpdate(ctx context.Context, u *entity.User, _ []string) {
	_ = h.Index.Put(ctx, u)
}

func (h IndexHooks) AfterDelete(ctx context.Context, u *entity.User) {
	_ = h.Index.Remove(ctx, u.ID.String())
}
