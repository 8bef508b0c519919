package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	mailtpl "github.com/oksasatya/go-user-service/pkg/mailer/templates"
)

// Outcome tells the consumer what to do with a delivery.
type Outcome int

const (
	Ack   Outcome = iota // sent
	Drop                 // malformed job, never retry
	Retry                // transient failure, requeue
)

var ErrNoRecipient = errors.New("email job has no recipient")

// Worker turns queued EmailJobs into sent emails.
type Worker struct {
	Sender  Sender
	Logger  *logrus.Logger
	Timeout time.Duration
}

func NewWorker(sender Sender, logger *logrus.Logger) *Worker {
	return &Worker{Sender: sender, Logger: logger, Timeout: 15 * time.Second}
}

// Prepare decodes a job and renders its template, if any.
func Prepare(body []byte) (job EmailJob, err error) {
	if err := json.Unmarshal(body, &job); err != nil {
		return job, err
	}
	if job.To == "" {
		if v, ok := job.Data["Email"].(string); ok {
			job.To = v
		}
	}
	if job.To == "" {
		return job, ErrNoRecipient
	}
	if job.Template != "" {
		job.Subject, job.Text, job.HTML, err = mailtpl.Render(job.Template, job.Data)
	}
	return job, err
}

// Handle processes one queue message.
func (w *Worker) Handle(ctx context.Context, body []byte) Outcome {
	job, err := Prepare(body)
	if err != nil {
		w.Logger.WithError(err).WithField("template", job.Template).Error("dropping email job")
		return Drop
	}

	c, cancel := context.WithTimeout(ctx, w.Timeout)
	defer cancel()
	if err := w.Sender.Send(c, job.To, job.Subject, job.Text, job.HTML); err != nil {
		w.Logger.WithError(err).WithFields(logrus.Fields{"to": job.To, "template": job.Template}).Warn("send failed, requeueing")
		return Retry
	}
	w.Logger.WithFields(logrus.Fields{"to": job.To, "template": job.Template}).Info("email sent")
	return Ack
}
