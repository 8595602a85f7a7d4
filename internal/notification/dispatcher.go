package notification

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"jobboard-notify-backend/internal/model"
	"jobboard-notify-backend/internal/push"
	"jobboard-notify-backend/internal/store"
)

var errNativeDisabled = errors.New("native push is not configured")

// Result summarises one fan-out.
type Result struct {
	Recipients  int
	Sent        int
	SentNative  int
	SentWebPush int

	// Whether any recipient had a native token or a Web Push subscription.
	HasToken        bool
	HasSubscription bool
}

// Dispatcher records and delivers notifications for job-board events.
type Dispatcher struct {
	store       store.Store
	registry    *Registry
	janitor     *Janitor
	native      push.NativeSender
	web         push.WebSender
	concurrency int
	logger      *log.Logger

	now   func() time.Time
	newID func() string
}

// NewDispatcher wires a dispatcher. native may be nil, in which case users
// reachable only through FCM get their record but no push.
func NewDispatcher(s store.Store, native push.NativeSender, web push.WebSender, concurrency int, logger *log.Logger) *Dispatcher {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Dispatcher{
		store:       s,
		registry:    NewRegistry(s),
		janitor:     NewJanitor(s, logger),
		native:      native,
		web:         web,
		concurrency: concurrency,
		logger:      logger,
		now:         time.Now,
		newID:       uuid.NewString,
	}
}

// NewJob notifies every user about a posted job.
func (d *Dispatcher) NewJob(ctx context.Context, caller string, ev NewJob) (Result, error) {
	return d.Dispatch(ctx, caller, ev)
}

// NewApplication notifies the admins. caller must be the applicant.
func (d *Dispatcher) NewApplication(ctx context.Context, caller string, ev NewApplication) (Result, error) {
	return d.Dispatch(ctx, caller, ev)
}

// ApplicationAccepted notifies the accepted applicant.
func (d *Dispatcher) ApplicationAccepted(ctx context.Context, caller string, ev ApplicationAccepted) (Result, error) {
	return d.Dispatch(ctx, caller, ev)
}

// Test notifies the caller.
func (d *Dispatcher) Test(ctx context.Context, caller string, ev Test) (Result, error) {
	return d.Dispatch(ctx, caller, ev)
}

// Dispatch validates ev, writes one record per recipient, then pushes to
// every recipient that has a registration. Nothing is written when
// validation or authorization fails; nothing is sent when the write fails.
func (d *Dispatcher) Dispatch(ctx context.Context, caller string, ev Event) (Result, error) {
	if err := Validate(ev); err != nil {
		return Result{}, err
	}
	if a, ok := ev.(authorizer); ok {
		if err := a.authorize(caller); err != nil {
			return Result{}, err
		}
	}

	now := d.now().UTC()
	msg := ev.message(now)

	recipients, err := d.registry.Resolve(ctx, ev.scope(caller))
	if err != nil {
		if errors.Is(err, ErrInvalidArgument) {
			return Result{}, err
		}
		return Result{}, fmt.Errorf("%w: resolving recipients: %v", ErrInternal, err)
	}

	records := make([]model.Notification, 0, len(recipients))
	for _, rc := range recipients {
		records = append(records, model.Notification{
			ID:          d.newID(),
			UserID:      rc.UserID,
			Kind:        ev.Kind(),
			SubjectID:   msg.SubjectID,
			Title:       msg.Title,
			Description: msg.Body,
			Link:        msg.Link,
			CreatedAt:   now,
			ReadBy:      []string{},
		})
	}
	if err := d.store.CreateNotifications(ctx, records); err != nil {
		return Result{}, fmt.Errorf("%w: writing notifications: %v", ErrInternal, err)
	}

	outcomes := d.send(ctx, recipients, msg)
	removed := d.janitor.Sweep(ctx, outcomes)

	res := summarize(recipients, outcomes)
	d.logger.Printf("%s %s: %d recipients, %d reached (fcm %d, webpush %d), %d stale registrations removed",
		ev.Kind(), msg.NID, res.Recipients, res.Sent, res.SentNative, res.SentWebPush, removed)
	return res, nil
}

// send pushes to all recipients concurrently and waits for every attempt.
func (d *Dispatcher) send(ctx context.Context, recipients []Recipient, msg push.Message) []push.Outcome {
	var native, web []Recipient
	for _, rc := range recipients {
		switch rc.Channel {
		case push.ChannelNative:
			native = append(native, rc)
		case push.ChannelWebPush:
			web = append(web, rc)
		}
	}

	var nativeOutcomes []push.Outcome
	webOutcomes := make([]push.Outcome, len(web))

	// Workers never return an error; a failed send is an outcome, not a reason
	// to stop the others.
	var g errgroup.Group
	g.SetLimit(d.concurrency)
	if len(native) > 0 {
		g.Go(func() error {
			nativeOutcomes = d.sendNative(ctx, native, msg)
			return nil
		})
	}
	for i, rc := range web {
		i, rc := i, rc
		g.Go(func() error {
			webOutcomes[i] = d.sendWeb(ctx, rc, msg)
			return nil
		})
	}
	_ = g.Wait()

	return append(nativeOutcomes, webOutcomes...)
}

func (d *Dispatcher) sendNative(ctx context.Context, recipients []Recipient, msg push.Message) []push.Outcome {
	outcomes := make([]push.Outcome, len(recipients))
	tokens := make([]string, len(recipients))
	for i, rc := range recipients {
		tokens[i] = rc.Token
		outcomes[i] = push.Outcome{
			UserID:  rc.UserID,
			Channel: push.ChannelNative,
			Address: rc.Token,
			Status:  push.StatusTransientError,
			Err:     errNativeDisabled,
		}
	}
	if d.native == nil {
		return outcomes
	}

	results, err := d.native.SendMulticast(ctx, tokens, msg)
	for i := range outcomes {
		switch {
		case err != nil:
			outcomes[i].Err = err
		case i < len(results):
			outcomes[i].Status = results[i].Status
			outcomes[i].Err = results[i].Err
		default:
			outcomes[i].Err = fmt.Errorf("no result for token %d", i)
		}
	}
	return outcomes
}

func (d *Dispatcher) sendWeb(ctx context.Context, rc Recipient, msg push.Message) push.Outcome {
	status, err := d.web.Send(ctx, rc.Subscription, msg)
	return push.Outcome{
		UserID:  rc.UserID,
		Channel: push.ChannelWebPush,
		Address: rc.Subscription.Endpoint,
		Status:  status,
		Err:     err,
	}
}

func summarize(recipients []Recipient, outcomes []push.Outcome) Result {
	res := Result{Recipients: len(recipients)}
	for _, rc := range recipients {
		res.HasToken = res.HasToken || rc.HasNative
		res.HasSubscription = res.HasSubscription || rc.HasWebPush
	}
	for _, o := range outcomes {
		if !o.Delivered() {
			continue
		}
		res.Sent++
		switch o.Channel {
		case push.ChannelNative:
			res.SentNative++
		case push.ChannelWebPush:
			res.SentWebPush++
		}
	}
	return res
}
