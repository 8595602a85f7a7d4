package notification

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"jobboard-notify-backend/internal/model"
	"jobboard-notify-backend/internal/push"
)

// Event is one of NewJob, NewApplication, ApplicationAccepted or Test.
type Event interface {
	Kind() model.NotificationKind
	scope(caller string) Scope
	message(now time.Time) push.Message
}

// authorizer is implemented by events that restrict who may send them.
type authorizer interface {
	authorize(caller string) error
}

// NewJob announces a posted job to every user.
type NewJob struct {
	JobID       string `json:"jobId" validate:"required"`
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
}

// NewApplication tells the admins that a user applied to a job.
type NewApplication struct {
	JobID         string `json:"jobId" validate:"required"`
	JobTitle      string `json:"jobTitle" validate:"required"`
	ApplicantID   string `json:"applicantId" validate:"required"`
	ApplicantName string `json:"applicantName" validate:"required"`
}

// ApplicationAccepted tells an applicant that an admin accepted them.
type ApplicationAccepted struct {
	JobID         string `json:"jobId" validate:"required"`
	JobTitle      string `json:"jobTitle" validate:"required"`
	ApplicantID   string `json:"applicantId" validate:"required"`
	ApplicantName string `json:"applicantName" validate:"required"`
}

// Test sends a notification to the caller only. Both fields are optional.
type Test struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// NID is the stable deduplication key of a notification about subjectID.
func NID(kind model.NotificationKind, subjectID string) string {
	return string(kind) + ":" + subjectID
}

func (NewJob) Kind() model.NotificationKind { return model.KindNewJob }

func (NewJob) scope(string) Scope { return AllUsers() }

func (e NewJob) message(time.Time) push.Message {
	body := e.Description
	if body == "" {
		body = "A new job has been posted."
	}
	return push.Message{
		NID:       NID(model.KindNewJob, e.JobID),
		Kind:      string(model.KindNewJob),
		SubjectID: e.JobID,
		Title:     "New job: " + e.Title,
		Body:      body,
		Link:      "/jobs/" + e.JobID,
	}
}

func (NewApplication) Kind() model.NotificationKind { return model.KindNewApplication }

func (NewApplication) scope(string) Scope { return AdminsOnly() }

func (e NewApplication) authorize(caller string) error {
	if caller != e.ApplicantID {
		return fmt.Errorf("%w: applicants may only announce their own application", ErrForbidden)
	}
	return nil
}

func (e NewApplication) message(time.Time) push.Message {
	return push.Message{
		NID:       NID(model.KindNewApplication, e.JobID),
		Kind:      string(model.KindNewApplication),
		SubjectID: e.JobID,
		Title:     "New application",
		Body:      fmt.Sprintf("%s applied to %s", e.ApplicantName, e.JobTitle),
		Link:      "/admin/applications?job=" + e.JobID,
	}
}

func (ApplicationAccepted) Kind() model.NotificationKind { return model.KindApplicationAccepted }

func (e ApplicationAccepted) scope(string) Scope { return SingleUser(e.ApplicantID) }

func (e ApplicationAccepted) message(time.Time) push.Message {
	return push.Message{
		NID:       NID(model.KindApplicationAccepted, e.JobID),
		Kind:      string(model.KindApplicationAccepted),
		SubjectID: e.JobID,
		Title:     "Application accepted",
		Body:      fmt.Sprintf("%s, your application to %s has been accepted.", e.ApplicantName, e.JobTitle),
		Link:      "/my-applications",
	}
}

func (Test) Kind() model.NotificationKind { return model.KindTest }

func (Test) scope(caller string) Scope { return SingleUser(caller) }

func (e Test) message(now time.Time) push.Message {
	title, body := e.Title, e.Body
	if title == "" {
		title = "Test notification"
	}
	if body == "" {
		body = "Push notifications are working."
	}
	return push.Message{
		NID:   NID(model.KindTest, strconv.FormatInt(now.UnixMilli(), 10)),
		Kind:  string(model.KindTest),
		Title: title,
		Body:  body,
		Link:  "/notifications",
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
}

// Validate checks every required field of ev and names the missing ones.
func Validate(ev Event) error {
	err := validate.Struct(ev)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	missing := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		missing = append(missing, fe.Field())
	}
	return fmt.Errorf("%w: missing required field(s): %s", ErrInvalidArgument, strings.Join(missing, ", "))
}
