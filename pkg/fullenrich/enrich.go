package fullenrich

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ErrNoJobID is returned when the bulk submit response carries no
// enrichment identifier.
var ErrNoJobID = eris.New("fullenrich: no enrichment identifier received")

// ErrNoContacts is returned when SubmitAndAwait is called with an empty
// contact list.
var ErrNoContacts = eris.New("fullenrich: no contacts to enrich")

// ContactInput identifies one person to enrich. Domain is preferred over
// CompanyName when both are known.
type ContactInput struct {
	FirstName   string
	LastName    string
	Domain      string
	CompanyName string
}

// ContactResult holds the best-guess email and phone for the submitted
// contact at Index.
type ContactResult struct {
	Index int
	Email string
	Phone string
}

// Result is the outcome of a finished bulk enrichment.
type Result struct {
	Results     []ContactResult
	CreditsUsed int
}

// SubmitAndAwait submits a batch of contacts, polls until the job reaches a
// terminal state, and maps results back to submission indices. Either the
// full mapping is returned or a single failure; there are no partial
// results. The best email is the work email, falling back to the personal
// one; the best phone is the most probable number.
func SubmitAndAwait(ctx context.Context, c Client, name string, contacts []ContactInput, fields []Field, opts ...PollOption) (*Result, error) {
	if len(contacts) == 0 {
		return nil, ErrNoContacts
	}
	if len(fields) == 0 {
		fields = []Field{FieldEmails, FieldPhones}
	}

	enrichFields := make([]string, len(fields))
	for i, f := range fields {
		enrichFields[i] = string(f)
	}

	data := make([]Contact, len(contacts))
	for i, in := range contacts {
		contact := Contact{
			FirstName:    in.FirstName,
			LastName:     in.LastName,
			EnrichFields: enrichFields,
		}
		if in.Domain != "" {
			contact.Domain = in.Domain
		} else if in.CompanyName != "" {
			contact.CompanyName = in.CompanyName
		}
		data[i] = contact
	}

	resp, err := c.EnrichBulk(ctx, BulkRequest{Name: name, Data: data})
	if err != nil {
		return nil, err
	}
	id := resp.JobID()
	if id == "" {
		return nil, ErrNoJobID
	}

	zap.L().Info("fullenrich bulk submitted",
		zap.String("enrichment_id", id),
		zap.Int("contacts", len(contacts)),
	)

	status, err := Await(ctx, c, id, opts...)
	if err != nil {
		return nil, err
	}

	result := &Result{CreditsUsed: status.Cost.Credits}
	for i, record := range status.Data {
		if i >= len(contacts) {
			break
		}
		result.Results = append(result.Results, ContactResult{
			Index: i,
			Email: bestEmail(record.ContactInfo),
			Phone: bestPhone(record.ContactInfo),
		})
	}
	return result, nil
}

func bestEmail(info *ContactInfo) string {
	if info == nil {
		return ""
	}
	if info.MostProbableWorkEmail != nil && info.MostProbableWorkEmail.Email != "" {
		return info.MostProbableWorkEmail.Email
	}
	if info.MostProbablePersonalEmail != nil {
		return info.MostProbablePersonalEmail.Email
	}
	return ""
}

func bestPhone(info *ContactInfo) string {
	if info == nil || info.MostProbablePhone == nil {
		return ""
	}
	return info.MostProbablePhone.Number
}
