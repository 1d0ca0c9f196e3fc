package contact

import (
	"context"
	"net/mail"
	"strings"

	"github.com/Zhima-Mochi/storefront/internal/application"
	domain "github.com/Zhima-Mochi/storefront/internal/domain/contact"
	"github.com/Zhima-Mochi/storefront/internal/domain/identity"
	"github.com/Zhima-Mochi/storefront/internal/observability"
)

const (
	contactService = "contact-service"
	useCaseSubmit  = "contact.submit"
	useCaseList    = "contact.list"
	defaultLimit   = 10
	maxLimit       = 100
	maxMessageLen  = 2000
)

type IDGenerator interface {
	NewID() string
}

type SubmitInquiryInput struct {
	Name    string
	Email   string
	Phone   string
	Message string
}

type SubmitInquiryUseCase struct {
	repo domain.Repository
	ids  IDGenerator
	inst application.Instrumentation
}

func NewSubmitInquiryUseCase(repo domain.Repository, ids IDGenerator, tel observability.Observability) *SubmitInquiryUseCase {
	return &SubmitInquiryUseCase{repo: repo, ids: ids, inst: application.NewInstrumentation(contactService, tel)}
}

func (uc *SubmitInquiryUseCase) Execute(ctx context.Context, cmd SubmitInquiryInput) (_ *domain.Inquiry, err error) {
	ctx, run := uc.inst.Begin(ctx, useCaseSubmit, "SubmitInquiry")
	defer func() { run.End(err) }()

	name := strings.TrimSpace(cmd.Name)
	email := strings.ToLower(strings.TrimSpace(cmd.Email))
	message := strings.TrimSpace(cmd.Message)

	verr := &application.ValidationError{}
	if name == "" {
		verr.Add("name", "name is required")
	}
	if !validEmail(email) {
		verr.Add("email", "email is not valid")
	}
	switch {
	case message == "":
		verr.Add("message", "message is required")
	case len(message) > maxMessageLen:
		verr.Add("message", "message is too long")
	}
	if err := verr.Err(); err != nil {
		run.Reject("VALIDATION_FAILED")
		return nil, err
	}

	inq := domain.New(uc.ids.NewID(), name, email, strings.TrimSpace(cmd.Phone), message)
	if err := uc.repo.Insert(ctx, inq); err != nil {
		run.Fail("REPO_INSERT_FAILED")
		return nil, application.RepositoryError(err)
	}
	run.Annotate(observability.F("inquiry_id", inq.ID))
	return inq, nil
}

// validEmail accepts a bare address only, not "Name <addr>".
func validEmail(s string) bool {
	if s == "" {
		return false
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return false
	}
	at := strings.LastIndex(s, "@")
	return at > 0 && strings.Contains(s[at+1:], ".")
}

type ListInquiriesInput struct {
	Page   int
	Limit  int
	Status string
}

type ListInquiriesResult struct {
	Inquiries []*domain.Inquiry
	Page      int
	Limit     int
	Total     int
	Pages     int
}

// ListInquiriesUseCase is restricted to admins.
type ListInquiriesUseCase struct {
	repo domain.Repository
	inst application.Instrumentation
}

func NewListInquiriesUseCase(repo domain.Repository, tel observability.Observability) *ListInquiriesUseCase {
	return &ListInquiriesUseCase{repo: repo, inst: application.NewInstrumentation(contactService, tel)}
}

func (uc *ListInquiriesUseCase) Execute(ctx context.Context, cmd ListInquiriesInput) (_ *ListInquiriesResult, err error) {
	ctx, run := uc.inst.Begin(ctx, useCaseList, "ListInquiries")
	defer func() { run.End(err) }()

	caller, ok := identity.CallerFrom(ctx)
	if !ok {
		run.Reject("UNAUTHENTICATED")
		return nil, application.ErrUnauthenticated
	}
	if !caller.IsAdmin() {
		run.Reject("FORBIDDEN")
		return nil, application.ErrForbidden
	}

	var status domain.Status
	if cmd.Status != "" {
		s, ok := domain.ParseStatus(cmd.Status)
		if !ok {
			run.Reject("STATUS_INVALID")
			return nil, application.Invalid("status", "must be one of pending, read, replied")
		}
		status = s
	}

	page, limit := application.Page(cmd.Page, cmd.Limit, defaultLimit, maxLimit)
	items, total, err := uc.repo.List(ctx, domain.ListQuery{Status: status, Offset: (page - 1) * limit, Limit: limit})
	if err != nil {
		run.Fail("REPO_LIST_FAILED")
		return nil, application.RepositoryError(err)
	}
	return &ListInquiriesResult{
		Inquiries: items,
		Page:      page,
		Limit:     limit,
		Total:     total,
		Pages:     application.Pages(total, limit),
	}, nil
}
