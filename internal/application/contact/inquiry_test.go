package contact_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zhima-Mochi/storefront/internal/application"
	appcontact "github.com/Zhima-Mochi/storefront/internal/application/contact"
	domain "github.com/Zhima-Mochi/storefront/internal/domain/contact"
	"github.com/Zhima-Mochi/storefront/internal/domain/identity"
	"github.com/Zhima-Mochi/storefront/internal/infrastructure/id"
	"github.com/Zhima-Mochi/storefront/internal/infrastructure/memory"
)

func TestSubmitInquiryNormalises(t *testing.T) {
	repo := memory.NewContactRepository()
	uc := appcontact.NewSubmitInquiryUseCase(repo, id.NewUUIDGenerator(), nil)

	inq, err := uc.Execute(context.Background(), appcontact.SubmitInquiryInput{
		Name:    "  Han Meimei ",
		Email:   " Han@Example.COM ",
		Message: " Where is my parcel? ",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, inq.ID)
	assert.Equal(t, "Han Meimei", inq.Name)
	assert.Equal(t, "han@example.com", inq.Email)
	assert.Equal(t, "Where is my parcel?", inq.Message)
	assert.Equal(t, domain.StatusPending, inq.Status)

	_, total, err := repo.List(context.Background(), domain.ListQuery{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestSubmitInquiryValidation(t *testing.T) {
	uc := appcontact.NewSubmitInquiryUseCase(memory.NewContactRepository(), id.NewUUIDGenerator(), nil)

	tests := []struct {
		name  string
		input appcontact.SubmitInquiryInput
		want  []string
	}{
		{name: "everything missing", input: appcontact.SubmitInquiryInput{}, want: []string{"name", "email", "message"}},
		{name: "display name form", input: appcontact.SubmitInquiryInput{Name: "a", Email: "A <a@b.com>", Message: "m"}, want: []string{"email"}},
		{name: "no domain dot", input: appcontact.SubmitInquiryInput{Name: "a", Email: "a@localhost", Message: "m"}, want: []string{"email"}},
		{name: "message too long", input: appcontact.SubmitInquiryInput{Name: "a", Email: "a@b.com", Message: strings.Repeat("x", 2001)}, want: []string{"message"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.Execute(context.Background(), tt.input)
			var verr *application.ValidationError
			require.ErrorAs(t, err, &verr)

			got := make([]string, len(verr.Fields))
			for i, f := range verr.Fields {
				got[i] = f.Field
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestListInquiriesIsAdminOnly(t *testing.T) {
	repo := memory.NewContactRepository()
	submit := appcontact.NewSubmitInquiryUseCase(repo, id.NewUUIDGenerator(), nil)
	list := appcontact.NewListInquiriesUseCase(repo, nil)
	for i := 0; i < 3; i++ {
		_, err := submit.Execute(context.Background(), appcontact.SubmitInquiryInput{Name: "a", Email: "a@b.com", Message: "hello"})
		require.NoError(t, err)
	}

	_, err := list.Execute(context.Background(), appcontact.ListInquiriesInput{})
	require.ErrorIs(t, err, application.ErrUnauthenticated)

	user := identity.WithCaller(context.Background(), identity.Caller{UserID: "u-1", Role: identity.RoleUser})
	_, err = list.Execute(user, appcontact.ListInquiriesInput{})
	require.ErrorIs(t, err, application.ErrForbidden)

	admin := identity.WithCaller(context.Background(), identity.Caller{UserID: "admin", Role: identity.RoleAdmin})
	res, err := list.Execute(admin, appcontact.ListInquiriesInput{Limit: 2, Status: "pending"})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Total)
	assert.Equal(t, 2, res.Pages)
	assert.Len(t, res.Inquiries, 2)

	res, err = list.Execute(admin, appcontact.ListInquiriesInput{Status: "replied"})
	require.NoError(t, err)
	assert.Zero(t, res.Total)

	_, err = list.Execute(admin, appcontact.ListInquiriesInput{Status: "archived"})
	var verr *application.ValidationError
	require.ErrorAs(t, err, &verr)
}
