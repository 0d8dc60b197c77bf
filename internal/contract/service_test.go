// AngelaMos | 2026
// service_test.go

package contract

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atelierloc/backoffice/internal/core"
	"github.com/atelierloc/backoffice/internal/money"
	"github.com/atelierloc/backoffice/internal/signlink"
)

// fakeRepository keeps records in a map so service flows run without a
// database. Update failures can be injected for rollback paths.
type fakeRepository struct {
	records   map[string]Record
	failNext  bool
	updateErr error
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{records: make(map[string]Record)}
}

func (f *fakeRepository) Create(_ context.Context, rec *Record) error {
	if _, ok := f.records[rec.ID]; ok {
		return fmt.Errorf("create contract: %w", core.ErrDuplicateKey)
	}
	rec.CreatedAt = time.Now().UTC()
	rec.UpdatedAt = rec.CreatedAt
	f.records[rec.ID] = *rec
	return nil
}

func (f *fakeRepository) GetByID(_ context.Context, id string) (*Record, error) {
	rec, ok := f.records[id]
	if !ok {
		return nil, fmt.Errorf("get contract: %w", core.ErrNotFound)
	}
	return &rec, nil
}

func (f *fakeRepository) GetBySignLinkTokenHash(
	_ context.Context,
	hash string,
) (*Record, error) {
	for _, rec := range f.records {
		if rec.SignLinkTokenHash != nil && *rec.SignLinkTokenHash == hash {
			out := rec
			return &out, nil
		}
	}
	return nil, fmt.Errorf("get contract by sign link: %w", core.ErrNotFound)
}

func (f *fakeRepository) Update(_ context.Context, rec *Record) error {
	if f.failNext {
		f.failNext = false
		return f.updateErr
	}
	if _, ok := f.records[rec.ID]; !ok {
		return fmt.Errorf("update contract: %w", core.ErrNotFound)
	}
	rec.UpdatedAt = time.Now().UTC()
	f.records[rec.ID] = *rec
	return nil
}

func (f *fakeRepository) List(
	_ context.Context,
	params ListContractsParams,
) ([]Record, int, error) {
	params.Normalize()

	var out []Record
	for _, rec := range f.records {
		if params.Status != "" && string(rec.Status) != params.Status {
			continue
		}
		if params.Deleted != nil && rec.IsDeleted() != *params.Deleted {
			continue
		}
		out = append(out, rec)
	}
	return out, len(out), nil
}

func (f *fakeRepository) ListCompletable(
	_ context.Context,
	before time.Time,
) ([]Record, error) {
	var out []Record
	for _, rec := range f.records {
		if rec.Status.IsSigned() && !rec.IsDeleted() && rec.EndAt.Before(before) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func newTestService(repo Repository) (*Service, *signlink.MemoryStore) {
	links := signlink.NewMemoryStore()
	svc := NewService(repo, links, ServiceConfig{
		VATRatio:         money.DefaultVATRatio,
		SignLinkBasePath: "/sign-links",
		SignLinkTTL:      time.Hour,
	})
	return svc, links
}

func createRequest() CreateContractRequest {
	pkg := "pkg-weekend"
	return CreateContractRequest{
		CustomerID: "3f2b7c1a-9d4e-4b6f-8a2c-5e1d0f9b8a7c",
		Terms: TermsRequest{
			PackageID:       &pkg,
			PackagePriceTTC: "300",
			StartAt:         time.Date(2026, time.June, 1, 10, 0, 0, 0, time.UTC),
			EndAt:           time.Date(2026, time.June, 3, 10, 0, 0, 0, time.UTC),
			Items: []ItemInput{
				{Name: "Camera kit", PricePerDayTTC: "40", PriceTTC: "500"},
			},
			Addons: []AddonInput{
				{Name: "Insurance", PriceTTC: "50"},
				{Name: "Tripod", PriceTTC: "25", IncludedInPackage: true},
			},
		},
	}
}

func TestService_Create(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(newFakeRepository())

	rec, err := svc.Create(context.Background(), createRequest())
	require.NoError(t, err)

	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, StatusDraft, rec.Status)
	assert.InDelta(t, 350, rec.TotalTTC, 0.01)
	assert.InDelta(t, 291.67, rec.TotalHT, 0.01)
	assert.InDelta(t, 175, rec.AccountPaidTTC, 0.01)
	assert.InDelta(t, 500, rec.CautionTTC, 0.01)
}

func TestService_Create_TolerantMoneyParsing(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(newFakeRepository())

	req := createRequest()
	req.Terms.PackagePriceTTC = "300,50"
	req.Terms.Addons = []AddonInput{{Name: "Junk", PriceTTC: "n/a"}}

	rec, err := svc.Create(context.Background(), req)
	require.NoError(t, err)

	// comma parses, junk resolves to 0
	assert.InDelta(t, 300.50, rec.TotalTTC, 0.01)
}

func TestService_UpdateTerms_RecomputesAndPreservesPaid(t *testing.T) {
	t.Parallel()

	repo := newFakeRepository()
	svc, _ := newTestService(repo)
	ctx := context.Background()

	rec, err := svc.Create(ctx, createRequest())
	require.NoError(t, err)

	paid, err := svc.MarkAccountPaid(ctx, rec.ID, RoleCollaborator)
	require.NoError(t, err)
	assert.InDelta(t, 350, paid.AccountPaidTTC, 0.01)

	req := UpdateTermsRequest{Terms: createRequest().Terms}
	req.Terms.PackagePriceTTC = "400"

	updated, err := svc.UpdateTerms(ctx, rec.ID, RoleAdmin, req)
	require.NoError(t, err)
	assert.InDelta(t, 450, updated.TotalTTC, 0.01)
	assert.InDelta(t, 350, updated.AccountPaidTTC, 0.01)
}

func TestService_UpdateTerms_DeniedForUser(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(newFakeRepository())
	ctx := context.Background()

	rec, err := svc.Create(ctx, createRequest())
	require.NoError(t, err)

	_, err = svc.UpdateTerms(ctx, rec.ID, RoleUser, UpdateTermsRequest{
		Terms: createRequest().Terms,
	})
	requireRejection(t, err, RejectionDenied)
}

func TestService_SignatureFlow(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(newFakeRepository())
	ctx := context.Background()

	rec, err := svc.Create(ctx, createRequest())
	require.NoError(t, err)

	pending, link, err := svc.RequestSignature(ctx, rec.ID, RoleCollaborator)
	require.NoError(t, err)
	assert.Equal(t, StatusPendingSignature, pending.Status)
	require.NotNil(t, pending.SignLinkTokenHash)
	require.True(t, strings.HasPrefix(link, "/sign-links/"))

	token := strings.TrimPrefix(link, "/sign-links/")
	assert.Equal(t, core.HashToken(token), *pending.SignLinkTokenHash)

	signed, err := svc.ClientSign(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, StatusSignedElectronically, signed.Status)
	assert.Nil(t, signed.SignLinkTokenHash)
}

func TestService_ClientSign_SecondUseRejected(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(newFakeRepository())
	ctx := context.Background()

	rec, err := svc.Create(ctx, createRequest())
	require.NoError(t, err)

	_, link, err := svc.RequestSignature(ctx, rec.ID, RoleCollaborator)
	require.NoError(t, err)
	token := strings.TrimPrefix(link, "/sign-links/")

	_, err = svc.ClientSign(ctx, token)
	require.NoError(t, err)

	_, err = svc.ClientSign(ctx, token)
	requireRejection(t, err, RejectionTokenReused)
}

func TestService_ClientSign_UnknownTokenRejected(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(newFakeRepository())

	_, err := svc.ClientSign(context.Background(), "never-issued")
	requireRejection(t, err, RejectionTokenReused)
}

func TestService_ClientSign_ReleasesTokenOnPersistFailure(t *testing.T) {
	t.Parallel()

	repo := newFakeRepository()
	svc, links := newTestService(repo)
	ctx := context.Background()

	rec, err := svc.Create(ctx, createRequest())
	require.NoError(t, err)

	_, link, err := svc.RequestSignature(ctx, rec.ID, RoleCollaborator)
	require.NoError(t, err)
	token := strings.TrimPrefix(link, "/sign-links/")

	repo.failNext = true
	repo.updateErr = fmt.Errorf("update contract: connection reset")

	_, err = svc.ClientSign(ctx, token)
	require.Error(t, err)

	// token went back into the store, so the link still works
	consumed, err := links.Consume(ctx, token)
	require.NoError(t, err)
	assert.True(t, consumed)
}

func TestService_ManualSignatureFlow(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(newFakeRepository())
	ctx := context.Background()

	rec, err := svc.Create(ctx, createRequest())
	require.NoError(t, err)

	pending, err := svc.GeneratePDF(ctx, rec.ID, RoleCollaborator)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, pending.Status)

	back, err := svc.ReturnToDraft(ctx, rec.ID, RoleManager)
	require.NoError(t, err)
	assert.Equal(t, StatusDraft, back.Status)

	_, err = svc.GeneratePDF(ctx, rec.ID, RoleCollaborator)
	require.NoError(t, err)

	signed, err := svc.UploadSignedCopy(ctx, rec.ID, RoleManager, "https://docs/c.pdf")
	require.NoError(t, err)
	assert.Equal(t, StatusSigned, signed.Status)
}

func TestService_DisableAndReactivate(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(newFakeRepository())
	ctx := context.Background()

	rec, err := svc.Create(ctx, createRequest())
	require.NoError(t, err)

	disabled, err := svc.Disable(ctx, rec.ID, RoleManager, "actor-1")
	require.NoError(t, err)
	assert.True(t, disabled.IsDeleted())
	assert.Equal(t, StatusDraft, disabled.Status)

	restored, err := svc.Reactivate(ctx, rec.ID, RoleAdmin)
	require.NoError(t, err)
	assert.False(t, restored.IsDeleted())
	assert.Equal(t, StatusDraft, restored.Status)
}

func TestService_MarkPaid_DeniedForUser(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(newFakeRepository())
	ctx := context.Background()

	rec, err := svc.Create(ctx, createRequest())
	require.NoError(t, err)

	_, err = svc.MarkAccountPaid(ctx, rec.ID, RoleUser)
	requireRejection(t, err, RejectionDenied)

	_, err = svc.MarkCautionPaid(ctx, rec.ID, RoleUser)
	requireRejection(t, err, RejectionDenied)
}

func TestService_MarkCautionPaid(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(newFakeRepository())
	ctx := context.Background()

	rec, err := svc.Create(ctx, createRequest())
	require.NoError(t, err)

	paid, err := svc.MarkCautionPaid(ctx, rec.ID, RoleCollaborator)
	require.NoError(t, err)
	assert.InDelta(t, 500, paid.CautionPaidTTC, 0.01)
	assert.InDelta(t, paid.CautionHT, paid.CautionPaidHT, 0.001)
}

func TestService_CompleteExpired(t *testing.T) {
	t.Parallel()

	repo := newFakeRepository()
	svc, _ := newTestService(repo)
	ctx := context.Background()

	end := time.Date(2026, time.June, 10, 18, 0, 0, 0, time.UTC)

	repo.records["done"] = Record{
		ID: "done", CustomerID: "c", Status: StatusSigned, EndAt: end,
	}
	repo.records["electronic"] = Record{
		ID: "electronic", CustomerID: "c",
		Status: StatusSignedElectronically, EndAt: end,
	}
	repo.records["running"] = Record{
		ID: "running", CustomerID: "c", Status: StatusSigned,
		EndAt: end.AddDate(0, 0, 10),
	}
	repo.records["unsigned"] = Record{
		ID: "unsigned", CustomerID: "c", Status: StatusDraft, EndAt: end,
	}

	now := time.Date(2026, time.June, 12, 3, 0, 0, 0, time.UTC)
	completed, err := svc.CompleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 2, completed)

	assert.Equal(t, StatusCompleted, repo.records["done"].Status)
	assert.Equal(t, StatusCompleted, repo.records["electronic"].Status)
	assert.Equal(t, StatusSigned, repo.records["running"].Status)
	assert.Equal(t, StatusDraft, repo.records["unsigned"].Status)
}

func TestService_Cancel(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(newFakeRepository())
	ctx := context.Background()

	rec, err := svc.Create(ctx, createRequest())
	require.NoError(t, err)

	cancelled, err := svc.Cancel(ctx, rec.ID, RoleCollaborator)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)

	_, err = svc.Cancel(ctx, rec.ID, RoleCollaborator)
	requireRejection(t, err, RejectionInvalid)
}
