package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-polygraph-backend/internal/domain"
	"github.com/tbourn/go-polygraph-backend/internal/services"
)

//
// Fakes
//

type fakeClaimSvc struct {
	createFn  func(ctx context.Context, in services.CreateClaimInput) (*domain.Claim, error)
	verifyFn  func(ctx context.Context, claimID string) (*domain.ClaimAnalysis, error)
	getFn     func(ctx context.Context, claimID string) (*domain.Claim, error)
	historyFn func(ctx context.Context, claimID string) ([]domain.VerificationResult, error)
	listFn    func(ctx context.Context, status string, page, pageSize int) ([]domain.Claim, int64, error)
}

func (f *fakeClaimSvc) Create(ctx context.Context, in services.CreateClaimInput) (*domain.Claim, error) {
	return f.createFn(ctx, in)
}
func (f *fakeClaimSvc) Verify(ctx context.Context, claimID string) (*domain.ClaimAnalysis, error) {
	return f.verifyFn(ctx, claimID)
}
func (f *fakeClaimSvc) Get(ctx context.Context, claimID string) (*domain.Claim, error) {
	return f.getFn(ctx, claimID)
}
func (f *fakeClaimSvc) History(ctx context.Context, claimID string) ([]domain.VerificationResult, error) {
	return f.historyFn(ctx, claimID)
}
func (f *fakeClaimSvc) ListPage(ctx context.Context, status string, page, pageSize int) ([]domain.Claim, int64, error) {
	return f.listFn(ctx, status, page, pageSize)
}

type fakeSourceSvc struct {
	registerFn func(ctx context.Context, in services.RegisterSourceInput) (*domain.Source, error)
	getFn      func(ctx context.Context, sourceDomain string) (*domain.Source, error)
	listFn     func(ctx context.Context, page, pageSize int) ([]domain.Source, int64, error)
}

func (f *fakeSourceSvc) Register(ctx context.Context, in services.RegisterSourceInput) (*domain.Source, error) {
	return f.registerFn(ctx, in)
}
func (f *fakeSourceSvc) Get(ctx context.Context, sourceDomain string) (*domain.Source, error) {
	return f.getFn(ctx, sourceDomain)
}
func (f *fakeSourceSvc) ListPage(ctx context.Context, page, pageSize int) ([]domain.Source, int64, error) {
	return f.listFn(ctx, page, pageSize)
}

func newTestRouter(cs ClaimService, ss SourceService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := New(cs, ss)
	r := gin.New()
	r.POST("/claims/verify", h.VerifyClaim)
	r.GET("/claims", h.ListClaims)
	r.GET("/claims/:id", h.GetClaimAnalysis)
	r.GET("/claims/:id/history", h.ClaimHistory)
	return r
}

const testClaimID = "141add05-4415-4938-b5a1-17e0d3171aff"

//
// VerifyClaim
//

func TestVerifyClaim_Success(t *testing.T) {
	cs := &fakeClaimSvc{
		createFn: func(_ context.Context, in services.CreateClaimInput) (*domain.Claim, error) {
			if in.Text != "the earth is round" {
				t.Fatalf("unexpected text: %q", in.Text)
			}
			return &domain.Claim{ID: testClaimID, Text: in.Text}, nil
		},
		verifyFn: func(_ context.Context, claimID string) (*domain.ClaimAnalysis, error) {
			if claimID != testClaimID {
				t.Fatalf("unexpected id: %s", claimID)
			}
			return &domain.ClaimAnalysis{
				Verification: domain.VerificationResult{Verdict: "true", CredibilityScore: 0.91},
			}, nil
		},
	}
	r := newTestRouter(cs, &fakeSourceSvc{})

	body := bytes.NewBufferString(`{"text":"  the earth is round  ","platform":"twitter"}`)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/claims/verify", body)
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var resp VerifyClaimResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json: %v", err)
	}
	if !resp.Success || resp.ClaimID != testClaimID || resp.Analysis == nil {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.Analysis.Verification.Verdict != "true" {
		t.Fatalf("verdict=%s", resp.Analysis.Verification.Verdict)
	}
	if resp.ProcessingTime < 0 {
		t.Fatalf("processing_time=%v", resp.ProcessingTime)
	}
}

func TestVerifyClaim_BadJSON(t *testing.T) {
	r := newTestRouter(&fakeClaimSvc{}, &fakeSourceSvc{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/claims/verify", bytes.NewBufferString(`{`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestVerifyClaim_EmptyText_400(t *testing.T) {
	cs := &fakeClaimSvc{
		createFn: func(_ context.Context, _ services.CreateClaimInput) (*domain.Claim, error) {
			return nil, services.ErrEmptyClaim
		},
	}
	r := newTestRouter(cs, &fakeSourceSvc{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/claims/verify", bytes.NewBufferString(`{"text":"   "}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var er ErrorResponse
	_ = json.Unmarshal(w.Body.Bytes(), &er)
	if er.Code != ErrCodeBadRequest {
		t.Fatalf("code=%s", er.Code)
	}
}

func TestVerifyClaim_PipelineError_ReturnsClaimID(t *testing.T) {
	cs := &fakeClaimSvc{
		createFn: func(_ context.Context, in services.CreateClaimInput) (*domain.Claim, error) {
			return &domain.Claim{ID: testClaimID, Text: in.Text}, nil
		},
		verifyFn: func(_ context.Context, _ string) (*domain.ClaimAnalysis, error) {
			return nil, errors.New("db down")
		},
	}
	r := newTestRouter(cs, &fakeSourceSvc{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/claims/verify", bytes.NewBufferString(`{"text":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var resp VerifyClaimResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json: %v", err)
	}
	if resp.Success || resp.ClaimID != testClaimID || resp.Error == "" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.Analysis != nil {
		t.Fatalf("expected no analysis on failure")
	}
}

//
// GetClaimAnalysis
//

func TestGetClaimAnalysis_NotFound(t *testing.T) {
	cs := &fakeClaimSvc{
		verifyFn: func(_ context.Context, _ string) (*domain.ClaimAnalysis, error) {
			return nil, services.ErrClaimNotFound
		},
	}
	r := newTestRouter(cs, &fakeSourceSvc{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/claims/"+testClaimID, nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestGetClaimAnalysis_BadID(t *testing.T) {
	r := newTestRouter(&fakeClaimSvc{}, &fakeSourceSvc{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/claims/not-a-uuid", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", w.Code)
	}
}

//
// ListClaims
//

func TestListClaims_PaginationAndFilter(t *testing.T) {
	cs := &fakeClaimSvc{
		listFn: func(_ context.Context, status string, page, pageSize int) ([]domain.Claim, int64, error) {
			if status != domain.ClaimStatusVerified {
				t.Fatalf("status=%q", status)
			}
			if page != 2 || pageSize != 5 {
				t.Fatalf("page=%d pageSize=%d", page, pageSize)
			}
			return []domain.Claim{{ID: "a"}, {ID: "b"}}, 12, nil
		},
	}
	r := newTestRouter(cs, &fakeSourceSvc{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/claims?status=verified&page=2&page_size=5", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var resp ListClaimsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json: %v", err)
	}
	if len(resp.Claims) != 2 {
		t.Fatalf("claims=%d", len(resp.Claims))
	}
	p := resp.Pagination
	if p.Page != 2 || p.PageSize != 5 || p.Total != 12 || p.TotalPages != 3 || !p.HasNext {
		t.Fatalf("pagination: %+v", p)
	}
}

func TestListClaims_InvalidStatus(t *testing.T) {
	r := newTestRouter(&fakeClaimSvc{}, &fakeSourceSvc{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/claims?status=bogus", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestListClaims_ClampsPageSize(t *testing.T) {
	cs := &fakeClaimSvc{
		listFn: func(_ context.Context, _ string, page, pageSize int) ([]domain.Claim, int64, error) {
			if page != 1 || pageSize != 100 {
				t.Fatalf("page=%d pageSize=%d", page, pageSize)
			}
			return []domain.Claim{}, 0, nil
		},
	}
	r := newTestRouter(cs, &fakeSourceSvc{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/claims?page=-3&page_size=9999", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
}

//
// ClaimHistory
//

func TestClaimHistory_OK(t *testing.T) {
	cs := &fakeClaimSvc{
		historyFn: func(_ context.Context, claimID string) ([]domain.VerificationResult, error) {
			if claimID != testClaimID {
				t.Fatalf("id=%s", claimID)
			}
			return []domain.VerificationResult{
				{Verdict: "mixed"},
				{Verdict: "true"},
			}, nil
		},
	}
	r := newTestRouter(cs, &fakeSourceSvc{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/claims/"+testClaimID+"/history", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var resp ClaimHistoryResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json: %v", err)
	}
	if resp.ClaimID != testClaimID || len(resp.History) != 2 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.History[0].Verdict != "mixed" || resp.History[1].Verdict != "true" {
		t.Fatalf("history order: %+v", resp.History)
	}
}

func TestClaimHistory_NotFound(t *testing.T) {
	cs := &fakeClaimSvc{
		historyFn: func(_ context.Context, _ string) ([]domain.VerificationResult, error) {
			return nil, services.ErrClaimNotFound
		},
	}
	r := newTestRouter(cs, &fakeSourceSvc{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/claims/"+testClaimID+"/history", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status=%d", w.Code)
	}
}
