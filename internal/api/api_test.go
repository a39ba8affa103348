package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/Ridhim15/Danam-Application/internal/auth"
	"github.com/Ridhim15/Danam-Application/internal/donation"
	"github.com/Ridhim15/Danam-Application/internal/memstore"
	"github.com/Ridhim15/Danam-Application/internal/models"
	"github.com/Ridhim15/Danam-Application/internal/ngo"
	"github.com/Ridhim15/Danam-Application/internal/realtime"
	"github.com/Ridhim15/Danam-Application/internal/session"
	"github.com/gin-gonic/gin"
)

const testSecret = "test-secret"

// setGinTestMode ensures Gin does not write noisy logs during tests
func setGinTestMode() { gin.SetMode(gin.TestMode) }

type testServer struct {
	router *gin.Engine
	store  *memstore.Store
	issuer *auth.Issuer
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	setGinTestMode()
	st := memstore.New()
	if err := ngo.NewDirectory(st).Seed(context.Background()); err != nil {
		t.Fatal(err)
	}
	h := NewHandler(Options{
		Store:          st,
		Sessions:       session.NewStore(),
		Verifier:       auth.NewVerifier(testSecret, true),
		Bus:            realtime.NewMemoryBus(16),
		TransitionMode: donation.ModeStrict,
	})
	return &testServer{router: SetupRouter(h, nil), store: st, issuer: auth.NewIssuer(testSecret, time.Hour)}
}

func (s *testServer) token(t *testing.T, identity string) string {
	t.Helper()
	tok, err := s.issuer.Issue(identity, identity+"@example.com")
	if err != nil {
		t.Fatal(err)
	}
	return tok
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) profile(t *testing.T, token, role string) {
	t.Helper()
	w := s.do(t, http.MethodPut, "/api/profile", token, models.ProfileForm{
		Name: "Test " + role, Role: role, CountryCode: "+91", PhoneDigits: "9876543210", Address: "12 MG Road, Pune",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create %s profile: %d %s", role, w.Code, w.Body.String())
	}
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
}

func TestLiveEndpoint(t *testing.T) {
	s := newTestServer(t)
	for _, path := range []string{"/live", "/health", "/ready", "/"} {
		if w := s.do(t, http.MethodGet, path, "", nil); w.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 OK, got %d", path, w.Code)
		}
	}
}

func TestAuthMiddleware(t *testing.T) {
	s := newTestServer(t)
	if w := s.do(t, http.MethodGet, "/api/profile", "", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for missing token, got %d", w.Code)
	}
	if w := s.do(t, http.MethodGet, "/api/profile", "garbage", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad token, got %d", w.Code)
	}
	if w := s.do(t, http.MethodGet, "/api/profile", auth.DevToken, nil); w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK for dummy token, got %d", w.Code)
	}
}

func TestProfileFlow(t *testing.T) {
	s := newTestServer(t)
	tok := s.token(t, "donor-1")

	var got models.ProfileResponse
	w := s.do(t, http.MethodGet, "/api/profile", tok, nil)
	decode(t, w, &got)
	if w.Code != http.StatusOK || got.Exists {
		t.Fatalf("new user profile: %d %+v", w.Code, got)
	}

	s.profile(t, tok, "Donor")
	w = s.do(t, http.MethodPut, "/api/profile", tok, models.ProfileForm{
		Name: "Asha", Role: "Donor", Phone: "+449876543210", Address: "New address",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("update profile: %d %s", w.Code, w.Body.String())
	}
	if s.store.ProfileCount() != 1 {
		t.Fatalf("ProfileCount = %d", s.store.ProfileCount())
	}

	w = s.do(t, http.MethodGet, "/api/profile", tok, nil)
	decode(t, w, &got)
	if !got.Exists || got.Profile.Phone != "+449876543210" || got.Profile.Email != "donor-1@example.com" {
		t.Fatalf("profile = %+v", got.Profile)
	}

	w = s.do(t, http.MethodPut, "/api/profile", tok, models.ProfileForm{Name: "Asha", Role: "Admin", Phone: "+919876543210", Address: "x"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("invalid role: expected 400, got %d", w.Code)
	}
}

func TestVolunteerRoutesRequireVolunteerRole(t *testing.T) {
	s := newTestServer(t)
	tok := s.token(t, "donor-1")
	if w := s.do(t, http.MethodGet, "/api/volunteer/jobs", tok, nil); w.Code != http.StatusForbidden {
		t.Fatalf("no profile: expected 403, got %d", w.Code)
	}
	s.profile(t, tok, "Donor")
	if w := s.do(t, http.MethodGet, "/api/volunteer/jobs", tok, nil); w.Code != http.StatusForbidden {
		t.Fatalf("donor: expected 403, got %d", w.Code)
	}
}

func TestDonationLifecycleEndToEnd(t *testing.T) {
	s := newTestServer(t)
	donorTok := s.token(t, "donor-1")
	volTok := s.token(t, "vol-1")
	s.profile(t, donorTok, "Donor")
	s.profile(t, volTok, "Volunteer")

	w := s.do(t, http.MethodPost, "/api/donations", donorTok, models.CreateDonationRequest{
		NGO:   "Kalpvriksh",
		Items: []models.DonationItem{{Type: "Food", Quantity: 2}},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create donation: %d %s", w.Code, w.Body.String())
	}
	var created struct {
		Data models.DonationRequest `json:"data"`
	}
	decode(t, w, &created)
	id := created.Data.ID

	var board models.JobBoard
	w = s.do(t, http.MethodGet, "/api/volunteer/jobs", volTok, nil)
	decode(t, w, &board)
	if len(board.Pending) != 1 || board.Pending[0].NGO != "Kalpvriksh - Ek Chota Prayas NGO" || board.Pending[0].DonorPhone != "+919876543210" {
		t.Fatalf("pending = %+v", board.Pending)
	}

	path := "/api/volunteer/jobs/" + itoa(id)
	if w = s.do(t, http.MethodPut, path+"/accept", volTok, nil); w.Code != http.StatusOK {
		t.Fatalf("accept: %d %s", w.Code, w.Body.String())
	}
	if w = s.do(t, http.MethodPut, path+"/accept", volTok, nil); w.Code != http.StatusConflict {
		t.Fatalf("second accept: expected 409, got %d", w.Code)
	}

	w = s.do(t, http.MethodGet, "/api/volunteer/jobs", volTok, nil)
	decode(t, w, &board)
	if len(board.Pending) != 0 || len(board.Accepted) != 1 || board.Accepted[0].Status != models.DonationStatusAccepted {
		t.Fatalf("after accept = %+v", board)
	}

	if w = s.do(t, http.MethodPut, path+"/complete", volTok, nil); w.Code != http.StatusOK {
		t.Fatalf("complete: %d %s", w.Code, w.Body.String())
	}
	w = s.do(t, http.MethodGet, "/api/volunteer/jobs", volTok, nil)
	decode(t, w, &board)
	if len(board.Accepted) != 1 || board.Accepted[0].Label != "Completed" || board.Accepted[0].Actionable {
		t.Fatalf("after complete = %+v", board)
	}

	var history struct {
		History []models.DonationStatusChange `json:"history"`
	}
	w = s.do(t, http.MethodGet, "/api/donations/"+itoa(id)+"/history", donorTok, nil)
	decode(t, w, &history)
	if len(history.History) != 2 {
		t.Fatalf("history = %+v", history)
	}

	if w = s.do(t, http.MethodPut, "/api/volunteer/jobs/999/accept", volTok, nil); w.Code != http.StatusNotFound {
		t.Fatalf("missing donation: expected 404, got %d", w.Code)
	}
	if w = s.do(t, http.MethodPut, "/api/volunteer/jobs/abc/accept", volTok, nil); w.Code != http.StatusBadRequest {
		t.Fatalf("bad id: expected 400, got %d", w.Code)
	}
}

func TestCreateDonationValidation(t *testing.T) {
	s := newTestServer(t)
	tok := s.token(t, "donor-1")

	w := s.do(t, http.MethodPost, "/api/donations", tok, models.CreateDonationRequest{
		NGO: "Kalpvriksh", Items: []models.DonationItem{{Type: "Food", Quantity: 1}},
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("no profile: expected 400, got %d", w.Code)
	}

	s.profile(t, tok, "Donor")
	w = s.do(t, http.MethodPost, "/api/donations", tok, models.CreateDonationRequest{Items: []models.DonationItem{{Type: "Food", Quantity: 1}}})
	var resp models.ErrorResponse
	decode(t, w, &resp)
	if w.Code != http.StatusBadRequest || resp.Message != "Please select an NGO for your donation" {
		t.Fatalf("no ngo: %d %+v", w.Code, resp)
	}

	var mine []models.DonationRequest
	decode(t, s.do(t, http.MethodGet, "/api/donations", tok, nil), &mine)
	if len(mine) != 0 {
		t.Fatalf("rejected donations were stored: %+v", mine)
	}
}

func TestDashboard(t *testing.T) {
	s := newTestServer(t)
	tok := s.token(t, "donor-1")
	s.profile(t, tok, "Donor")

	var totals models.DashboardTotals
	w := s.do(t, http.MethodGet, "/api/ngos/scope-for-change/dashboard", tok, nil)
	decode(t, w, &totals)
	if w.Code != http.StatusOK || totals.Food != 0 || totals.Books != 0 || totals.Clothes != 0 || totals.Medical != 0 {
		t.Fatalf("empty dashboard: %d %+v", w.Code, totals)
	}

	s.do(t, http.MethodPost, "/api/donations", tok, models.CreateDonationRequest{
		NGO: "scope-for-change", Items: []models.DonationItem{{Type: "Food", Quantity: 3}},
	})
	decode(t, s.do(t, http.MethodGet, "/api/ngos/scope-for-change/dashboard", tok, nil), &totals)
	if totals.Food != 3 || totals.Books != 0 || totals.Clothes != 0 || totals.Medical != 0 {
		t.Fatalf("after food=3: %+v", totals)
	}

	if w := s.do(t, http.MethodGet, "/api/ngos/nowhere/dashboard", tok, nil); w.Code != http.StatusNotFound {
		t.Fatalf("unknown ngo: expected 404, got %d", w.Code)
	}

	var list []models.NGO
	decode(t, s.do(t, http.MethodGet, "/api/ngos", tok, nil), &list)
	if len(list) != 5 {
		t.Fatalf("ngos = %d", len(list))
	}
}

func TestSignOutEndsSession(t *testing.T) {
	s := newTestServer(t)
	tok := s.token(t, "donor-1")
	if w := s.do(t, http.MethodGet, "/api/session", tok, nil); w.Code != http.StatusOK {
		t.Fatalf("session: %d", w.Code)
	}
	if w := s.do(t, http.MethodPost, "/api/auth/signout", tok, nil); w.Code != http.StatusOK {
		t.Fatalf("signout: %d", w.Code)
	}
	if w := s.do(t, http.MethodGet, "/api/session", tok, nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("after signout: expected 401, got %d", w.Code)
	}
}

func TestJobStreamEndsOnSignOut(t *testing.T) {
	s := newTestServer(t)
	volTok := s.token(t, "vol-1")
	s.profile(t, volTok, "Volunteer")

	srv := httptest.NewServer(s.router)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/volunteer/jobs/stream", nil)
	req.Header.Set("Authorization", "Bearer "+volTok)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("stream status %d", resp.StatusCode)
	}

	reader := bufio.NewReader(resp.Body)
	sawJobs := false
	for !sawJobs {
		line, err := reader.ReadString('\n')
		if err != nil {
			t.Fatalf("reading stream: %v", err)
		}
		sawJobs = strings.HasPrefix(line, "event:jobs")
	}

	if w := s.do(t, http.MethodPost, "/api/auth/signout", volTok, nil); w.Code != http.StatusOK {
		t.Fatalf("signout: %d", w.Code)
	}

	for {
		if _, err := reader.ReadString('\n'); err != nil {
			break
		}
	}
	if ctx.Err() != nil {
		t.Fatal("stream did not end after sign-out")
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
