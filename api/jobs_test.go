package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/garnizeh/jobboard/api"
	"github.com/garnizeh/jobboard/internal/jobs"
	"github.com/garnizeh/jobboard/internal/recordstore"
	"github.com/garnizeh/jobboard/internal/repository/tabular"
	"github.com/garnizeh/jobboard/internal/uploads"
	"github.com/garnizeh/jobboard/pkg/models"
	"github.com/garnizeh/jobboard/pkg/repository/mock"
)

const roofBody = `{"profileID":"p1","jobName":"Fix roof","propertyAddress":"1 Main St","city":"Austin",` +
	`"customerName":"A","customerEmail":"a@x.com","trade":"roofing","estimatedPay":"500","description":"leak"}`

func storedJobs() []models.Job {
	return []models.Job{
		{JobID: "j1", ProfileID: "p1", JobName: "Fix roof", Status: models.StatusOpen},
		{JobID: "j2", ProfileID: "p2", JobName: "Paint", Status: models.StatusInProgress, AssignedContractorID: "c1"},
		{JobID: "j3", ProfileID: "p1", JobName: "Tiles", Status: models.StatusOpen},
	}
}

func TestJobHandlers(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		prepare    func(m *mock.Mocks)
		wantStatus int
		checkBody  func(t *testing.T, b []byte, m *mock.Mocks)
	}{
		{
			name:       "List_FiltersFromQuery",
			method:     http.MethodGet,
			path:       "/api/jobs?profileID=p1&status=Open",
			prepare:    func(m *mock.Mocks) { m.JobRepo.Stored = storedJobs() },
			wantStatus: http.StatusOK,
			checkBody: func(t *testing.T, b []byte, m *mock.Mocks) {
				want := models.JobFilter{ProfileID: "p1", Status: "Open"}
				if m.JobRepo.LastFilter != want {
					t.Fatalf("filter = %+v", m.JobRepo.LastFilter)
				}
				var got []models.Job
				if err := json.Unmarshal(b, &got); err != nil {
					t.Fatalf("unmarshal: %v", err)
				}
				if len(got) != 2 || got[0].JobID != "j1" || got[1].JobID != "j3" {
					t.Fatalf("unexpected jobs %+v", got)
				}
			},
		},
		{
			name:       "List_ByContractor",
			method:     http.MethodGet,
			path:       "/api/jobs?assignedContractorId=c1",
			prepare:    func(m *mock.Mocks) { m.JobRepo.Stored = storedJobs() },
			wantStatus: http.StatusOK,
			checkBody: func(t *testing.T, b []byte, m *mock.Mocks) {
				if !strings.Contains(string(b), `"jobID":"j2"`) || strings.Contains(string(b), `"jobID":"j1"`) {
					t.Fatalf("unexpected body %s", b)
				}
			},
		},
		{
			name:       "List_Empty",
			method:     http.MethodGet,
			path:       "/api/jobs",
			wantStatus: http.StatusOK,
			checkBody: func(t *testing.T, b []byte, m *mock.Mocks) {
				if strings.TrimSpace(string(b)) != "[]" {
					t.Fatalf("expected empty array, got %s", b)
				}
			},
		},
		{
			name:       "List_StoreFailure",
			method:     http.MethodGet,
			path:       "/api/jobs",
			prepare:    func(m *mock.Mocks) { m.JobRepo.ListErr = errors.New("boom") },
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:       "List_MalformedStore",
			method:     http.MethodGet,
			path:       "/api/jobs",
			prepare:    func(m *mock.Mocks) { m.JobRepo.ListErr = &recordstore.MalformedRecordError{Table: "jobs", Line: 3} },
			wantStatus: http.StatusInternalServerError,
			checkBody: func(t *testing.T, b []byte, m *mock.Mocks) {
				if !strings.Contains(string(b), "internal server error") {
					t.Fatalf("unexpected body %s", b)
				}
			},
		},
		{
			name:       "List_DeadlineExceeded",
			method:     http.MethodGet,
			path:       "/api/jobs",
			prepare:    func(m *mock.Mocks) { m.JobRepo.ListErr = fmt.Errorf("load jobs: %w", context.DeadlineExceeded) },
			wantStatus: http.StatusServiceUnavailable,
			checkBody: func(t *testing.T, b []byte, m *mock.Mocks) {
				if !strings.Contains(string(b), "request timed out") {
					t.Fatalf("unexpected body %s", b)
				}
			},
		},
		{
			name:       "Create_Success",
			method:     http.MethodPost,
			path:       "/api/jobs",
			body:       roofBody,
			wantStatus: http.StatusCreated,
			checkBody: func(t *testing.T, b []byte, m *mock.Mocks) {
				var jr struct {
					Message string     `json:"message"`
					Job     models.Job `json:"job"`
				}
				if err := json.Unmarshal(b, &jr); err != nil {
					t.Fatalf("unmarshal: %v", err)
				}
				if jr.Message != "Job created successfully" || jr.Job.JobID != "job-1" || jr.Job.City != "Austin" {
					t.Fatalf("unexpected response %+v", jr)
				}
			},
		},
		{
			name:       "Create_UnknownField",
			method:     http.MethodPost,
			path:       "/api/jobs",
			body:       `{"jobName":"x","bogus":"y"}`,
			wantStatus: http.StatusBadRequest,
			checkBody: func(t *testing.T, b []byte, m *mock.Mocks) {
				if len(m.JobRepo.Stored) != 0 {
					t.Fatalf("job stored despite bad body")
				}
			},
		},
		{
			name:       "Create_WrongType",
			method:     http.MethodPost,
			path:       "/api/jobs",
			body:       `{"jobName":"x","estimatedPay":500}`,
			wantStatus: http.StatusBadRequest,
			checkBody: func(t *testing.T, b []byte, m *mock.Mocks) {
				var er struct {
					Fields []string `json:"fields"`
				}
				if err := json.Unmarshal(b, &er); err != nil {
					t.Fatalf("unmarshal: %v", err)
				}
				if len(er.Fields) != 1 || er.Fields[0] != "estimatedPay" {
					t.Fatalf("unexpected fields %v (%s)", er.Fields, b)
				}
			},
		},
		{
			name:       "Create_NotJSON",
			method:     http.MethodPost,
			path:       "/api/jobs",
			body:       "not a json",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "Get_Found",
			method:     http.MethodGet,
			path:       "/api/jobs/j2",
			prepare:    func(m *mock.Mocks) { m.JobRepo.Stored = storedJobs() },
			wantStatus: http.StatusOK,
			checkBody: func(t *testing.T, b []byte, m *mock.Mocks) {
				if !strings.Contains(string(b), `"jobName":"Paint"`) {
					t.Fatalf("unexpected body %s", b)
				}
			},
		},
		{
			name:       "Get_NotFound",
			method:     http.MethodGet,
			path:       "/api/jobs/nope",
			wantStatus: http.StatusNotFound,
			checkBody: func(t *testing.T, b []byte, m *mock.Mocks) {
				if !strings.Contains(string(b), "Job not found") {
					t.Fatalf("unexpected body %s", b)
				}
			},
		},
		{
			name:       "Update_Success",
			method:     http.MethodPut,
			path:       "/api/jobs/j1",
			body:       `{"city":"Dallas"}`,
			prepare:    func(m *mock.Mocks) { m.JobRepo.Stored = storedJobs() },
			wantStatus: http.StatusOK,
			checkBody: func(t *testing.T, b []byte, m *mock.Mocks) {
				if !strings.Contains(string(b), "Job updated successfully") || m.JobRepo.Stored[0].City != "Dallas" {
					t.Fatalf("unexpected body %s", b)
				}
			},
		},
		{
			name:       "Update_DecodesProgress",
			method:     http.MethodPut,
			path:       "/api/jobs/j2",
			body:       `{"contractorProgress":{"currentStep":3}}`,
			prepare:    func(m *mock.Mocks) { m.JobRepo.Stored = storedJobs() },
			wantStatus: http.StatusOK,
			checkBody: func(t *testing.T, b []byte, m *mock.Mocks) {
				p := m.JobRepo.LastPatch
				if p == nil || p.ContractorProgress == nil || p.ContractorProgress.CurrentStep == nil || *p.ContractorProgress.CurrentStep != 3 {
					t.Fatalf("unexpected patch %+v", p)
				}
				if p.ContractorProgress.Acknowledged != nil || p.ContractorProgress.LastUpdated != nil {
					t.Fatalf("absent sub-fields decoded as set")
				}
			},
		},
		{
			name:       "Update_UnknownField",
			method:     http.MethodPut,
			path:       "/api/jobs/j1",
			body:       `{"city":"Dallas","rating":5}`,
			prepare:    func(m *mock.Mocks) { m.JobRepo.Stored = storedJobs() },
			wantStatus: http.StatusBadRequest,
			checkBody: func(t *testing.T, b []byte, m *mock.Mocks) {
				if !strings.Contains(string(b), "rating") {
					t.Fatalf("expected offending field named, got %s", b)
				}
				if m.JobRepo.LastPatch != nil {
					t.Fatalf("repository reached with invalid body")
				}
			},
		},
		{
			name:       "Update_NegativeStep",
			method:     http.MethodPut,
			path:       "/api/jobs/j1",
			body:       `{"contractorProgress":{"currentStep":-1}}`,
			prepare:    func(m *mock.Mocks) { m.JobRepo.Stored = storedJobs() },
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "Update_NotFound",
			method:     http.MethodPut,
			path:       "/api/jobs/nope",
			body:       `{"city":"Dallas"}`,
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "Assign_Success",
			method:     http.MethodPost,
			path:       "/api/jobs/j1/assign",
			body:       `{"contractorId":"c9"}`,
			prepare:    func(m *mock.Mocks) { m.JobRepo.Stored = storedJobs() },
			wantStatus: http.StatusOK,
			checkBody: func(t *testing.T, b []byte, m *mock.Mocks) {
				j := m.JobRepo.Stored[0]
				if j.Status != models.StatusInProgress || j.AssignedContractorID != "c9" || j.ProgressCurrentStep != "1" || j.ProgressAcknowledged != "false" {
					t.Fatalf("unexpected job %+v", j)
				}
				if !strings.Contains(string(b), "Job assigned successfully") {
					t.Fatalf("unexpected body %s", b)
				}
			},
		},
		{
			name:       "Assign_MissingContractor",
			method:     http.MethodPost,
			path:       "/api/jobs/j1/assign",
			body:       `{}`,
			prepare:    func(m *mock.Mocks) { m.JobRepo.Stored = storedJobs() },
			wantStatus: http.StatusBadRequest,
			checkBody: func(t *testing.T, b []byte, m *mock.Mocks) {
				if !strings.Contains(string(b), "Missing contractorId") {
					t.Fatalf("unexpected body %s", b)
				}
			},
		},
		{
			name:       "Assign_UnknownJob",
			method:     http.MethodPost,
			path:       "/api/jobs/nope/assign",
			body:       `{"contractorId":"c9"}`,
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "WrongMethod",
			method:     http.MethodDelete,
			path:       "/api/jobs/j1",
			wantStatus: http.StatusMethodNotAllowed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mocks := mock.NewMocks()
			if tt.prepare != nil {
				tt.prepare(mocks)
			}
			router := newRouter(t, mocks)

			var bodyReader io.Reader
			if tt.body != "" {
				bodyReader = strings.NewReader(tt.body)
			}
			req := httptest.NewRequest(tt.method, tt.path, bodyReader)
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			res := w.Result()
			defer res.Body.Close()
			data, _ := io.ReadAll(res.Body)
			if res.StatusCode != tt.wantStatus {
				t.Fatalf("%s: expected status %d got %d body=%s", tt.name, tt.wantStatus, res.StatusCode, string(data))
			}
			if tt.checkBody != nil {
				tt.checkBody(t, data, mocks)
			}
		})
	}
}

// TestJobLifecycleOverCSV runs create, assign and update against real
// CSV-backed tables.
func TestJobLifecycleOverCSV(t *testing.T) {
	ctx := context.Background()
	repo, err := tabular.New(recordstore.NewCSVBackend(t.TempDir(), recordstore.RejectMalformed, nil), nil)
	if err != nil {
		t.Fatalf("tabular.New: %v", err)
	}
	if err := repo.Initialize(ctx); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	router := api.SetupRoutes(api.Deps{
		Jobs:          repo,
		Profiles:      repo,
		Verifications: repo,
		Agreements:    repo,
		Assigner:      jobs.NewManager(repo, nil),
		Uploads:       uploads.New(t.TempDir(), 1<<20),
	})

	do := func(method, path, body string) (int, map[string]json.RawMessage) {
		t.Helper()
		var r io.Reader
		if body != "" {
			r = strings.NewReader(body)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(method, path, r))
		out := map[string]json.RawMessage{}
		_ = json.Unmarshal(w.Body.Bytes(), &out)
		return w.Code, out
	}
	job := func(raw json.RawMessage) models.Job {
		t.Helper()
		var j models.Job
		if err := json.Unmarshal(raw, &j); err != nil {
			t.Fatalf("unmarshal job: %v", err)
		}
		return j
	}

	code, out := do(http.MethodPost, "/api/jobs", roofBody)
	if code != http.StatusCreated {
		t.Fatalf("create: status %d", code)
	}
	created := job(out["job"])
	if created.Status != models.StatusOpen || created.AssignedContractorID != "" || created.JobID == "" {
		t.Fatalf("unexpected created job %+v", created)
	}
	if _, err := time.Parse(time.RFC3339Nano, created.CreatedAt); err != nil {
		t.Fatalf("createdAt %q: %v", created.CreatedAt, err)
	}

	code, out = do(http.MethodPost, "/api/jobs/"+created.JobID+"/assign", `{"contractorId":"c1"}`)
	if code != http.StatusOK {
		t.Fatalf("assign: status %d", code)
	}
	assigned := job(out["job"])
	if assigned.Status != models.StatusInProgress || assigned.AssignedContractorID != "c1" || assigned.ProgressCurrentStep != "1" {
		t.Fatalf("unexpected assigned job %+v", assigned)
	}

	// Clients send the whole job back; immutable fields that match are fine.
	whole, _ := json.Marshal(assigned)
	code, _ = do(http.MethodPut, "/api/jobs/"+created.JobID, string(whole))
	if code != http.StatusOK {
		t.Fatalf("whole-object update: status %d", code)
	}

	code, out = do(http.MethodPut, "/api/jobs/"+created.JobID, `{"contractorProgress":{"currentStep":2}}`)
	if code != http.StatusOK {
		t.Fatalf("progress update: status %d", code)
	}
	progressed := job(out["job"])
	if progressed.ProgressCurrentStep != "2" || progressed.ProgressAcknowledged != "" || progressed.ProgressLastUpdated != "" {
		t.Fatalf("progress not overwritten: %+v", progressed)
	}

	code, _ = do(http.MethodPut, "/api/jobs/"+created.JobID, `{"jobID":"other"}`)
	if code != http.StatusBadRequest {
		t.Fatalf("changing jobID: status %d", code)
	}
	code, _ = do(http.MethodPut, "/api/jobs/"+created.JobID, `{"status":"Open"}`)
	if code != http.StatusBadRequest {
		t.Fatalf("open with contractor: status %d", code)
	}

	code, out = do(http.MethodPost, "/api/jobs", `{"jobName":"only a name"}`)
	if code != http.StatusBadRequest {
		t.Fatalf("missing fields: status %d", code)
	}
	var fields []string
	_ = json.Unmarshal(out["fields"], &fields)
	if len(fields) != 8 {
		t.Fatalf("expected every missing field reported, got %v", fields)
	}

	all, err := repo.ListJobs(ctx, models.JobFilter{})
	if err != nil {
		t.Fatalf("ListJobs: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected 1 job stored, got %d", len(all))
	}
}

func TestSignupTwiceOverCSV(t *testing.T) {
	repo, err := tabular.New(recordstore.NewCSVBackend(t.TempDir(), recordstore.RejectMalformed, nil), nil)
	if err != nil {
		t.Fatalf("tabular.New: %v", err)
	}
	router := api.SetupRoutes(api.Deps{Jobs: repo, Profiles: repo, Verifications: repo, Agreements: repo, Assigner: jobs.NewManager(repo, nil)})

	body := `{"email":"dup@example.com","password":"pw","user_role":"customer"}`
	for i, want := range []int{http.StatusCreated, http.StatusBadRequest} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/signup", strings.NewReader(body)))
		if w.Code != want {
			t.Fatalf("signup %d: expected %d got %d body=%s", i+1, want, w.Code, w.Body.String())
		}
	}
	ps, err := repo.ListProfiles(context.Background())
	if err != nil {
		t.Fatalf("ListProfiles: %v", err)
	}
	if len(ps) != 1 {
		t.Fatalf("expected 1 profile, got %d", len(ps))
	}
}
