package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	exportdomain "github.com/railzwaylabs/audittrail/internal/export/domain"
	"github.com/railzwaylabs/audittrail/internal/observability"
	"github.com/railzwaylabs/audittrail/internal/orgcontext"
	scheduledomain "github.com/railzwaylabs/audittrail/internal/schedule/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// -- Fakes --

type fakeExportService struct {
	createErr   error
	getErr      error
	downloadErr error
	response    exportdomain.Response
	gotOrgScope bool
}

func (f *fakeExportService) Create(ctx context.Context, req exportdomain.CreateRequest) (*exportdomain.Response, error) {
	_, f.gotOrgScope = orgcontext.OrgIDFromContext(ctx)
	if f.createErr != nil {
		return nil, f.createErr
	}
	resp := f.response
	return &resp, nil
}

func (f *fakeExportService) List(context.Context, exportdomain.ListRequest) (exportdomain.ListResponse, error) {
	return exportdomain.ListResponse{Jobs: []exportdomain.Response{f.response}}, nil
}

func (f *fakeExportService) Get(context.Context, string) (*exportdomain.Response, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	resp := f.response
	return &resp, nil
}

func (f *fakeExportService) Download(context.Context, string) (*exportdomain.DownloadResult, error) {
	if f.downloadErr != nil {
		return nil, f.downloadErr
	}
	return &exportdomain.DownloadResult{
		Body:        io.NopCloser(strings.NewReader("id,action\n")),
		ContentType: "text/csv",
		Filename:    "audit_export_2024-03-04_2024-03-11.csv",
	}, nil
}

func (f *fakeExportService) Delete(context.Context, string) error { return nil }

type fakeScheduleService struct{}

func (f *fakeScheduleService) Create(context.Context, scheduledomain.CreateRequest) (*scheduledomain.Response, error) {
	return &scheduledomain.Response{ID: "1"}, nil
}
func (f *fakeScheduleService) List(context.Context) (scheduledomain.ListResponse, error) {
	return scheduledomain.ListResponse{}, nil
}
func (f *fakeScheduleService) Get(context.Context, string) (*scheduledomain.Response, error) {
	return nil, scheduledomain.ErrScheduleNotFound
}
func (f *fakeScheduleService) Update(context.Context, scheduledomain.UpdateRequest) (*scheduledomain.Response, error) {
	return nil, scheduledomain.ErrInvalidTimeOfDay
}
func (f *fakeScheduleService) Delete(context.Context, string) error { return nil }

func newTestServer(t *testing.T) (*Server, *fakeExportService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	exportSvc := &fakeExportService{
		response: exportdomain.Response{
			ID:       "12345",
			Format:   exportdomain.FormatCSV,
			Status:   exportdomain.StatusPending,
			DateFrom: time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC),
			DateTo:   time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC),
		},
	}

	srv := &Server{
		log:         zap.NewNop(),
		metrics:     observability.NewMetrics(),
		engine:      gin.New(),
		exportSvc:   exportSvc,
		scheduleSvc: &fakeScheduleService{},
	}
	srv.RegisterAPIRoutes()
	return srv, exportSvc
}

func doRequest(srv *Server, method, path, body string, orgHeader string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if orgHeader != "" {
		req.Header.Set("X-Org-ID", orgHeader)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp := httptest.NewRecorder()
	srv.engine.ServeHTTP(resp, req)
	return resp
}

// -- Tests --

func TestOrgScope(t *testing.T) {
	srv, _ := newTestServer(t)

	t.Run("missing header", func(t *testing.T) {
		resp := doRequest(srv, http.MethodGet, "/api/v1/exports", "", "")
		assert.Equal(t, http.StatusUnauthorized, resp.Code)
	})

	t.Run("malformed header", func(t *testing.T) {
		resp := doRequest(srv, http.MethodGet, "/api/v1/exports", "", "not-a-snowflake")
		assert.Equal(t, http.StatusUnauthorized, resp.Code)
	})

	t.Run("valid header reaches handler", func(t *testing.T) {
		resp := doRequest(srv, http.MethodGet, "/api/v1/exports", "", "123456789")
		assert.Equal(t, http.StatusOK, resp.Code)
	})
}

func TestCreateExportJob(t *testing.T) {
	srv, exportSvc := newTestServer(t)

	t.Run("created", func(t *testing.T) {
		resp := doRequest(srv, http.MethodPost, "/api/v1/exports",
			`{"format":"csv","date_from":"2024-03-04","date_to":"2024-03-11"}`, "123456789")
		require.Equal(t, http.StatusCreated, resp.Code)
		assert.True(t, exportSvc.gotOrgScope)

		var body struct {
			Data exportdomain.Response `json:"data"`
		}
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
		assert.Equal(t, "12345", body.Data.ID)
		assert.Equal(t, exportdomain.StatusPending, body.Data.Status)
	})

	t.Run("missing dates", func(t *testing.T) {
		resp := doRequest(srv, http.MethodPost, "/api/v1/exports",
			`{"format":"csv"}`, "123456789")
		assert.Equal(t, http.StatusBadRequest, resp.Code)
		assert.Contains(t, resp.Body.String(), "date_from")
	})

	t.Run("domain validation error maps to 400", func(t *testing.T) {
		exportSvc.createErr = exportdomain.ErrDateRangeTooLarge
		defer func() { exportSvc.createErr = nil }()

		resp := doRequest(srv, http.MethodPost, "/api/v1/exports",
			`{"format":"csv","date_from":"2022-01-01","date_to":"2024-03-11"}`, "123456789")
		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})
}

func TestListExportJobs_RejectsUnknownStatus(t *testing.T) {
	srv, _ := newTestServer(t)
	resp := doRequest(srv, http.MethodGet, "/api/v1/exports?status=bogus", "", "123456789")
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestGetExportJob_NotFound(t *testing.T) {
	srv, exportSvc := newTestServer(t)
	exportSvc.getErr = exportdomain.ErrJobNotFound

	resp := doRequest(srv, http.MethodGet, "/api/v1/exports/42", "", "123456789")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestDownloadExportArtifact(t *testing.T) {
	srv, exportSvc := newTestServer(t)

	t.Run("streams attachment", func(t *testing.T) {
		resp := doRequest(srv, http.MethodGet, "/api/v1/exports/42/download", "", "123456789")
		require.Equal(t, http.StatusOK, resp.Code)
		assert.Equal(t, "text/csv", resp.Header().Get("Content-Type"))
		assert.Contains(t, resp.Header().Get("Content-Disposition"), "audit_export_2024-03-04_2024-03-11.csv")
		assert.Equal(t, "id,action\n", resp.Body.String())
	})

	t.Run("unavailable artifact maps to 410", func(t *testing.T) {
		exportSvc.downloadErr = exportdomain.ErrArtifactUnavailable
		defer func() { exportSvc.downloadErr = nil }()

		resp := doRequest(srv, http.MethodGet, "/api/v1/exports/42/download", "", "123456789")
		assert.Equal(t, http.StatusGone, resp.Code)
	})
}

func TestScheduleRoutes(t *testing.T) {
	srv, _ := newTestServer(t)

	t.Run("get unknown schedule", func(t *testing.T) {
		resp := doRequest(srv, http.MethodGet, "/api/v1/schedules/42", "", "123456789")
		assert.Equal(t, http.StatusNotFound, resp.Code)
	})

	t.Run("update with invalid time of day", func(t *testing.T) {
		resp := doRequest(srv, http.MethodPatch, "/api/v1/schedules/42",
			`{"time_of_day":"9am"}`, "123456789")
		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})

	t.Run("delete", func(t *testing.T) {
		resp := doRequest(srv, http.MethodDelete, "/api/v1/schedules/42", "", "123456789")
		assert.Equal(t, http.StatusNoContent, resp.Code)
	})
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)
	resp := doRequest(srv, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, resp.Code)
}
