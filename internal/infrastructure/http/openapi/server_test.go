package openapi

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	openapi_types "github.com/oapi-codegen/runtime/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingServer struct {
	id     openapi_types.UUID
	params ListRemindersParams
	called string
}

func (s *recordingServer) ListReminders(_ http.ResponseWriter, _ *http.Request, params ListRemindersParams) {
	s.called, s.params = "list", params
}
func (s *recordingServer) CreateReminder(http.ResponseWriter, *http.Request)  { s.called = "create" }
func (s *recordingServer) PreviewReminder(http.ResponseWriter, *http.Request) { s.called = "preview" }
func (s *recordingServer) GetCalendar(http.ResponseWriter, *http.Request)     { s.called = "calendar" }
func (s *recordingServer) DeleteReminder(_ http.ResponseWriter, _ *http.Request, id openapi_types.UUID) {
	s.called, s.id = "delete", id
}
func (s *recordingServer) GetReminder(_ http.ResponseWriter, _ *http.Request, id openapi_types.UUID) {
	s.called, s.id = "get", id
}
func (s *recordingServer) UpdateReminder(_ http.ResponseWriter, _ *http.Request, id openapi_types.UUID) {
	s.called, s.id = "update", id
}
func (s *recordingServer) PauseReminder(_ http.ResponseWriter, _ *http.Request, id openapi_types.UUID) {
	s.called, s.id = "pause", id
}
func (s *recordingServer) ResumeReminder(_ http.ResponseWriter, _ *http.Request, id openapi_types.UUID) {
	s.called, s.id = "resume", id
}

func serve(t *testing.T, si ServerInterface, method, target string) (*httptest.ResponseRecorder, error) {
	t.Helper()
	var bindErr error
	h := HandlerWithOptions(si, ChiServerOptions{
		ErrorHandlerFunc: func(w http.ResponseWriter, _ *http.Request, err error) {
			bindErr = err
			w.WriteHeader(http.StatusBadRequest)
		},
	})
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w, bindErr
}

func TestHandler_BindsPathID(t *testing.T) {
	id := uuid.New()
	cases := []struct {
		method string
		path   string
		want   string
	}{
		{http.MethodGet, "/reminders/" + id.String(), "get"},
		{http.MethodPatch, "/reminders/" + id.String(), "update"},
		{http.MethodDelete, "/reminders/" + id.String(), "delete"},
		{http.MethodPost, "/reminders/" + id.String() + "/pause", "pause"},
		{http.MethodPost, "/reminders/" + id.String() + "/resume", "resume"},
	}
	for _, tc := range cases {
		t.Run(tc.want, func(t *testing.T) {
			si := &recordingServer{}
			_, err := serve(t, si, tc.method, tc.path)
			require.NoError(t, err)
			assert.Equal(t, tc.want, si.called)
			assert.Equal(t, id, si.id)
		})
	}
}

func TestHandler_MalformedIDNeverReachesHandler(t *testing.T) {
	si := &recordingServer{}

	w, err := serve(t, si, http.MethodGet, "/reminders/not-a-uuid")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, si.called)
	var perr *InvalidParamFormatError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "id", perr.ParamName)
}

func TestHandler_BindsListQuery(t *testing.T) {
	si := &recordingServer{}

	_, err := serve(t, si, http.MethodGet, "/reminders?page_size=5&page_token=abc&active=false&category=chores")

	require.NoError(t, err)
	assert.Equal(t, "list", si.called)
	require.NotNil(t, si.params.PageSize)
	assert.Equal(t, 5, *si.params.PageSize)
	require.NotNil(t, si.params.PageToken)
	assert.Equal(t, "abc", *si.params.PageToken)
	require.NotNil(t, si.params.Active)
	assert.False(t, *si.params.Active)
	require.NotNil(t, si.params.Category)
	assert.Equal(t, "chores", *si.params.Category)
}

func TestHandler_ListQueryOmittedStaysNil(t *testing.T) {
	si := &recordingServer{}

	_, err := serve(t, si, http.MethodGet, "/reminders")

	require.NoError(t, err)
	assert.Nil(t, si.params.PageSize)
	assert.Nil(t, si.params.Active)
}

func TestHandler_MalformedPageSize(t *testing.T) {
	si := &recordingServer{}

	_, err := serve(t, si, http.MethodGet, "/reminders?page_size=ten")

	var perr *InvalidParamFormatError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "page_size", perr.ParamName)
	assert.Empty(t, si.called)
}
