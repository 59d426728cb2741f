package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"rfid-admin-service/internal/model"
	"rfid-admin-service/internal/service"
)

type stubService struct {
	listFn      func(ctx context.Context, ownerID int64, limit, offset int) ([]*model.RFIDAccount, error)
	searchFn    func(ctx context.Context, ownerID int64, filter string, limit, offset int) ([]*model.RFIDAccount, error)
	getFn       func(ctx context.Context, ownerID, accountID int64) (*model.RFIDAccount, error)
	createFn    func(ctx context.Context, ownerID int64, req *model.CreateAccountRequest) (string, error)
	updateFn    func(ctx context.Context, ownerID, accountID int64, fields map[string]string) (string, error)
	setStatusFn func(ctx context.Context, ownerID, accountID int64, status model.AccountStatus) (string, error)
}

func (s *stubService) ListAccounts(ctx context.Context, ownerID int64, limit, offset int) ([]*model.RFIDAccount, error) {
	return s.listFn(ctx, ownerID, limit, offset)
}

func (s *stubService) SearchAccounts(ctx context.Context, ownerID int64, filter string, limit, offset int) ([]*model.RFIDAccount, error) {
	return s.searchFn(ctx, ownerID, filter, limit, offset)
}

func (s *stubService) GetAccount(ctx context.Context, ownerID, accountID int64) (*model.RFIDAccount, error) {
	return s.getFn(ctx, ownerID, accountID)
}

func (s *stubService) CreateAccount(ctx context.Context, ownerID int64, req *model.CreateAccountRequest) (string, error) {
	return s.createFn(ctx, ownerID, req)
}

func (s *stubService) UpdateAccount(ctx context.Context, ownerID, accountID int64, fields map[string]string) (string, error) {
	return s.updateFn(ctx, ownerID, accountID, fields)
}

func (s *stubService) SetAccountStatus(ctx context.Context, ownerID, accountID int64, status model.AccountStatus) (string, error) {
	return s.setStatusFn(ctx, ownerID, accountID, status)
}

func (s *stubService) HealthCheck(context.Context) error { return nil }

func newTestRouter(svc AccountService) http.Handler {
	return NewRouter(NewAccountHandler(svc), nil, zap.NewNop())
}

func doRequest(t *testing.T, router http.Handler, method, path, body string, ownerHeader string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, path, reader)
	if ownerHeader != "" {
		req.Header.Set(OwnerHeader, ownerHeader)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var envelope map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope
}

func TestMissingOwnerHeaderRejected(t *testing.T) {
	router := newTestRouter(&stubService{})

	rec := doRequest(t, router, http.MethodGet, BasePath+"/users", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(t, router, http.MethodGet, BasePath+"/users", "", "not-a-number")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListAccountsEnvelopeAndLinkHeader(t *testing.T) {
	svc := &stubService{
		listFn: func(_ context.Context, ownerID int64, limit, offset int) ([]*model.RFIDAccount, error) {
			require.Equal(t, int64(7), ownerID)
			require.Equal(t, 2, limit)
			require.Equal(t, 0, offset)
			return []*model.RFIDAccount{
				{ID: 1, Username: "alpha"},
				{ID: 2, Username: "bravo"},
			}, nil
		},
	}
	router := newTestRouter(svc)

	rec := doRequest(t, router, http.MethodGet, BasePath+"/users?limit=2", "", "7")
	require.Equal(t, http.StatusOK, rec.Code)

	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, float64(http.StatusOK), envelope["status"])
	assert.Len(t, envelope["data"], 2)

	link := rec.Header().Get("Link")
	assert.Contains(t, link, `rel="next"`)
	assert.Contains(t, link, "offset=2")
}

func TestListAccountsEmptyDataIsArray(t *testing.T) {
	svc := &stubService{
		listFn: func(context.Context, int64, int, int) ([]*model.RFIDAccount, error) {
			return nil, nil
		},
	}
	router := newTestRouter(svc)

	rec := doRequest(t, router, http.MethodGet, BasePath+"/users", "", "7")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"data":[]`)
	assert.Empty(t, rec.Header().Get("Link"))
}

func TestSearchRequiresFilter(t *testing.T) {
	router := newTestRouter(&stubService{})

	rec := doRequest(t, router, http.MethodGet, BasePath+"/users/search", "", "7")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, "Missing required query parameter: filter", envelope["message"])
}

func TestSearchPassesFilterThrough(t *testing.T) {
	svc := &stubService{
		searchFn: func(_ context.Context, _ int64, filter string, _, _ int) ([]*model.RFIDAccount, error) {
			require.Equal(t, "04A1", filter)
			return []*model.RFIDAccount{{ID: 5, RFIDCardTag: "04A1B2C3"}}, nil
		},
	}
	router := newTestRouter(svc)

	rec := doRequest(t, router, http.MethodGet, BasePath+"/users/search?filter=04A1", "", "7")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestGetAccountNotFoundToken(t *testing.T) {
	svc := &stubService{
		getFn: func(context.Context, int64, int64) (*model.RFIDAccount, error) {
			return nil, &service.ClientFault{Token: "USER_ID_DOES_NOT_EXIST"}
		},
	}
	router := newTestRouter(svc)

	rec := doRequest(t, router, http.MethodGet, BasePath+"/users/42", "", "7")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, "USER_ID_DOES_NOT_EXIST", envelope["message"])
}

func TestGetAccountInvalidID(t *testing.T) {
	router := newTestRouter(&stubService{})

	rec := doRequest(t, router, http.MethodGet, BasePath+"/users/abc", "", "7")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateAccountSuccess(t *testing.T) {
	svc := &stubService{
		createFn: func(_ context.Context, ownerID int64, req *model.CreateAccountRequest) (string, error) {
			require.Equal(t, int64(7), ownerID)
			require.Equal(t, "juandc", req.Username)
			return model.ResultSuccess, nil
		},
	}
	router := newTestRouter(svc)

	body := `{
		"name": "Juan Dela Cruz",
		"address": "Makati City",
		"email_address": "juan@example.com",
		"mobile_number": "09171234567",
		"vehicle_plate_number": "ABC1234",
		"vehicle_brand": "Toyota",
		"vehicle_model": "Vios",
		"username": "juandc",
		"rfid_card_tag": "04A1B2C3"
	}`

	rec := doRequest(t, router, http.MethodPost, BasePath+"/users", body, "7")
	require.Equal(t, http.StatusCreated, rec.Code)

	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, "SUCCESS", envelope["data"])
}

func TestCreateAccountMissingField(t *testing.T) {
	router := newTestRouter(&stubService{})

	rec := doRequest(t, router, http.MethodPost, BasePath+"/users", `{"name":"Juan"}`, "7")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	envelope := decodeEnvelope(t, rec)
	assert.Contains(t, envelope["message"], "Missing required field:")
}

func TestCreateAccountDuplicateEmail(t *testing.T) {
	svc := &stubService{
		createFn: func(context.Context, int64, *model.CreateAccountRequest) (string, error) {
			return "", &service.ClientFault{Token: model.ResultExistingEmailAddress}
		},
	}
	router := newTestRouter(svc)

	body := `{
		"name": "Juan Dela Cruz",
		"address": "Makati City",
		"email_address": "juan@example.com",
		"mobile_number": "09171234567",
		"username": "juandc",
		"rfid_card_tag": "04A1B2C3"
	}`

	rec := doRequest(t, router, http.MethodPost, BasePath+"/users", body, "7")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, "EXISTING_EMAIL_ADDRESS", envelope["message"])
}

func TestUpdateAccountForwardsFields(t *testing.T) {
	svc := &stubService{
		updateFn: func(_ context.Context, ownerID, accountID int64, fields map[string]string) (string, error) {
			require.Equal(t, int64(7), ownerID)
			require.Equal(t, int64(3), accountID)
			require.Equal(t, map[string]string{"mobile_number": "09998887766"}, fields)
			return model.ResultSuccess, nil
		},
	}
	router := newTestRouter(svc)

	rec := doRequest(t, router, http.MethodPatch, BasePath+"/users/3", `{"mobile_number":"09998887766"}`, "7")
	require.Equal(t, http.StatusOK, rec.Code)

	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, "SUCCESS", envelope["data"])
}

func TestUpdateAccountUnknownKeyMessage(t *testing.T) {
	svc := &stubService{
		updateFn: func(context.Context, int64, int64, map[string]string) (string, error) {
			return "", &service.ClientFault{Token: "Valid inputs are: address, brand, email, mobile_number, model, name, plate_number, username"}
		},
	}
	router := newTestRouter(svc)

	rec := doRequest(t, router, http.MethodPatch, BasePath+"/users/3", `{"balance":"9999"}`, "7")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	envelope := decodeEnvelope(t, rec)
	assert.Contains(t, envelope["message"], "Valid inputs are:")
}

func TestSetAccountStatus(t *testing.T) {
	svc := &stubService{
		setStatusFn: func(_ context.Context, _, accountID int64, status model.AccountStatus) (string, error) {
			require.Equal(t, int64(3), accountID)
			require.Equal(t, model.StatusInactive, status)
			return model.ResultSuccess, nil
		},
	}
	router := newTestRouter(svc)

	rec := doRequest(t, router, http.MethodPatch, BasePath+"/users/3/status", `{"user_status":"INACTIVE"}`, "7")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestInternalErrorStaysGeneric(t *testing.T) {
	svc := &stubService{
		listFn: func(context.Context, int64, int, int) ([]*model.RFIDAccount, error) {
			return nil, service.ErrInternal
		},
	}
	router := newTestRouter(svc)

	rec := doRequest(t, router, http.MethodGet, BasePath+"/users", "", "7")
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, "Internal Server Error", envelope["message"])
}

func TestUnknownEndpoint(t *testing.T) {
	router := newTestRouter(&stubService{})

	rec := doRequest(t, router, http.MethodGet, "/nope", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
