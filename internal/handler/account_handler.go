package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"rfid-admin-service/internal/model"
	"rfid-admin-service/internal/service"
	"rfid-admin-service/internal/util"
)

// AccountService is the surface the HTTP layer needs from the service.
type AccountService interface {
	ListAccounts(ctx context.Context, ownerID int64, limit, offset int) ([]*model.RFIDAccount, error)
	SearchAccounts(ctx context.Context, ownerID int64, filter string, limit, offset int) ([]*model.RFIDAccount, error)
	GetAccount(ctx context.Context, ownerID, accountID int64) (*model.RFIDAccount, error)
	CreateAccount(ctx context.Context, ownerID int64, req *model.CreateAccountRequest) (string, error)
	UpdateAccount(ctx context.Context, ownerID, accountID int64, fields map[string]string) (string, error)
	SetAccountStatus(ctx context.Context, ownerID, accountID int64, status model.AccountStatus) (string, error)
	HealthCheck(ctx context.Context) error
}

// response is the envelope every endpoint answers with. Data is always
// present; an empty result is [] rather than null so list consumers never
// branch on shape.
type response struct {
	Status  int         `json:"status"`
	Data    interface{} `json:"data"`
	Message string      `json:"message,omitempty"`
}

type AccountHandler struct {
	service AccountService
}

func NewAccountHandler(service AccountService) *AccountHandler {
	return &AccountHandler{service: service}
}

func (h *AccountHandler) RegisterRoutes(r chi.Router) {
	r.Get("/users", h.ListAccounts)
	r.Get("/users/search", h.SearchAccounts)
	r.Get("/users/{accountID}", h.GetAccount)
	r.Post("/users", h.CreateAccount)
	r.Patch("/users/{accountID}", h.UpdateAccount)
	r.Patch("/users/{accountID}/status", h.SetAccountStatus)
}

func (h *AccountHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	ownerID := ownerFromContext(r.Context())
	limit, offset := paginationParams(r)

	accounts, err := h.service.ListAccounts(r.Context(), ownerID, limit, offset)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writePageLinks(w, r, limit, offset, len(accounts))
	writeJSON(w, http.StatusOK, response{Status: http.StatusOK, Data: accountsOrEmpty(accounts)})
}

func (h *AccountHandler) SearchAccounts(w http.ResponseWriter, r *http.Request) {
	ownerID := ownerFromContext(r.Context())
	limit, offset := paginationParams(r)

	filter := r.URL.Query().Get("filter")
	if filter == "" {
		writeError(w, http.StatusBadRequest, "Missing required query parameter: filter")
		return
	}

	accounts, err := h.service.SearchAccounts(r.Context(), ownerID, filter, limit, offset)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writePageLinks(w, r, limit, offset, len(accounts))
	writeJSON(w, http.StatusOK, response{Status: http.StatusOK, Data: accountsOrEmpty(accounts)})
}

func (h *AccountHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	ownerID := ownerFromContext(r.Context())

	accountID, err := accountIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid account id")
		return
	}

	account, svcErr := h.service.GetAccount(r.Context(), ownerID, accountID)
	if svcErr != nil {
		writeServiceError(w, svcErr)
		return
	}

	writeJSON(w, http.StatusOK, response{Status: http.StatusOK, Data: account})
}

func (h *AccountHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	ownerID := ownerFromContext(r.Context())

	var req model.CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if msg, ok := validateCreateRequest(&req); !ok {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	status, err := h.service.CreateAccount(r.Context(), ownerID, &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, response{Status: http.StatusCreated, Data: status})
}

func (h *AccountHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	ownerID := ownerFromContext(r.Context())

	accountID, err := accountIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid account id")
		return
	}

	var fields map[string]string
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	status, svcErr := h.service.UpdateAccount(r.Context(), ownerID, accountID, fields)
	if svcErr != nil {
		writeServiceError(w, svcErr)
		return
	}

	writeJSON(w, http.StatusOK, response{Status: http.StatusOK, Data: status})
}

type statusRequest struct {
	UserStatus string `json:"user_status"`
}

func (h *AccountHandler) SetAccountStatus(w http.ResponseWriter, r *http.Request) {
	ownerID := ownerFromContext(r.Context())

	accountID, err := accountIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid account id")
		return
	}

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	status, svcErr := h.service.SetAccountStatus(r.Context(), ownerID, accountID, model.AccountStatus(req.UserStatus))
	if svcErr != nil {
		writeServiceError(w, svcErr)
		return
	}

	writeJSON(w, http.StatusOK, response{Status: http.StatusOK, Data: status})
}

// requiredCreateFields pins the request attributes that must be non-empty.
// Uniqueness and RFID-card validity stay with storage; only presence is
// checked here.
var requiredCreateFields = []struct {
	name  string
	value func(*model.CreateAccountRequest) string
}{
	{"name", func(r *model.CreateAccountRequest) string { return r.Name }},
	{"address", func(r *model.CreateAccountRequest) string { return r.Address }},
	{"email_address", func(r *model.CreateAccountRequest) string { return r.EmailAddress }},
	{"mobile_number", func(r *model.CreateAccountRequest) string { return r.MobileNumber }},
	{"username", func(r *model.CreateAccountRequest) string { return r.Username }},
	{"rfid_card_tag", func(r *model.CreateAccountRequest) string { return r.RFIDCardTag }},
}

func validateCreateRequest(req *model.CreateAccountRequest) (string, bool) {
	for _, f := range requiredCreateFields {
		if f.value(req) == "" {
			return "Missing required field: " + f.name, false
		}
	}
	return "", true
}

func accountIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "accountID"), 10, 64)
}

func paginationParams(r *http.Request) (int, int) {
	query := r.URL.Query()
	limit, _ := strconv.Atoi(query.Get("limit"))
	offset, _ := strconv.Atoi(query.Get("offset"))
	if limit <= 0 {
		limit = service.DefaultLimit
	}
	if offset < 0 {
		offset = service.DefaultOffset
	}
	return limit, offset
}

// writePageLinks emits RFC 8288 Link headers for page navigation. A next
// link is only offered when the current page came back full.
func writePageLinks(w http.ResponseWriter, r *http.Request, limit, offset, count int) {
	var links []string

	if count == limit {
		links = append(links, pageLink(r, limit, offset+limit, "next"))
	}
	if offset > 0 {
		prev := offset - limit
		if prev < 0 {
			prev = 0
		}
		links = append(links, pageLink(r, limit, prev, "prev"))
	}

	for _, link := range links {
		w.Header().Add("Link", link)
	}
}

func pageLink(r *http.Request, limit, offset int, rel string) string {
	query := r.URL.Query()
	query.Set("limit", strconv.Itoa(limit))
	query.Set("offset", strconv.Itoa(offset))
	return fmt.Sprintf("<%s?%s>; rel=%q", r.URL.Path, query.Encode(), rel)
}

func accountsOrEmpty(accounts []*model.RFIDAccount) []*model.RFIDAccount {
	if accounts == nil {
		return []*model.RFIDAccount{}
	}
	return accounts
}

func writeServiceError(w http.ResponseWriter, err error) {
	var fault *service.ClientFault
	if errors.As(err, &fault) {
		writeError(w, http.StatusBadRequest, fault.Token)
		return
	}
	writeError(w, http.StatusInternalServerError, "Internal Server Error")
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, response{Status: status, Data: []interface{}{}, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, body response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		util.Error("Failed to encode response", util.ErrorField(err))
	}
}
