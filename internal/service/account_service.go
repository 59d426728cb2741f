package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"rfid-admin-service/internal/crypto"
	"rfid-admin-service/internal/events"
	"rfid-admin-service/internal/hashing"
	"rfid-admin-service/internal/model"
	"rfid-admin-service/internal/notification"
	"rfid-admin-service/internal/password"
	"rfid-admin-service/internal/repository/mysql"
	"rfid-admin-service/internal/util"
)

// ErrInternal is returned for any failure the caller cannot correct. The
// outward message stays generic; detail is logged internally only.
var ErrInternal = errors.New("internal server error")

// ClientFault is a caller-correctable failure. Its message is the
// machine-readable token the HTTP layer forwards verbatim.
type ClientFault struct {
	Token string
}

func (e *ClientFault) Error() string { return e.Token }

const (
	// DefaultLimit and DefaultOffset apply when pagination parameters are
	// absent.
	DefaultLimit  = 10
	DefaultOffset = 0

	tokenUserNotFound = "USER_ID_DOES_NOT_EXIST"
)

// decryptConcurrency bounds the workers decrypting a page of accounts.
const decryptConcurrency = 8

// creationClientFaults are the procedure statuses the caller can correct:
// duplicate unique fields and RFID-card validity. Everything else
// non-SUCCESS is a server fault.
var creationClientFaults = map[string]bool{
	model.ResultExistingEmailAddress: true,
	model.ResultExistingMobileNumber: true,
	model.ResultExistingPlateNumber:  true,
	model.ResultExistingUsername:     true,
	model.ResultRFIDDoesNotExist:     true,
	model.ResultRFIDAlreadyOwned:     true,
}

// updatableField binds an API update key to its storage column and its
// sensitivity class.
type updatableField struct {
	Column    string
	Sensitive bool
}

// updatableFields is the partial-update allow-list. Keys outside it are
// rejected before any encryption or storage access; username is the only
// member persisted in plaintext.
var updatableFields = map[string]updatableField{
	"name":          {Column: "name", Sensitive: true},
	"address":       {Column: "address", Sensitive: true},
	"email":         {Column: "email_address", Sensitive: true},
	"mobile_number": {Column: "mobile_number", Sensitive: true},
	"plate_number":  {Column: "vehicle_plate_number", Sensitive: true},
	"brand":         {Column: "vehicle_brand", Sensitive: true},
	"model":         {Column: "vehicle_model", Sensitive: true},
	"username":      {Column: "username", Sensitive: false},
}

// sensitiveAccountFields classifies the account attributes that live
// encrypted at rest. One declarative table, consulted by one transform
// helper, instead of per-field cipher calls scattered across operations.
var sensitiveAccountFields = []func(*model.RFIDAccount) *string{
	func(a *model.RFIDAccount) *string { return &a.Name },
	func(a *model.RFIDAccount) *string { return &a.Address },
	func(a *model.RFIDAccount) *string { return &a.EmailAddress },
	func(a *model.RFIDAccount) *string { return &a.MobileNumber },
	func(a *model.RFIDAccount) *string { return &a.VehiclePlateNumber },
	func(a *model.RFIDAccount) *string { return &a.VehicleBrand },
	func(a *model.RFIDAccount) *string { return &a.VehicleModel },
}

// AccountService orchestrates the RFID account lifecycle for merchant
// tenants. It owns the plaintext/ciphertext boundary: every sensitive field
// is encrypted before the repository sees it and decrypted before a caller
// does.
type AccountService struct {
	repo      mysql.AccountRepository
	cipher    *crypto.FieldCipher
	hasher    *hashing.Hasher
	mailer    notification.Dispatcher
	publisher events.Publisher
	logger    *zap.Logger

	// generatePassword is swappable so tests can observe the credential
	// that gets hashed and mailed.
	generatePassword func() string
}

func NewAccountService(
	repo mysql.AccountRepository,
	cipher *crypto.FieldCipher,
	hasher *hashing.Hasher,
	mailer notification.Dispatcher,
	publisher events.Publisher,
	logger *zap.Logger,
) *AccountService {
	return &AccountService{
		repo:             repo,
		cipher:           cipher,
		hasher:           hasher,
		mailer:           mailer,
		publisher:        publisher,
		logger:           logger,
		generatePassword: password.Generate,
	}
}

// ListAccounts returns one page of the owner's accounts, decrypted. An empty
// page is a valid result, not an error.
func (s *AccountService) ListAccounts(ctx context.Context, ownerID int64, limit, offset int) ([]*model.RFIDAccount, error) {
	limit, offset = normalizePagination(limit, offset)

	accounts, err := s.repo.GetAccountsByOwner(ctx, ownerID, limit, offset)
	if err != nil {
		s.logger.Error("Failed to list accounts",
			util.Int64("cpo_owner_id", ownerID),
			util.ErrorField(err),
		)
		return nil, ErrInternal
	}

	if err := s.decryptAccounts(ctx, accounts); err != nil {
		s.logger.Error("Failed to decrypt account page",
			util.Int64("cpo_owner_id", ownerID),
			util.ErrorField(err),
		)
		return nil, ErrInternal
	}

	return accounts, nil
}

// SearchAccounts returns the owner's accounts whose RFID tag starts with
// filter, or whose mobile number equals filter exactly. The asymmetry is
// deliberate: mobile numbers are stored under a cipher with no order
// preservation, so only exact match (by re-deriving the ciphertext) is
// possible, while the plaintext RFID tag supports prefix match.
func (s *AccountService) SearchAccounts(ctx context.Context, ownerID int64, filter string, limit, offset int) ([]*model.RFIDAccount, error) {
	limit, offset = normalizePagination(limit, offset)

	encryptedMobile, err := s.cipher.Encrypt(filter)
	if err != nil {
		s.logger.Error("Failed to derive search ciphertext", util.ErrorField(err))
		return nil, ErrInternal
	}

	accounts, err := s.repo.FilterAccounts(ctx, ownerID, filter, encryptedMobile, limit, offset)
	if err != nil {
		s.logger.Error("Failed to search accounts",
			util.Int64("cpo_owner_id", ownerID),
			util.ErrorField(err),
		)
		return nil, ErrInternal
	}

	if err := s.decryptAccounts(ctx, accounts); err != nil {
		s.logger.Error("Failed to decrypt search results",
			util.Int64("cpo_owner_id", ownerID),
			util.ErrorField(err),
		)
		return nil, ErrInternal
	}

	return accounts, nil
}

// GetAccount returns one decrypted account under the owner's scope. An id
// belonging to another tenant is indistinguishable from a missing id.
func (s *AccountService) GetAccount(ctx context.Context, ownerID, accountID int64) (*model.RFIDAccount, error) {
	account, err := s.repo.GetAccountByID(ctx, ownerID, accountID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &ClientFault{Token: tokenUserNotFound}
		}
		s.logger.Error("Failed to fetch account",
			util.Int64("cpo_owner_id", ownerID),
			util.Int64("account_id", accountID),
			util.ErrorField(err),
		)
		return nil, ErrInternal
	}

	if err := s.decryptAccount(account); err != nil {
		s.logger.Error("Failed to decrypt account",
			util.Int64("account_id", accountID),
			util.ErrorField(err),
		)
		return nil, ErrInternal
	}

	return account, nil
}

// CreateAccount encrypts the new account's sensitive fields, generates the
// onboarding password and submits the record. The storage procedure enforces
// uniqueness and RFID-card ownership atomically; its status token is mapped
// here. Only SUCCESS triggers the credential mail, and a mail failure never
// fails the creation — the account already exists by then.
func (s *AccountService) CreateAccount(ctx context.Context, ownerID int64, req *model.CreateAccountRequest) (string, error) {
	plainPassword := s.generatePassword()

	passwordHash, err := s.hasher.Hash(plainPassword)
	if err != nil {
		s.logger.Error("Failed to hash onboarding password", util.ErrorField(err))
		return "", ErrInternal
	}

	record, err := s.encryptNewAccount(ownerID, req, passwordHash)
	if err != nil {
		s.logger.Error("Failed to encrypt new account fields", util.ErrorField(err))
		return "", ErrInternal
	}

	status, err := s.repo.CreateAccount(ctx, record)
	if err != nil {
		s.logger.Error("Account creation failed in storage",
			util.Int64("cpo_owner_id", ownerID),
			util.ErrorField(err),
		)
		return "", ErrInternal
	}

	if creationClientFaults[status] {
		return "", &ClientFault{Token: status}
	}

	if status != model.ResultSuccess {
		s.logger.Error("Account creation returned unexpected status",
			util.Int64("cpo_owner_id", ownerID),
			util.String("status", status),
		)
		return "", ErrInternal
	}

	// Best-effort from here on: the account is committed.
	if err := s.mailer.SendOnboardingCredential(ctx, req.EmailAddress, plainPassword); err != nil {
		s.logger.Warn("Failed to send onboarding credential",
			util.Int64("cpo_owner_id", ownerID),
			util.String("username", req.Username),
			util.ErrorField(err),
		)
	}

	s.publisher.Publish(ctx, events.Event{
		Type:       events.TypeAccountCreated,
		CPOOwnerID: ownerID,
		Username:   req.Username,
	})

	s.logger.Info("RFID account created",
		util.Int64("cpo_owner_id", ownerID),
		util.String("username", req.Username),
		util.String("rfid_card_tag", req.RFIDCardTag),
	)

	return status, nil
}

// UpdateAccount applies a partial update restricted to the allow-listed
// keys. Unknown keys are rejected before any encryption or storage access;
// an empty subset is a no-op. Fields omitted from the subset are never
// touched.
func (s *AccountService) UpdateAccount(ctx context.Context, ownerID, accountID int64, fields map[string]string) (string, error) {
	for key := range fields {
		if _, ok := updatableFields[key]; !ok {
			return "", &ClientFault{Token: "Valid inputs are: " + strings.Join(updatableFieldNames(), ", ")}
		}
	}

	if len(fields) == 0 {
		return model.ResultNoChangesApplied, nil
	}

	assignments, err := s.buildAssignments(fields)
	if err != nil {
		s.logger.Error("Failed to encrypt update fields",
			util.Int64("account_id", accountID),
			util.ErrorField(err),
		)
		return "", ErrInternal
	}

	affected, err := s.repo.UpdateAccountFields(ctx, ownerID, accountID, assignments)
	if err != nil {
		s.logger.Error("Failed to update account",
			util.Int64("cpo_owner_id", ownerID),
			util.Int64("account_id", accountID),
			util.ErrorField(err),
		)
		return "", ErrInternal
	}

	if affected == 0 {
		return model.ResultNoChangesApplied, nil
	}

	s.publisher.Publish(ctx, events.Event{
		Type:       events.TypeAccountUpdated,
		CPOOwnerID: ownerID,
		AccountID:  accountID,
		Detail:     strings.Join(sortedKeys(fields), ","),
	})

	return model.ResultSuccess, nil
}

// SetAccountStatus transitions the account between ACTIVE and INACTIVE. Any
// other value is rejected before storage. Zero affected rows means the
// status already held or the id is outside the tenant's scope; both are
// NO_CHANGES_APPLIED, not errors.
func (s *AccountService) SetAccountStatus(ctx context.Context, ownerID, accountID int64, status model.AccountStatus) (string, error) {
	if !status.IsValid() {
		return "", &ClientFault{Token: fmt.Sprintf("Valid statuses are: %s, %s", model.StatusActive, model.StatusInactive)}
	}

	affected, err := s.repo.UpdateAccountStatus(ctx, ownerID, accountID, status)
	if err != nil {
		s.logger.Error("Failed to update account status",
			util.Int64("cpo_owner_id", ownerID),
			util.Int64("account_id", accountID),
			util.String("status", string(status)),
			util.ErrorField(err),
		)
		return "", ErrInternal
	}

	if affected == 0 {
		return model.ResultNoChangesApplied, nil
	}

	s.publisher.Publish(ctx, events.Event{
		Type:       events.TypeStatusChanged,
		CPOOwnerID: ownerID,
		AccountID:  accountID,
		Detail:     string(status),
	})

	return model.ResultSuccess, nil
}

func (s *AccountService) HealthCheck(ctx context.Context) error {
	return s.repo.HealthCheck(ctx)
}

// encryptNewAccount transforms a plaintext creation request into the record
// the procedure expects: every sensitive field encrypted, username and RFID
// tag passed through.
func (s *AccountService) encryptNewAccount(ownerID int64, req *model.CreateAccountRequest, passwordHash string) (*model.NewAccountRecord, error) {
	record := &model.NewAccountRecord{
		CPOOwnerID:   ownerID,
		Username:     req.Username,
		PasswordHash: passwordHash,
		RFIDCardTag:  req.RFIDCardTag,
	}

	encrypted := []struct {
		plaintext string
		dest      *string
	}{
		{req.Name, &record.Name},
		{req.Address, &record.Address},
		{req.EmailAddress, &record.EmailAddress},
		{req.MobileNumber, &record.MobileNumber},
		{req.VehiclePlateNumber, &record.VehiclePlateNumber},
		{req.VehicleBrand, &record.VehicleBrand},
		{req.VehicleModel, &record.VehicleModel},
	}

	for _, f := range encrypted {
		ciphertext, err := s.cipher.Encrypt(f.plaintext)
		if err != nil {
			return nil, err
		}
		*f.dest = ciphertext
	}

	return record, nil
}

// buildAssignments maps allow-listed keys to column assignments, encrypting
// everything but username. Keys are ordered so the generated statement is
// deterministic.
func (s *AccountService) buildAssignments(fields map[string]string) ([]mysql.Assignment, error) {
	assignments := make([]mysql.Assignment, 0, len(fields))

	for _, key := range sortedKeys(fields) {
		field := updatableFields[key]
		value := fields[key]

		if field.Sensitive {
			ciphertext, err := s.cipher.Encrypt(value)
			if err != nil {
				return nil, err
			}
			value = ciphertext
		}

		assignments = append(assignments, mysql.Assignment{Column: field.Column, Value: value})
	}

	return assignments, nil
}

// decryptAccount applies the field classification table in place.
func (s *AccountService) decryptAccount(account *model.RFIDAccount) error {
	for _, ref := range sensitiveAccountFields {
		p := ref(account)
		plaintext, err := s.cipher.Decrypt(*p)
		if err != nil {
			return err
		}
		*p = plaintext
	}
	return nil
}

// decryptAccounts decrypts a page with bounded concurrency. Each account is
// owned by exactly one worker, so no locking is needed.
func (s *AccountService) decryptAccounts(ctx context.Context, accounts []*model.RFIDAccount) error {
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(decryptConcurrency)

	for _, account := range accounts {
		account := account
		g.Go(func() error {
			return s.decryptAccount(account)
		})
	}

	return g.Wait()
}

func normalizePagination(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if offset < 0 {
		offset = DefaultOffset
	}
	return limit, offset
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func updatableFieldNames() []string {
	names := make([]string, 0, len(updatableFields))
	for name := range updatableFields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
