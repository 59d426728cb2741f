package mysql

import (
	"context"

	"rfid-admin-service/internal/model"
)

// AccountRepository is the storage boundary for RFID accounts. It translates
// typed operations into stored-procedure calls and tenant-scoped updates; it
// never touches plaintext/ciphertext conversion and surfaces storage errors
// unmodified.
type AccountRepository interface {
	// GetAccountsByOwner returns the owner's accounts, paginated.
	GetAccountsByOwner(ctx context.Context, ownerID int64, limit, offset int) ([]*model.RFIDAccount, error)

	// FilterAccounts returns the owner's accounts whose RFID tag starts with
	// rfidPrefix or whose stored mobile number equals encryptedMobile.
	FilterAccounts(ctx context.Context, ownerID int64, rfidPrefix, encryptedMobile string, limit, offset int) ([]*model.RFIDAccount, error)

	// GetAccountByID returns one account under the owner's scope. A miss
	// surfaces as sql.ErrNoRows.
	GetAccountByID(ctx context.Context, ownerID, accountID int64) (*model.RFIDAccount, error)

	// CreateAccount submits a new account record and returns the procedure's
	// status token.
	CreateAccount(ctx context.Context, record *model.NewAccountRecord) (string, error)

	// UpdateAccountFields applies the given column assignments to one account
	// and returns the affected-row count.
	UpdateAccountFields(ctx context.Context, ownerID, accountID int64, assignments []Assignment) (int64, error)

	// UpdateAccountStatus sets the account status and returns the affected-row
	// count.
	UpdateAccountStatus(ctx context.Context, ownerID, accountID int64, status model.AccountStatus) (int64, error)

	HealthCheck(ctx context.Context) error
}
