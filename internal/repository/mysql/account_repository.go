package mysql

import (
	"context"
	"database/sql"
	"fmt"

	"rfid-admin-service/internal/client"
	"rfid-admin-service/internal/model"
	"rfid-admin-service/internal/util"
)

// accountRepository implements AccountRepository against the admin database.
// Reads go through the WEB_ADMIN_* stored procedures; the two mutations are
// parameterized UPDATEs scoped by owner.
type accountRepository struct {
	client *client.MySQLClient
}

func NewAccountRepository(client *client.MySQLClient) AccountRepository {
	return &accountRepository{client: client}
}

func (r *accountRepository) GetAccountsByOwner(ctx context.Context, ownerID int64, limit, offset int) ([]*model.RFIDAccount, error) {
	rows, err := r.client.DB.QueryContext(ctx,
		"CALL WEB_ADMIN_GET_RFID_USERS(?, ?, ?)",
		ownerID, limit, offset,
	)
	if err != nil {
		util.Error("Failed to fetch accounts by owner",
			util.Int64("cpo_owner_id", ownerID),
			util.ErrorField(err),
		)
		return nil, fmt.Errorf("failed to fetch accounts: %w", err)
	}
	defer rows.Close()

	return scanAccounts(rows)
}

func (r *accountRepository) FilterAccounts(ctx context.Context, ownerID int64, rfidPrefix, encryptedMobile string, limit, offset int) ([]*model.RFIDAccount, error) {
	rows, err := r.client.DB.QueryContext(ctx,
		"CALL WEB_ADMIN_FILTER_RFID_USERS(?, ?, ?, ?, ?)",
		ownerID, rfidPrefix, encryptedMobile, limit, offset,
	)
	if err != nil {
		util.Error("Failed to filter accounts",
			util.Int64("cpo_owner_id", ownerID),
			util.ErrorField(err),
		)
		return nil, fmt.Errorf("failed to filter accounts: %w", err)
	}
	defer rows.Close()

	return scanAccounts(rows)
}

func (r *accountRepository) GetAccountByID(ctx context.Context, ownerID, accountID int64) (*model.RFIDAccount, error) {
	row := r.client.DB.QueryRowContext(ctx,
		"CALL WEB_ADMIN_GET_RFID_USER_BY_ID(?, ?)",
		ownerID, accountID,
	)

	account, err := scanAccount(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		util.Error("Failed to fetch account by id",
			util.Int64("cpo_owner_id", ownerID),
			util.Int64("account_id", accountID),
			util.ErrorField(err),
		)
		return nil, fmt.Errorf("failed to fetch account: %w", err)
	}

	return account, nil
}

func (r *accountRepository) CreateAccount(ctx context.Context, record *model.NewAccountRecord) (string, error) {
	var status string

	err := r.client.DB.QueryRowContext(ctx,
		"CALL WEB_ADMIN_ADD_RFID_ACCOUNT(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		record.CPOOwnerID,
		record.Name,
		record.Address,
		record.EmailAddress,
		record.MobileNumber,
		record.VehiclePlateNumber,
		record.VehicleBrand,
		record.VehicleModel,
		record.Username,
		record.PasswordHash,
		record.RFIDCardTag,
	).Scan(&status)
	if err != nil {
		util.Error("Failed to create account",
			util.Int64("cpo_owner_id", record.CPOOwnerID),
			util.String("username", record.Username),
			util.ErrorField(err),
		)
		return "", fmt.Errorf("failed to create account: %w", err)
	}

	return status, nil
}

func (r *accountRepository) UpdateAccountFields(ctx context.Context, ownerID, accountID int64, assignments []Assignment) (int64, error) {
	query, args, err := buildUpdateQuery(ownerID, accountID, assignments)
	if err != nil {
		return 0, err
	}

	result, err := r.client.DB.ExecContext(ctx, query, args...)
	if err != nil {
		util.Error("Failed to update account fields",
			util.Int64("cpo_owner_id", ownerID),
			util.Int64("account_id", accountID),
			util.ErrorField(err),
		)
		return 0, fmt.Errorf("failed to update account: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}

	return affected, nil
}

func (r *accountRepository) UpdateAccountStatus(ctx context.Context, ownerID, accountID int64, status model.AccountStatus) (int64, error) {
	result, err := r.client.DB.ExecContext(ctx,
		"UPDATE rfid_users SET user_status = ? WHERE id = ? AND cpo_owner_id = ?",
		string(status), accountID, ownerID,
	)
	if err != nil {
		util.Error("Failed to update account status",
			util.Int64("cpo_owner_id", ownerID),
			util.Int64("account_id", accountID),
			util.String("status", string(status)),
			util.ErrorField(err),
		)
		return 0, fmt.Errorf("failed to update account status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}

	return affected, nil
}

func (r *accountRepository) HealthCheck(ctx context.Context) error {
	return r.client.HealthCheck(ctx)
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAccount(row rowScanner) (*model.RFIDAccount, error) {
	var (
		account model.RFIDAccount
		name    sql.NullString
		address sql.NullString
		email   sql.NullString
		mobile  sql.NullString
		plate   sql.NullString
		brand   sql.NullString
		vmodel  sql.NullString
	)

	err := row.Scan(
		&account.RowNumber,
		&account.ID,
		&account.CPOOwnerID,
		&name,
		&address,
		&email,
		&mobile,
		&plate,
		&brand,
		&vmodel,
		&account.Username,
		&account.RFIDCardTag,
		&account.Balance,
		&account.UserStatus,
	)
	if err != nil {
		return nil, err
	}

	account.Name = name.String
	account.Address = address.String
	account.EmailAddress = email.String
	account.MobileNumber = mobile.String
	account.VehiclePlateNumber = plate.String
	account.VehicleBrand = brand.String
	account.VehicleModel = vmodel.String

	return &account, nil
}

func scanAccounts(rows *sql.Rows) ([]*model.RFIDAccount, error) {
	accounts := make([]*model.RFIDAccount, 0)

	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account row: %w", err)
		}
		accounts = append(accounts, account)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate account rows: %w", err)
	}

	return accounts, nil
}
