package model

// AccountStatus is the domain state of an RFID account. Exactly two values
// are legal; anything else is rejected before it reaches storage.
type AccountStatus string

const (
	StatusActive   AccountStatus = "ACTIVE"
	StatusInactive AccountStatus = "INACTIVE"
)

func (s AccountStatus) IsValid() bool {
	return s == StatusActive || s == StatusInactive
}

// Result tokens reported by the account stored procedures.
const (
	ResultSuccess          = "SUCCESS"
	ResultNoChangesApplied = "NO_CHANGES_APPLIED"

	ResultExistingEmailAddress = "EXISTING_EMAIL_ADDRESS"
	ResultExistingMobileNumber = "EXISTING_MOBILE_NUMBER"
	ResultExistingPlateNumber  = "EXISTING_PLATE_NUMBER"
	ResultExistingUsername     = "EXISTING_USERNAME"
	ResultRFIDDoesNotExist     = "RFID_DOES_NOT_EXIST"
	ResultRFIDAlreadyOwned     = "RFID_ALREADY_OWNED"
)

// RFIDAccount is a driver account administered by a CPO owner. The sensitive
// attributes (Name through VehicleModel) are stored encrypted; the service
// decrypts them before an account ever leaves the API boundary. Username and
// RFIDCardTag are the only identity attributes persisted in plaintext.
type RFIDAccount struct {
	RowNumber          int64         `json:"row_number,omitempty"`
	ID                 int64         `json:"id"`
	CPOOwnerID         int64         `json:"cpo_owner_id"`
	Name               string        `json:"name"`
	Address            string        `json:"address"`
	EmailAddress       string        `json:"email_address"`
	MobileNumber       string        `json:"mobile_number"`
	VehiclePlateNumber string        `json:"vehicle_plate_number"`
	VehicleBrand       string        `json:"vehicle_brand"`
	VehicleModel       string        `json:"vehicle_model"`
	Username           string        `json:"username"`
	RFIDCardTag        string        `json:"rfid_card_tag"`
	Balance            float64       `json:"balance"`
	UserStatus         AccountStatus `json:"user_status"`
}

// CreateAccountRequest carries the plaintext attributes of a new account as
// received at the API boundary.
type CreateAccountRequest struct {
	Name               string `json:"name"`
	Address            string `json:"address"`
	EmailAddress       string `json:"email_address"`
	MobileNumber       string `json:"mobile_number"`
	VehiclePlateNumber string `json:"vehicle_plate_number"`
	VehicleBrand       string `json:"vehicle_brand"`
	VehicleModel       string `json:"vehicle_model"`
	Username           string `json:"username"`
	RFIDCardTag        string `json:"rfid_card_tag"`
}

// NewAccountRecord is what the creation procedure receives: the same shape
// with every sensitive field already encrypted and the onboarding password
// hashed.
type NewAccountRecord struct {
	CPOOwnerID         int64
	Name               string
	Address            string
	EmailAddress       string
	MobileNumber       string
	VehiclePlateNumber string
	VehicleBrand       string
	VehicleModel       string
	Username           string
	PasswordHash       string
	RFIDCardTag        string
}
