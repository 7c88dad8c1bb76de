package errno

// Errno defines the error code logic
type Errno struct {
	Code    int
	Message string
}

func (e Errno) Error() string {
	return e.Message
}

// Decode tries to convert an error to Errno
func Decode(err error) (int, string) {
	if err == nil {
		return OK.Code, OK.Message
	}

	switch typed := err.(type) {
	case *Errno:
		return typed.Code, typed.Message
	case Errno:
		return typed.Code, typed.Message
	default:
		return InternalServerError.Code, err.Error()
	}
}

// Common Errors
var (
	OK                  = Errno{Code: 0, Message: "Success"}
	InternalServerError = Errno{Code: 10001, Message: "Internal server error"}
	ErrBind             = Errno{Code: 10002, Message: "Error occurred while binding the request body to the struct"}
	ErrTokenInvalid     = Errno{Code: 10003, Message: "Token invalid"}
	ErrDatabase         = Errno{Code: 10004, Message: "Database error"}
)

// Business Errors (20000+)
var (
	ErrUserNotFound      = Errno{Code: 20101, Message: "User not found"}
	ErrUserAlreadyExists = Errno{Code: 20102, Message: "Username or email already exists"}
	ErrPasswordIncorrect = Errno{Code: 20103, Message: "Password incorrect"}

	ErrUnsupportedChain = Errno{Code: 20201, Message: "Unsupported chain"}
	ErrUnsupportedAsset = Errno{Code: 20202, Message: "Unsupported asset"}
	ErrInvalidAddress   = Errno{Code: 20203, Message: "Invalid address"}
	ErrAddressNotFound  = Errno{Code: 20204, Message: "Address not found"}

	ErrInvalidAmount                = Errno{Code: 20301, Message: "Invalid amount"}
	ErrAccountNotFound              = Errno{Code: 20302, Message: "Account not found"}
	ErrInsufficientAvailableBalance = Errno{Code: 20303, Message: "Insufficient available balance"}
	ErrInsufficientFundsForClawback = Errno{Code: 20304, Message: "Insufficient funds for clawback"}
	ErrUserBalanceInconsistent      = Errno{Code: 20305, Message: "User balance inconsistent at settlement"}

	ErrMissingIdempotencyKey       = Errno{Code: 20401, Message: "Missing Idempotency-Key header"}
	ErrIdempotencyKeyReuseMismatch = Errno{Code: 20402, Message: "Idempotency key reused with a different payload"}
	ErrWithdrawalNotFound          = Errno{Code: 20403, Message: "Withdrawal not found"}
)
