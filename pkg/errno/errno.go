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
	ErrDatabase         = Errno{Code: 10004, Message: "Database error"}
)

// Business Errors (20000+)
var (
	ErrInvalidParameters        = Errno{Code: 20101, Message: "Invalid auction parameters"}
	ErrAuctionNotFound          = Errno{Code: 20102, Message: "Auction not found"}
	ErrAuctionNotActive         = Errno{Code: 20103, Message: "Auction is not active"}
	ErrAlreadyFinalized         = Errno{Code: 20104, Message: "Auction already finalized"}
	ErrInsufficientPayment      = Errno{Code: 20105, Message: "Payment below current price"}
	ErrUnauthorizedCancellation = Errno{Code: 20106, Message: "Only the seller can cancel the auction"}
	ErrEscrowTransferFailed     = Errno{Code: 20107, Message: "Escrow asset transfer failed"}
	ErrCustodyInconsistent      = Errno{Code: 20108, Message: "Custody inconsistency: auction finalized but asset movement failed"}
)
