package leave

import "errors"

// Leave domain errors
var (
	ErrApplicationNotFound      = errors.New("leave application not found")
	ErrApprovalNotFound         = errors.New("no approval task assigned to this approver")
	ErrAlreadyDecided           = errors.New("this approval has already been decided")
	ErrActiveApplicationExists  = errors.New("an active leave application already exists for this record")
	ErrApplicationAlreadyClosed = errors.New("leave application has already been approved or rejected")
)
