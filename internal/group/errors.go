package group

import "errors"

// ErrDuplicate is returned by repositories when a unique constraint rejects
// a write that passed the service's existence checks.
var ErrDuplicate = errors.New("duplicate record")

// ErrLastAdmin is returned by UpdateRole when the change would leave the
// group without an admin.
var ErrLastAdmin = errors.New("last admin")
