package exception

import "errors"

// Collaborator endpoint errors
var (
	ErrSnapshotStatus = errors.New("portfolio: unexpected snapshot response status")
	ErrStatusStatus   = errors.New("status: unexpected response status")
)
