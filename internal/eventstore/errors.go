package eventstore

import (
	"git.home.luguber.info/inful/iiifworks/internal/foundation/errors"
)

var (
	// ErrDatabaseOpenFailed indicates the SQLite database could not be opened.
	ErrDatabaseOpenFailed = errors.FileSystemError("could not open build ledger database").Build()

	// ErrInitializeSchemaFailed indicates the database schema could not be initialized.
	ErrInitializeSchemaFailed = errors.FileSystemError("failed to initialize build ledger schema").Build()

	// ErrEventAppendFailed indicates appending an event failed.
	ErrEventAppendFailed = errors.FileSystemError("failed to append event to build ledger").Build()

	// ErrEventQueryFailed indicates querying events failed.
	ErrEventQueryFailed = errors.FileSystemError("failed to query build ledger").Build()

	// ErrUnmarshalPayloadFailed indicates a stored payload could not be decoded.
	ErrUnmarshalPayloadFailed = errors.InternalError("failed to unmarshal event payload").Build()
)
