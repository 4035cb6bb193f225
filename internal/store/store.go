package store

import "errors"

// ErrNotFound is returned when a requested entity does not exist in the store.
var ErrNotFound = errors.New("not found")

// Store defines the persistence interface.
type Store interface {
	// Reporting configuration
	SaveReporting(e *ReportingEntry) error
	GetReporting(key ReportingKey) (*ReportingEntry, error)
	DeleteReporting(key ReportingKey) error
	// ListReporting returns the entries of one endpoint ordered by cluster then attribute.
	ListReporting(endpoint uint8) ([]*ReportingEntry, error)

	// Endpoint state
	SaveEndpointState(state *EndpointState) error
	GetEndpointState(endpoint uint8) (*EndpointState, error)

	// Close the store
	Close() error
}
