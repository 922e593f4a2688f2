package handlers

const (
	// Run listing
	defaultRunPageSize = 50
	maxRunPageSize     = 500
)
