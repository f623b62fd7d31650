package domain

import "errors"

// Sentinel errors shared between repositories and services. Handlers map
// these onto the HTTP error taxonomy in pkg/util/errorutil.
var (
	ErrNotFound              = errors.New("not found")
	ErrAssetRetired          = errors.New("asset retired")
	ErrAssetUnderMaintenance = errors.New("asset under maintenance")
	ErrNotUnderMaintenance   = errors.New("asset not under maintenance")
	ErrDuplicateOpenTicket   = errors.New("open ticket already exists for asset and category")
	ErrTicketClosed          = errors.New("ticket no longer accepts reports")
)
