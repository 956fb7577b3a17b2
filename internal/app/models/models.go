package models

import "strings"

// Role defines the user role type
type Role string

const (
	RoleStudent Role = "STUDENT"
	RoleAdmin   Role = "ADMIN"
)

// ParseRole trims and upper-cases s and returns the matching Role.
func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToUpper(strings.TrimSpace(s))) {
	case RoleStudent:
		return RoleStudent, true
	case RoleAdmin:
		return RoleAdmin, true
	}
	return "", false
}

// Sender identifies who wrote a chat message
type Sender string

const (
	SenderStudent Sender = "STUDENT"
	SenderAI      Sender = "AI"
)

// RequestStatus is the moderation state of a support request
type RequestStatus string

const (
	RequestStatusOpen       RequestStatus = "OPEN"
	RequestStatusInProgress RequestStatus = "IN_PROGRESS"
	RequestStatusClosed     RequestStatus = "CLOSED"
)

// RequestStatuses lists every declared status, in lifecycle order.
var RequestStatuses = []RequestStatus{RequestStatusOpen, RequestStatusInProgress, RequestStatusClosed}

// ParseRequestStatus trims and upper-cases s and returns the matching status.
func ParseRequestStatus(s string) (RequestStatus, bool) {
	candidate := RequestStatus(strings.ToUpper(strings.TrimSpace(s)))
	for _, st := range RequestStatuses {
		if st == candidate {
			return st, true
		}
	}
	return "", false
}

// RequestTypeGeneral is the only request type students can currently submit.
const RequestTypeGeneral = "GENERAL"
