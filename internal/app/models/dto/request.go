package dto

import (
	"time"

	"github.com/yigit/aiinfocenter/internal/app/models"
)

// CreateRequestRequest submits a support request
type CreateRequestRequest struct {
	Message string `json:"message" example:"I need a certificate of enrollment"`
}

// RespondRequestRequest is an admin's answer to a request. Status is parsed
// against models.RequestStatuses by the controller.
type RespondRequestRequest struct {
	Response string `json:"response" example:"Ready at the secretariat."`
	Status   string `json:"status" binding:"required" example:"CLOSED"`
}

// AttachmentResponse describes the file attached to a request
type AttachmentResponse struct {
	Name        string `json:"name" example:"grades.pdf"`
	ContentType string `json:"contentType" example:"application/pdf"`
	Size        int64  `json:"size" example:"52311"`
}

// RequestResponse represents a support request
type RequestResponse struct {
	ID            int64                `json:"id" example:"1"`
	StudentID     int64                `json:"studentId" example:"5"`
	Type          string               `json:"type" example:"GENERAL"`
	Message       string               `json:"message" example:"I need a certificate of enrollment"`
	Status        models.RequestStatus `json:"status" example:"OPEN"`
	AdminResponse *string              `json:"adminResponse,omitempty"`
	Attachment    *AttachmentResponse  `json:"attachment,omitempty"`
	CreatedAt     time.Time            `json:"createdAt"`
	UpdatedAt     time.Time            `json:"updatedAt"`
}

// NewRequestResponse converts a request model
func NewRequestResponse(r *models.Request) RequestResponse {
	resp := RequestResponse{
		ID:            r.ID,
		StudentID:     r.StudentID,
		Type:          r.Type,
		Message:       r.Message,
		Status:        r.Status,
		AdminResponse: r.AdminResponse,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
	if r.HasAttachment() {
		att := &AttachmentResponse{}
		if r.AttachmentName != nil {
			att.Name = *r.AttachmentName
		}
		if r.AttachmentType != nil {
			att.ContentType = *r.AttachmentType
		}
		if r.AttachmentSize != nil {
			att.Size = *r.AttachmentSize
		}
		resp.Attachment = att
	}
	return resp
}

// NewRequestResponses converts a list of requests
func NewRequestResponses(requests []*models.Request) []RequestResponse {
	out := make([]RequestResponse, 0, len(requests))
	for _, r := range requests {
		out = append(out, NewRequestResponse(r))
	}
	return out
}
