package models

import "time"

// Request is a student's support request moderated by admins
type Request struct {
	ID            int64         `json:"id" db:"id"`
	StudentID     int64         `json:"studentId" db:"student_id"`
	Type          string        `json:"type" db:"type"`
	Message       string        `json:"message" db:"message"`
	Status        RequestStatus `json:"status" db:"status"`
	AdminResponse *string       `json:"adminResponse,omitempty" db:"admin_response"`
	CreatedAt     time.Time     `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time     `json:"updatedAt" db:"updated_at"`

	// Attachment metadata, set by the upload flow
	AttachmentName *string `json:"attachmentName,omitempty" db:"attachment_name"`
	AttachmentPath *string `json:"-" db:"attachment_path"`
	AttachmentType *string `json:"attachmentType,omitempty" db:"attachment_type"`
	AttachmentSize *int64  `json:"attachmentSize,omitempty" db:"attachment_size"`
}

// HasAttachment reports whether a file has been stored for the request.
func (r *Request) HasAttachment() bool {
	return r.AttachmentPath != nil && *r.AttachmentPath != ""
}
