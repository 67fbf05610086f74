package appointment

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
)

const DateLayout = "2006-01-02"

type Appointment struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	Date       string    `json:"date"`
	TimeSlotID string    `json:"timeSlotId"`
	Notes      string    `json:"notes,omitempty"`
	Name       string    `json:"name"`
	Contact    string    `json:"contact"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`

	// Joined display fields for list views.
	SlotTime string `json:"time,omitempty"`
	UserName string `json:"userName,omitempty"`
}

// slot already at capacity for the requested date
var ErrSlotFull = errors.New("time slot already booked")
var ErrNotFound = errors.New("appointment not found")

type CreateAppointmentRequest struct {
	Date       string `json:"date" binding:"required,datetime=2006-01-02"`
	TimeSlotID string `json:"timeSlot" binding:"required,uuid"`
	Notes      string `json:"notes" binding:"omitempty,max=1000"`
	Name       string `json:"name" binding:"required,min=2,max=120"`
	Contact    string `json:"contact" binding:"required,min=3,max=120"`
	UserID     string `json:"-"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=pending confirmed cancelled"`
}

// A factory to build an Appointment from the incoming DTO

func NewFromCreateRequest(req CreateAppointmentRequest) Appointment {
	now := time.Now().UTC()
	return Appointment{
		ID:         uuid.NewString(),
		UserID:     req.UserID,
		Date:       req.Date,
		TimeSlotID: req.TimeSlotID,
		Notes:      req.Notes,
		Name:       req.Name,
		Contact:    req.Contact,
		Status:     StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}
