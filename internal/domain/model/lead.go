// Package model contains domain models passed between layers.
package model

import "time"

// Lead is a persisted contact-form submission.
type Lead struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Message string `json:"message"`
	// Timestamp is nil for records written without a server timestamp.
	Timestamp *time.Time `json:"timestamp"`
}

// Submission is a contact form as posted by a visitor, before it becomes a Lead.
type Submission struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Message string `json:"message"`
	// Token identifies one rendering of the form; resubmits carry the same token.
	Token string `json:"token"`
}

// Lead converts the submission to a lead stamped at ts. The id is assigned by the store.
func (s Submission) Lead(ts time.Time) Lead {
	return Lead{
		Name:      s.Name,
		Email:     s.Email,
		Phone:     s.Phone,
		Message:   s.Message,
		Timestamp: &ts,
	}
}

// BookingRequest is a table reservation request from the booking form.
type BookingRequest struct {
	ID           string    `json:"id"`
	Confirmation string    `json:"confirmation"`
	Venue        string    `json:"venue"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	Date         string    `json:"date"`
	Time         string    `json:"time"`
	PartySize    int       `json:"party_size"`
	Notes        string    `json:"notes,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
