package domain

import "time"

// ContactMessage is a submission from the public contact form.
type ContactMessage struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// DashboardStats are the counters shown on the operator dashboard.
type DashboardStats struct {
	TotalProducts  int `json:"total_products"`
	TotalMessages  int `json:"total_messages"`
	UnreadMessages int `json:"unread_messages"`
	TotalChats     int `json:"total_chats"`
	TotalUsers     int `json:"total_users"`
}
