package domain

import "time"

// Contact is the customer on the other side of a ticket's conversation.
type Contact struct {
	ID            int64     `json:"id"`
	CompanyID     int64     `json:"companyId"`
	Name          string    `json:"name"`
	Number        string    `json:"number"`
	Email         string    `json:"email"`
	ProfilePicURL string    `json:"profilePicUrl"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Company is the tenant boundary; every query and event is scoped to one.
type Company struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
