package models

import "time"

type Category struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	IconName    string    `json:"icon_name,omitempty"`
	ColorCode   string    `json:"color_code,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type CategoryRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	IconName    string `json:"icon_name"`
	ColorCode   string `json:"color_code"`
}
