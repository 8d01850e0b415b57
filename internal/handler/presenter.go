package handler

import (
	"time"

	"github.com/heymemory/server/internal/model"
)

type userPayload struct {
	ID              string  `json:"id"`
	Email           string  `json:"email"`
	IsEmailVerified bool    `json:"isEmailVerified"`
	PendingEmail    *string `json:"pendingEmail,omitempty"`
	IsAdmin         bool    `json:"isAdmin"`
	FirstName       *string `json:"firstName"`
	LastName        *string `json:"lastName"`
	DateOfBirth     *string `json:"dateOfBirth"`
	Address         *string `json:"address"`
	City            *string `json:"city"`
	State           *string `json:"state"`
	ZipCode         *string `json:"zipCode"`
	Country         *string `json:"country"`
	CreatedAt       string  `json:"createdAt"`
	UpdatedAt       string  `json:"updatedAt"`
}

func presentUser(user *model.User) userPayload {
	return userPayload{
		ID:              user.ID,
		Email:           user.Email,
		IsEmailVerified: user.IsVerified(),
		PendingEmail:    user.PendingEmail,
		IsAdmin:         user.IsAdmin,
		FirstName:       user.FirstName,
		LastName:        user.LastName,
		DateOfBirth:     user.DateOfBirth,
		Address:         user.Address,
		City:            user.City,
		State:           user.State,
		ZipCode:         user.ZipCode,
		Country:         user.Country,
		CreatedAt:       user.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       user.UpdatedAt.Format(time.RFC3339),
	}
}

type facePayload struct {
	ID           string  `json:"id"`
	PersonName   string  `json:"personName"`
	Relationship string  `json:"relationship"`
	Notes        *string `json:"notes"`
	PhotoURL     string  `json:"photoUrl,omitempty"`
	CreatedAt    string  `json:"createdAt"`
	UpdatedAt    string  `json:"updatedAt"`
}

func presentFace(face *model.Face) facePayload {
	return facePayload{
		ID:           face.ID,
		PersonName:   face.PersonName,
		Relationship: face.Relationship,
		Notes:        face.Notes,
		PhotoURL:     face.PhotoURL,
		CreatedAt:    face.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    face.UpdatedAt.Format(time.RFC3339),
	}
}

func presentFaces(faces []*model.Face) []facePayload {
	out := make([]facePayload, 0, len(faces))
	for _, face := range faces {
		out = append(out, presentFace(face))
	}
	return out
}

type rememberItemPayload struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	Pinned    bool   `json:"pinned"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

func presentRememberItem(item *model.RememberItem) rememberItemPayload {
	return rememberItemPayload{
		ID:        item.ID,
		Title:     item.Title,
		Content:   item.Content,
		Pinned:    item.Pinned,
		CreatedAt: item.CreatedAt.Format(time.RFC3339),
		UpdatedAt: item.UpdatedAt.Format(time.RFC3339),
	}
}

func presentRememberItems(items []*model.RememberItem) []rememberItemPayload {
	out := make([]rememberItemPayload, 0, len(items))
	for _, item := range items {
		out = append(out, presentRememberItem(item))
	}
	return out
}
