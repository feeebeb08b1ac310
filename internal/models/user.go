// Package models contains the wire types the platform API exchanges with
// its clients, plus the shared error taxonomy. Field names match the JSON
// keys the API emits.
package models

import "time"

// User is the account record as returned by the API. Posts and Likes are
// aggregate counts, present only on profile responses.
type User struct {
	UserID       int         `json:"UserID"`
	Email        string      `json:"Email,omitempty"`
	Username     string      `json:"Username"`
	Avatar       string      `json:"Avatar,omitempty"`
	Role         string      `json:"Role,omitempty"`
	UniversityID int         `json:"UniversityID,omitempty"`
	CareerID     int         `json:"CareerID,omitempty"`
	University   *University `json:"University,omitempty"`
	Career       *Career     `json:"Career,omitempty"`
	CreatedAt    time.Time   `json:"CreatedAt,omitempty"`
	Posts        int         `json:"Posts,omitempty"`
	Likes        int         `json:"Likes,omitempty"`
}

// University is immutable reference data.
type University struct {
	UniversityID int    `json:"UniversityID,omitempty"`
	Name         string `json:"Name"`
}

// Career is immutable reference data scoped to a university.
type Career struct {
	CareerID     int    `json:"CareerID"`
	Name         string `json:"Name"`
	UniversityID int    `json:"UniversityID,omitempty"`
}
