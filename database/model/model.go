package model

import (
	"errors"
	"time"
)

var (
	ErrNoConfiguration = errors.New("store connection string not set")
	ErrNoDbHandle      = errors.New("db connection not available")
	ErrNotFound        = errors.New("not found")
	ErrDuplicate       = errors.New("already exists")
	ErrInvalidPassword = errors.New("invalid password")
)

// AccessAdmin is the access level value that grants admin capability.
const AccessAdmin = 1

// User represents an account in the users store.
type User struct {
	// ID is the unique identifier for the user.
	ID string `db:"id"`
	// Email is the unique login identity of the user.
	Email string `db:"email"`
	// Name is the display name of the user.
	Name string `db:"name"`
	// Password is the bcrypt hash of the user's password.
	Password string `db:"password"`
	// Access is the access level, AccessAdmin grants admin capability.
	Access int `db:"access"`
	// Premium indicates an active premium subscription.
	Premium bool `db:"premium"`
	// Image is the URL of the user's avatar.
	Image string `db:"image"`
	// Created is the time the account was created.
	Created time.Time `db:"created"`
}

// IsAdmin reports whether the user has admin capability.
func (u *User) IsAdmin() bool {
	return u.Access == AccessAdmin
}

// Payment represents a PIX payment record in the users store.
type Payment struct {
	// TxID is the payment transaction identifier.
	TxID string `db:"txid"`
	// UserID is the paying user.
	UserID string `db:"userid"`
	// AmountCents is the charged amount in cents.
	AmountCents int64 `db:"amount_cents"`
	// Code is the PIX copy-and-paste code handed to the client.
	Code string `db:"code"`
	// Status is PaymentPending or PaymentPaid.
	Status string `db:"status"`
	// Created is the time the payment was requested.
	Created time.Time `db:"created"`
	// Paid is the time the payment was confirmed, zero while pending.
	Paid time.Time `db:"paid"`
}

const (
	PaymentPending = "pending"
	PaymentPaid    = "paid"
)

// Video represents a video in the videos store.
type Video struct {
	ID          string `db:"id"`
	Title       string `db:"title"`
	Description string `db:"description"`
	// URL points at the playable stream.
	URL string `db:"url"`
	// ThumbnailURL points at the poster image.
	ThumbnailURL string `db:"thumbnail"`
	// ViewCount is incremented once per recorded watch event.
	ViewCount int64 `db:"viewcount"`
	// LikesCount mirrors the number of like rows for the video.
	LikesCount int64 `db:"likescount"`
	// Duration of the video in seconds.
	Duration int64 `db:"duration"`
	// Premium gates playback to premium subscribers.
	Premium bool `db:"premium"`
	// Creator is the creator's name. Not a foreign key: resolved against
	// Creator.Name per request.
	Creator string    `db:"creator"`
	Created time.Time `db:"created"`
}

// Creator represents a content creator in the videos store.
type Creator struct {
	ID string `db:"id"`
	// Name is unique and is the join key from Video.Creator.
	Name string `db:"name"`
	// Qtd is the creator's published video count.
	Qtd         int       `db:"qtd"`
	Description string    `db:"description"`
	Image       string    `db:"image"`
	Created     time.Time `db:"created"`
}

// Category represents a video category.
type Category struct {
	ID      string    `db:"id"`
	Name    string    `db:"name"`
	Created time.Time `db:"created"`
}

// WatchedVideo is a history row joined to its video.
type WatchedVideo struct {
	Video
	// WatchedAt is the time of the most recent watch event.
	WatchedAt time.Time `db:"watchedat"`
	// WatchDuration is the watched duration in seconds, nil when the
	// client did not report one.
	WatchDuration *int64 `db:"watchduration"`
}
