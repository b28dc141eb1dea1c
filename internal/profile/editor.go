// Package profile implements the profile edit flow: a fetched copy of the
// profile plus an edit buffer that is either saved or thrown away.
package profile

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/claude/ascend/internal/api"
	"github.com/claude/ascend/internal/models"
)

// ErrNotLoaded is returned when editing starts before a profile was fetched.
var ErrNotLoaded = errors.New("profile: not loaded")

// ErrNotEditing is returned by Set and Save outside an edit.
var ErrNotEditing = errors.New("profile: not editing")

// Field names accepted by Set.
const (
	FieldUsername  = "username"
	FieldEmail     = "email"
	FieldFirstName = "first_name"
	FieldLastName  = "last_name"
	FieldWeight    = "user_weight"
	FieldHeight    = "user_height"
	FieldGender    = "user_gender"
)

// Fields lists the editable fields in display order.
var Fields = []string{FieldUsername, FieldEmail, FieldFirstName, FieldLastName, FieldWeight, FieldHeight, FieldGender}

// Genders are the accepted user_gender values. Empty means unset.
var Genders = []string{"male", "female", "Other"}

// Backend is the part of the API client the editor needs.
type Backend interface {
	FetchProfile(ctx context.Context, userID string) (*models.UserProfile, error)
	UpdateProfile(ctx context.Context, userID string, update models.ProfileUpdate) (*models.UserProfile, error)
}

// Editor holds the last fetched profile and, while editing, a buffer of
// pending changes. Concurrent edits elsewhere are overwritten on save.
type Editor struct {
	backend Backend
	userID  string

	fetched *models.UserProfile
	buffer  *models.ProfileUpdate
}

// NewEditor creates an editor for userID.
func NewEditor(backend Backend, userID string) *Editor {
	return &Editor{backend: backend, userID: userID}
}

// Load fetches the profile, discarding any edit in progress.
func (e *Editor) Load(ctx context.Context) (*models.UserProfile, error) {
	p, err := e.backend.FetchProfile(ctx, e.userID)
	if err != nil {
		return nil, fmt.Errorf("loading profile: %w", err)
	}
	e.fetched = p
	e.buffer = nil
	return p, nil
}

// Profile returns the last fetched profile, or nil before Load.
func (e *Editor) Profile() *models.UserProfile { return e.fetched }

// Editing reports whether an edit is in progress.
func (e *Editor) Editing() bool { return e.buffer != nil }

// Begin starts an edit from the fetched profile.
func (e *Editor) Begin() error {
	if e.fetched == nil {
		return ErrNotLoaded
	}
	buf := e.fetched.EditableFields()
	buf.UserWeight = clonePtr(buf.UserWeight)
	buf.UserHeight = clonePtr(buf.UserHeight)
	e.buffer = &buf
	return nil
}

// Current returns the values being edited, or the fetched values when not editing.
func (e *Editor) Current() models.ProfileUpdate {
	if e.buffer != nil {
		return *e.buffer
	}
	if e.fetched != nil {
		return e.fetched.EditableFields()
	}
	return models.ProfileUpdate{}
}

// Set updates one field of the edit buffer. Numeric fields accept an empty
// value to clear them.
func (e *Editor) Set(field, value string) error {
	if e.buffer == nil {
		return ErrNotEditing
	}
	value = strings.TrimSpace(value)

	switch field {
	case FieldUsername:
		if value == "" {
			return api.NewValidationError(field, "Username cannot be empty.")
		}
		e.buffer.Username = value
	case FieldEmail:
		if value == "" || !strings.Contains(value, "@") {
			return api.NewValidationError(field, "Please enter a valid email address.")
		}
		e.buffer.Email = value
	case FieldFirstName:
		e.buffer.FirstName = value
	case FieldLastName:
		e.buffer.LastName = value
	case FieldWeight, FieldHeight:
		n, err := parseMeasurement(field, value)
		if err != nil {
			return err
		}
		if field == FieldWeight {
			e.buffer.UserWeight = n
		} else {
			e.buffer.UserHeight = n
		}
	case FieldGender:
		if value != "" && !slices.Contains(Genders, value) {
			return api.NewValidationError(field, "Gender must be one of "+strings.Join(Genders, ", ")+".")
		}
		e.buffer.UserGender = value
	default:
		return api.NewValidationError(field, "Unknown profile field.")
	}
	return nil
}

// Cancel drops the edit buffer, leaving the fetched profile as it was.
func (e *Editor) Cancel() {
	e.buffer = nil
}

// Save sends the edit buffer and replaces the fetched profile with the
// server's response. On failure the edit stays open.
func (e *Editor) Save(ctx context.Context) (*models.UserProfile, error) {
	if e.buffer == nil {
		return nil, ErrNotEditing
	}
	updated, err := e.backend.UpdateProfile(ctx, e.userID, *e.buffer)
	if err != nil {
		return nil, fmt.Errorf("saving profile: %w", err)
	}
	// The update response carries only the editable fields.
	if len(updated.Workouts) == 0 {
		updated.Workouts = e.fetched.Workouts
	}
	if len(updated.WeightEntries) == 0 {
		updated.WeightEntries = e.fetched.WeightEntries
	}
	e.fetched = updated
	e.buffer = nil
	return updated, nil
}

func parseMeasurement(field, value string) (*float64, error) {
	if value == "" {
		return nil, nil
	}
	n, err := strconv.ParseFloat(value, 64)
	if err != nil || n <= 0 || math.IsNaN(n) || math.IsInf(n, 0) {
		return nil, api.NewValidationError(field, "Please enter a positive number.")
	}
	return &n, nil
}

func clonePtr(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
