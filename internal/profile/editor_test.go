package profile

import (
	"context"
	"errors"
	"testing"

	"github.com/claude/ascend/internal/api"
	"github.com/claude/ascend/internal/models"
)

type fakeBackend struct {
	profile   *models.UserProfile
	updateErr error
	updates   []models.ProfileUpdate
}

func (f *fakeBackend) FetchProfile(context.Context, string) (*models.UserProfile, error) {
	cp := *f.profile
	return &cp, nil
}

func (f *fakeBackend) UpdateProfile(_ context.Context, _ string, u models.ProfileUpdate) (*models.UserProfile, error) {
	f.updates = append(f.updates, u)
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return &models.UserProfile{
		Username: u.Username, Email: u.Email, FirstName: u.FirstName, LastName: u.LastName,
		UserWeight: u.UserWeight, UserHeight: u.UserHeight, UserGender: u.UserGender,
	}, nil
}

func float(v float64) *float64 { return &v }

func newLoadedEditor(t *testing.T) (*Editor, *fakeBackend) {
	t.Helper()
	b := &fakeBackend{profile: &models.UserProfile{
		Username:   "sam",
		Email:      "sam@example.com",
		FirstName:  "Sam",
		UserWeight: float(80),
		Workouts:   []models.Workout{{ID: "1"}},
	}}
	e := NewEditor(b, "7")
	if _, err := e.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	return e, b
}

// TestCancelRestoresFetched verifies cancel discards every buffered change.
func TestCancelRestoresFetched(t *testing.T) {
	e, b := newLoadedEditor(t)
	if err := e.Begin(); err != nil {
		t.Fatal(err)
	}
	if err := e.Set(FieldFirstName, "Samantha"); err != nil {
		t.Fatal(err)
	}
	if err := e.Set(FieldWeight, "75.5"); err != nil {
		t.Fatal(err)
	}
	if got := e.Current().FirstName; got != "Samantha" {
		t.Errorf("buffer first name = %q", got)
	}

	e.Cancel()
	cur := e.Current()
	if cur.FirstName != "Sam" || *cur.UserWeight != 80 {
		t.Errorf("after cancel = %+v, want fetched values", cur)
	}
	if *e.Profile().UserWeight != 80 {
		t.Error("edit leaked into the fetched profile")
	}
	if len(b.updates) != 0 {
		t.Error("cancel sent an update")
	}
}

// TestSaveReplacesFetched verifies the server response becomes the fetched copy.
func TestSaveReplacesFetched(t *testing.T) {
	e, b := newLoadedEditor(t)
	_ = e.Begin()
	if err := e.Set(FieldGender, "female"); err != nil {
		t.Fatal(err)
	}
	if err := e.Set(FieldHeight, ""); err != nil {
		t.Fatal(err)
	}

	updated, err := e.Save(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(b.updates) != 1 || b.updates[0].UserGender != "female" || b.updates[0].Username != "sam" {
		t.Errorf("updates = %+v", b.updates)
	}
	if updated.UserGender != "female" || e.Profile().UserGender != "female" {
		t.Errorf("fetched not replaced: %+v", e.Profile())
	}
	if len(e.Profile().Workouts) != 1 {
		t.Error("workouts dropped after save")
	}
	if e.Editing() {
		t.Error("still editing after save")
	}
}

// TestSaveFailureKeepsEdit verifies a failed save leaves the buffer open.
func TestSaveFailureKeepsEdit(t *testing.T) {
	e, b := newLoadedEditor(t)
	b.updateErr = &api.Error{StatusCode: 400, Fields: map[string][]string{"email": {"Enter a valid email address."}}}
	_ = e.Begin()
	_ = e.Set(FieldLastName, "Lee")

	_, err := e.Save(context.Background())
	if !errors.Is(err, api.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
	if !e.Editing() || e.Current().LastName != "Lee" {
		t.Error("edit buffer lost after failed save")
	}
	if e.Profile().LastName != "" {
		t.Error("fetched profile changed after failed save")
	}
}

// TestSetValidation verifies field checks.
func TestSetValidation(t *testing.T) {
	e, _ := newLoadedEditor(t)
	if err := e.Set(FieldFirstName, "x"); !errors.Is(err, ErrNotEditing) {
		t.Errorf("Set before Begin err = %v", err)
	}
	_ = e.Begin()

	tests := []struct {
		field, value string
	}{
		{FieldWeight, "heavy"},
		{FieldWeight, "-3"},
		{FieldHeight, "0"},
		{FieldWeight, "NaN"},
		{FieldHeight, "+Inf"},
		{FieldGender, "robot"},
		{FieldEmail, "nope"},
		{FieldUsername, " "},
		{"password", "x"},
	}
	for _, tt := range tests {
		var verr *api.ValidationError
		if err := e.Set(tt.field, tt.value); !errors.As(err, &verr) {
			t.Errorf("Set(%s, %q) err = %v, want ValidationError", tt.field, tt.value, err)
		}
	}
	if err := e.Set(FieldGender, ""); err != nil {
		t.Errorf("clearing gender: %v", err)
	}
}

// TestBeginBeforeLoad verifies editing requires a fetched profile.
func TestBeginBeforeLoad(t *testing.T) {
	e := NewEditor(&fakeBackend{}, "1")
	if err := e.Begin(); !errors.Is(err, ErrNotLoaded) {
		t.Errorf("err = %v, want ErrNotLoaded", err)
	}
	if _, err := e.Save(context.Background()); !errors.Is(err, ErrNotEditing) {
		t.Errorf("Save err = %v, want ErrNotEditing", err)
	}
}
