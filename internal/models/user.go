package models

import "encoding/json"

// UserProfile is the full profile snapshot served by GET /api/user/{id}/.
type UserProfile struct {
	Username      string        `json:"username"`
	Email         string        `json:"email"`
	FirstName     string        `json:"first_name"`
	LastName      string        `json:"last_name"`
	UserWeight    *float64      `json:"user_weight"`
	UserHeight    *float64      `json:"user_height"`
	UserGender    string        `json:"user_gender"`
	Workouts      []Workout     `json:"workouts"`
	WeightEntries []WeightEntry `json:"weight_entries"`
}

func (p *UserProfile) UnmarshalJSON(data []byte) error {
	type plain UserProfile
	var v plain
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if v.Workouts == nil {
		v.Workouts = []Workout{}
	}
	if v.WeightEntries == nil {
		v.WeightEntries = []WeightEntry{}
	}
	*p = UserProfile(v)
	return nil
}

// ProfileUpdate holds the editable profile fields sent with PUT /user/profile/{id}/.
type ProfileUpdate struct {
	Username   string   `json:"username"`
	Email      string   `json:"email"`
	FirstName  string   `json:"first_name"`
	LastName   string   `json:"last_name"`
	UserWeight *float64 `json:"user_weight"`
	UserHeight *float64 `json:"user_height"`
	UserGender string   `json:"user_gender"`
}

// EditableFields extracts the editable part of a profile.
func (p UserProfile) EditableFields() ProfileUpdate {
	return ProfileUpdate{
		Username:   p.Username,
		Email:      p.Email,
		FirstName:  p.FirstName,
		LastName:   p.LastName,
		UserWeight: p.UserWeight,
		UserHeight: p.UserHeight,
		UserGender: p.UserGender,
	}
}

// Credentials is the login request body.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Registration is the register request body.
type Registration struct {
	FirstName       string   `json:"first_name"`
	LastName        string   `json:"last_name"`
	Email           string   `json:"email"`
	Username        string   `json:"username"`
	Password        string   `json:"password"`
	ConfirmPassword string   `json:"confirm_password"`
	UserWeight      *float64 `json:"user_weight,omitempty"`
	UserHeight      *float64 `json:"user_height,omitempty"`
	UserGender      string   `json:"user_gender,omitempty"`
}

// AuthResponse is returned by both login and register.
type AuthResponse struct {
	Token    string `json:"token"`
	ID       ID     `json:"id"`
	Username string `json:"username"`
}
