package dto

import (
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// Forms mirror the submitted fields. Their json encoding is what an error response
// echoes back, so secrets are never serialized.

type SignupForm struct {
	Username  string `form:"username" json:"username"`
	Password1 string `form:"password1" json:"-"`
	Password2 string `form:"password2" json:"-"`
}

func NewSignupForm(values url.Values) SignupForm {
	return SignupForm{
		Username:  values.Get("username"),
		Password1: values.Get("password1"),
		Password2: values.Get("password2"),
	}
}

// LoginForm is not validated: blank fields fail as a credentials mismatch like any other.
type LoginForm struct {
	Username string `form:"username" json:"username"`
	Password string `form:"password" json:"-"`
	Next     string `form:"next" json:"next,omitempty"`
}

func NewLoginForm(values url.Values) LoginForm {
	return LoginForm{
		Username: values.Get("username"),
		Password: values.Get("password"),
		Next:     values.Get("next"),
	}
}

type TaskForm struct {
	Title       string `form:"title" json:"title"`
	Description string `form:"description" json:"description"`
	Important   bool   `form:"important" json:"important"`
	Group       string `form:"group" json:"group,omitempty" validate:"omitempty,uuid"`
}

func NewTaskForm(values url.Values) TaskForm {
	return TaskForm{
		Title:       values.Get("title"),
		Description: values.Get("description"),
		Important:   checkbox(values, "important"),
		Group:       strings.TrimSpace(values.Get("group")),
	}
}

// GroupID is nil for a personal task. Call after Validate.
func (f TaskForm) GroupID() *uuid.UUID {
	if f.Group == "" {
		return nil
	}
	id, err := uuid.Parse(f.Group)
	if err != nil {
		return nil
	}
	return &id
}

type GroupForm struct {
	Name string `form:"name" json:"name"`
}

func NewGroupForm(values url.Values) GroupForm {
	return GroupForm{Name: values.Get("name")}
}

// GroupActionForm is the group page form; exactly one action is taken per post.
type GroupActionForm struct {
	Username string `form:"username" json:"username,omitempty"`
	Delete   bool   `form:"delete" json:"delete,omitempty"`
	Leave    bool   `form:"leave" json:"leave,omitempty"`
}

func NewGroupActionForm(values url.Values) GroupActionForm {
	return GroupActionForm{
		Username: values.Get("username"),
		Delete:   values.Has("delete"),
		Leave:    values.Has("leave"),
	}
}

type InvitationForm struct {
	Group string `form:"group" json:"group" validate:"required,max=100"`
	Next  string `form:"next" json:"next,omitempty"`
}

func NewInvitationForm(values url.Values) InvitationForm {
	return InvitationForm{
		Group: values.Get("group"),
		Next:  values.Get("next"),
	}
}

// checkbox follows html semantics: a present field is checked unless it says otherwise.
func checkbox(values url.Values, key string) bool {
	if !values.Has(key) {
		return false
	}
	switch strings.ToLower(values.Get(key)) {
	case "", "0", "false", "off", "no":
		return false
	}
	return true
}
