package server

import (
	"github.com/thraizz/kingdom-server-go/internal/auth"
	"github.com/thraizz/kingdom-server-go/internal/table"
)

// ClientMessage is one inbound frame. Exactly one field is expected to be
// set; the first one found in declaration order wins.
type ClientMessage struct {
	Login    *auth.Credentials    `json:"login,omitempty"`
	Resume   string               `json:"resume,omitempty"`
	List     bool                 `json:"list,omitempty"`
	Create   *table.CreateRequest `json:"create,omitempty"`
	Join     string               `json:"join,omitempty"`
	Start    bool                 `json:"start,omitempty"`
	Leave    bool                 `json:"leave,omitempty"`
	Chat     *string              `json:"chat,omitempty"`
	Decision *string              `json:"decision,omitempty"`
}

// Welcome confirms a login or resumed session.
type Welcome struct {
	Welcome WelcomeBody `json:"welcome"`
}

type WelcomeBody struct {
	Session string `json:"session"`
	Name    string `json:"name"`
	Guest   bool   `json:"guest"`
}

// Joined confirms a seat.
type Joined struct {
	Joined JoinedBody `json:"joined"`
}

type JoinedBody struct {
	Table    string `json:"table"`
	PlayerID int    `json:"player_id"`
}

// TableList answers a list request.
type TableList struct {
	Tables []table.Info `json:"tables"`
}

// Created answers a create request.
type Created struct {
	Created table.Info `json:"created"`
}

// ErrorMessage reports a failed request.
type ErrorMessage struct {
	Error string `json:"error"`
}
