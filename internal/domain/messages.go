package domain

import (
	"encoding/json"
	"fmt"
)

// Subscription channel status values.
const (
	StatusConnected    = "connected"
	StatusUpdated      = "updated"
	StatusUnsubscribed = "unsubscribed"
)

// Client actions. A message without an action is a subscribe request.
const (
	ActionSubscribe   = "subscribe"
	ActionUnsubscribe = "unsubscribe"
)

// MsgInvalidFormat is sent for payloads that are not a subscription request.
const MsgInvalidFormat = "Invalid message format."

func MsgSourceNotFound(source string) string {
	return fmt.Sprintf("Source %q not found.", source)
}

func MsgNoData(source string) string {
	return fmt.Sprintf("No data available for source %q.", source)
}

// Client -> Server

type SubscribeMessage struct {
	Action string  `json:"action,omitempty"`
	Source *string `json:"source"`
}

// Server -> Client

type ConnectedMessage struct {
	Status string          `json:"status"`
	Source string          `json:"source"`
	Data   json.RawMessage `json:"data"`
}

type UpdatedMessage struct {
	Status string          `json:"status"`
	Source string          `json:"source"`
	Data   json.RawMessage `json:"data"`
	Append []string        `json:"append"`
}

type UnsubscribedMessage struct {
	Status string `json:"status"`
}

type ErrorMessage struct {
	Error string `json:"error"`
}

func NewConnectedMessage(source string, data json.RawMessage) *ConnectedMessage {
	return &ConnectedMessage{Status: StatusConnected, Source: source, Data: data}
}

// NewUpdatedMessage builds a broadcast envelope. A nil append list is sent as [].
func NewUpdatedMessage(source string, data json.RawMessage, appendTags []string) *UpdatedMessage {
	if appendTags == nil {
		appendTags = []string{}
	}
	return &UpdatedMessage{Status: StatusUpdated, Source: source, Data: data, Append: appendTags}
}

func NewErrorMessage(message string) *ErrorMessage {
	return &ErrorMessage{Error: message}
}
