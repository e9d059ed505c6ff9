package models

import (
	"time"

	id "kitties/pkg/domain"
)

// EventType names a registry event on the wire.
type EventType string

const (
	EventCreated  EventType = "kitty_created"
	EventApproval EventType = "kitty_approval"
)

// Event is implemented by every registry notification.
type Event interface {
	Type() EventType
	// Topics are the indexed values subscribers filter on.
	Topics() [][]byte
}

// Created is emitted once per successful CreateKitty.
type Created struct {
	Kitty      id.DNA       `json:"kitty"`
	Owner      id.AccountID `json:"owner"`
	Gender     Gender       `json:"gender"`
	Counter    uint32       `json:"counter"`
	OccurredAt time.Time    `json:"occurred_at"`
}

func (Created) Type() EventType { return EventCreated }

func (e Created) Topics() [][]byte {
	return [][]byte{e.Kitty.Bytes(), append([]byte(nil), e.Owner[:]...)}
}

// Approval is declared for transfers; nothing in the registry emits it yet.
type Approval struct {
	From       id.AccountID `json:"from"`
	To         id.AccountID `json:"to"`
	Kitty      id.DNA       `json:"kitty"`
	OccurredAt time.Time    `json:"occurred_at"`
}

func (Approval) Type() EventType { return EventApproval }

func (e Approval) Topics() [][]byte {
	return [][]byte{
		append([]byte(nil), e.From[:]...),
		append([]byte(nil), e.To[:]...),
		e.Kitty.Bytes(),
	}
}
