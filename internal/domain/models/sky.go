package models

import "time"

type SkyEventKind string

const (
	EventAspect  SkyEventKind = "aspect"
	EventIngress SkyEventKind = "ingress"
	EventStation SkyEventKind = "station"
	EventEclipse SkyEventKind = "eclipse"
)

// SkyEvent is a notable month-level transit.
type SkyEvent struct {
	ID     string       `json:"id"`
	Month  string       `json:"month"`
	Kind   SkyEventKind `json:"kind"`
	Date   string       `json:"date"`
	BodyA  string       `json:"body_a"`
	BodyB  string       `json:"body_b,omitempty"`
	Aspect string       `json:"aspect,omitempty"`
	Orb    float64      `json:"orb,omitempty"`
	Sign   string       `json:"sign,omitempty"`
	Detail string       `json:"detail"`
}

type MonthlyTransits struct {
	Month  string     `json:"month"`
	Events []SkyEvent `json:"events"`
}

// SkyEventFilter selects stored events by date range and optional kind.
type SkyEventFilter struct {
	From  time.Time
	To    time.Time
	Kind  SkyEventKind
	Limit int
}
