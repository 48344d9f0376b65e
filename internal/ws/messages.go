package ws

import (
	"encoding/json"
	"supmap-guidance/internal/geo"
	"time"
)

// Inbound message types.
const (
	TypePosition       = "position"
	TypeHeading        = "heading"
	TypeDestination    = "destination"
	TypeSelectRoute    = "select_route"
	TypeStart          = "start"
	TypeCancel         = "cancel"
	TypeSession        = "session"
	TypeFavorites      = "favorites"
	TypeFavoriteAdd    = "favorite_add"
	TypeFavoriteRoute  = "favorite_route"
	TypeFavoriteDelete = "favorite_delete"
)

// Outbound message types not produced by the guidance engine.
const (
	TypeError    = "error"
	TypeIncident = "incident"
)

type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type PositionPayload struct {
	Lat       float64   `json:"lat" validate:"latitude"`
	Lon       float64   `json:"lon" validate:"longitude"`
	Heading   *float64  `json:"heading,omitempty" validate:"omitempty,gte=0,lt=360"`
	Timestamp time.Time `json:"timestamp"`
}

func (p PositionPayload) Coordinate() geo.Coordinate {
	return geo.Coordinate{Lat: p.Lat, Lon: p.Lon}
}

type HeadingPayload struct {
	Heading float64 `json:"heading" validate:"gte=0,lt=360"`
}

type DestinationPayload struct {
	Lat   float64 `json:"lat" validate:"latitude"`
	Lon   float64 `json:"lon" validate:"longitude"`
	Label string  `json:"label,omitempty" validate:"max=200"`
}

type SelectRoutePayload struct {
	Index int `json:"index" validate:"gte=0"`
}

type FavoriteAddPayload struct {
	Name string  `json:"name,omitempty" validate:"max=200"`
	Lat  float64 `json:"lat" validate:"latitude"`
	Lon  float64 `json:"lon" validate:"longitude"`
}

type FavoritePayload struct {
	ID string `json:"id" validate:"required,uuid"`
}

type ErrorPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
