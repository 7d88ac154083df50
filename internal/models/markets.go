package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	MarketsDbName  = "dipiu"
	MarketsColName = "markets"
)

// DefaultMarketUTCOffsetHours is the fixed reference timezone (Brisbane,
// UTC+10) used to decide where "today" starts for the public upcoming view.
// Configurable via MARKET_UTC_OFFSET_HOURS.
const DefaultMarketUTCOffsetHours = 10

// Market is a single scheduled market appearance. Inactive records are
// hidden from the public upcoming view but stay visible in the admin view.
type Market struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Date       time.Time          `bson:"date" json:"date" validate:"required"`
	MarketName string             `bson:"market_name" json:"market_name" validate:"required"`
	Location   string             `bson:"location" json:"location" validate:"required"`
	MapsLink   string             `bson:"maps_link,omitempty" json:"maps_link,omitempty" validate:"omitempty,url"`
	StartTime  string             `bson:"start_time" json:"start_time" validate:"required"`
	EndTime    string             `bson:"end_time" json:"end_time" validate:"required"`
	IsActive   bool               `bson:"is_active" json:"is_active"`
	CreatedAt  time.Time          `bson:"created_at,omitempty" json:"created_at,omitempty"`
	UpdatedAt  time.Time          `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
}

func (m *Market) BeforeCreate() error {
	if m.ID.IsZero() {
		m.ID = primitive.NewObjectID()
	}
	return nil
}

// MarketUpdate carries a partial field replacement for an existing market.
// Nil fields are left untouched; updated_at is always refreshed by the
// service regardless of which fields changed.
type MarketUpdate struct {
	Date       *time.Time `json:"date,omitempty"`
	MarketName *string    `json:"market_name,omitempty"`
	Location   *string    `json:"location,omitempty"`
	MapsLink   *string    `json:"maps_link,omitempty"`
	StartTime  *string    `json:"start_time,omitempty"`
	EndTime    *string    `json:"end_time,omitempty"`
	IsActive   *bool      `json:"is_active,omitempty"`
}

// SetDocument builds the $set payload for the update, stamping updated_at
// with the given instant.
func (u MarketUpdate) SetDocument(now time.Time) bson.M {
	set := bson.M{"updated_at": now}
	if u.Date != nil {
		set["date"] = *u.Date
	}
	if u.MarketName != nil {
		set["market_name"] = *u.MarketName
	}
	if u.Location != nil {
		set["location"] = *u.Location
	}
	if u.MapsLink != nil {
		set["maps_link"] = *u.MapsLink
	}
	if u.StartTime != nil {
		set["start_time"] = *u.StartTime
	}
	if u.EndTime != nil {
		set["end_time"] = *u.EndTime
	}
	if u.IsActive != nil {
		set["is_active"] = *u.IsActive
	}
	return set
}

// MarketForm is the admin editing surface's submission payload. The form
// always carries a collection of dates: create mode expands it into one
// record per date, edit mode applies only the first date.
type MarketForm struct {
	Dates      []time.Time `json:"dates" validate:"required,min=1"`
	MarketName string      `json:"market_name" validate:"required"`
	Location   string      `json:"location" validate:"required"`
	MapsLink   string      `json:"maps_link,omitempty" validate:"omitempty,url"`
	StartTime  string      `json:"start_time" validate:"required"`
	EndTime    string      `json:"end_time" validate:"required"`
	IsActive   bool        `json:"is_active"`
}

// Update returns the partial update an edit-mode submission applies: the
// first date plus every other field.
func (f *MarketForm) Update() MarketUpdate {
	date := f.Dates[0]
	return MarketUpdate{
		Date:       &date,
		MarketName: &f.MarketName,
		Location:   &f.Location,
		MapsLink:   &f.MapsLink,
		StartTime:  &f.StartTime,
		EndTime:    &f.EndTime,
		IsActive:   &f.IsActive,
	}
}

// Market returns the record a create-mode submission produces for one of
// the form's dates. Timestamps are stamped by the service.
func (f *MarketForm) Market(date time.Time) *Market {
	return &Market{
		Date:       date,
		MarketName: f.MarketName,
		Location:   f.Location,
		MapsLink:   f.MapsLink,
		StartTime:  f.StartTime,
		EndTime:    f.EndTime,
		IsActive:   f.IsActive,
	}
}

// StartOfDay computes the UTC instant at which "today" begins in the fixed
// reference timezone: shift the instant by the offset, floor to midnight in
// the shifted frame, shift back. The upcoming query's lower bound is this
// value, inclusive.
func StartOfDay(now time.Time, offsetHours int) time.Time {
	offset := time.Duration(offsetHours) * time.Hour
	shifted := now.UTC().Add(offset)
	midnight := time.Date(shifted.Year(), shifted.Month(), shifted.Day(), 0, 0, 0, 0, time.UTC)
	return midnight.Add(-offset)
}
