// Package entities contains the core domain objects for the plant-manager application
package entities

import (
	"time"
)

// Frequency describes how often a plant needs watering, e.g. 2 times every week
type Frequency struct {
	Times       int    `json:"times"`
	RepeatEvery string `json:"repeat_every"`
}

// Plant is a user's tracked instance of a catalog species
type Plant struct {
	ID                   string    `json:"id" validate:"max=64"`
	Name                 string    `json:"name" validate:"required,max=120"`
	About                string    `json:"about"`
	WaterTips            string    `json:"water_tips"`
	Photo                string    `json:"photo" validate:"omitempty,url"`
	Environments         []string  `json:"environments" validate:"dive,required"`
	Frequency            Frequency `json:"frequency"`
	DateTimeNotification time.Time `json:"dateTimeNotification"` // Next watering reminder
}

// Clone returns a deep copy of the plant
func (p Plant) Clone() Plant {
	c := p
	if p.Environments != nil {
		c.Environments = make([]string, len(p.Environments))
		copy(c.Environments, p.Environments)
	}
	return c
}

// HasEnvironment reports whether the plant is tagged with the given environment key
func (p Plant) HasEnvironment(key string) bool {
	for _, env := range p.Environments {
		if env == key {
			return true
		}
	}
	return false
}

// Environment is a catalog category such as "living_room"
type Environment struct {
	Key   string `json:"key"`
	Title string `json:"title"`
}
