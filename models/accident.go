package models

import "time"

// HourUnknown marks a record whose HORA value could not be parsed.
const HourUnknown = -1

type Accident struct {
	ID           uint      `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	Date         time.Time `gorm:"column:fecha;type:date;not null" json:"fecha"`
	TimeRaw      string    `gorm:"column:hora" json:"hora"`
	Hour         int       `gorm:"column:hora_dia;not null;default:-1" json:"hora_dia"`
	Municipality string    `gorm:"column:municipio;not null;index" json:"municipio"`
	District     string    `gorm:"column:comuna;not null" json:"comuna"`
	Neighborhood string    `gorm:"column:barrio" json:"barrio,omitempty"`
	Class        string    `gorm:"column:clase;not null" json:"clase"`
	Severity     string    `gorm:"column:gravedad;not null" json:"gravedad"`
	Weekday      string    `gorm:"column:dia_semana" json:"dia_semana"`
	RoadDesign   string    `gorm:"column:diseno" json:"diseno,omitempty"`
	Address      string    `gorm:"column:direccion" json:"direccion,omitempty"`
}

func (Accident) TableName() string { return "accidents" }

// HasHour reports whether the time of day was parsed.
func (a Accident) HasHour() bool { return a.Hour >= 0 && a.Hour <= 23 }
