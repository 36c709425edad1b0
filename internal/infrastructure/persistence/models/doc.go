// Package models contains the GORM persistence models behind the Tiller
// repositories. Domain types carry no ORM tags; each model converts with
// ToDomain and FromDomain.
package models
