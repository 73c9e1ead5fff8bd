// Package schema declares the record types the import host accepts.
// Each type registers itself with core at init under a stable key.
package schema

import (
	"time"

	"github.com/JonMunkholm/fileimport/internal/core"
)

// PersonStatus is the lifecycle state of a person record.
type PersonStatus string

const (
	PersonActive   PersonStatus = "Active"
	PersonInactive PersonStatus = "Inactive"
	PersonPending  PersonStatus = "Pending"
)

// EnumValues lists the accepted spellings, matched case-insensitively.
func (PersonStatus) EnumValues() []string {
	return []string{string(PersonActive), string(PersonInactive), string(PersonPending)}
}

// Person is a contact row from a CRM or HR export.
type Person struct {
	Name      string       `header:"FullName,Full Name"`
	Age       int          `header:"Age,Years"`
	BirthDate time.Time    `header:"DOB,Date of Birth"`
	Status    PersonStatus `header:"State"`
	Email     *string      `header:"E-mail,Email Address"`
}

func init() {
	core.RegisterType[Person]("person", "People")
}
