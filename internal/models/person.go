package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"unicode"
)

// PlaceholderPhoto is the photoUrl used when no image is available or an
// embedded image cannot be persisted.
const PlaceholderPhoto = "img/placeholder.jpg"

const (
	GenderNotSpecified = "not-specified"

	EntityTypeIndividual = "individual"
	StatusActive         = "active"

	// DateLayout is the format of dateReported.
	DateLayout = "2006-01-02"
)

type Category string

const (
	CategoryMissing   Category = "missing"
	CategoryOrphaned  Category = "orphaned"
	CategoryHomeless  Category = "homeless"
	CategorySeparated Category = "separated"

	// CategoryAll is the filter sentinel; it is never stored on a record.
	CategoryAll Category = "all"
)

var categoryNames = map[Category]string{
	CategoryMissing:   "Missing Person",
	CategoryOrphaned:  "Orphaned Child",
	CategoryHomeless:  "Homeless",
	CategorySeparated: "Separated",
}

func (c Category) Valid() bool {
	_, ok := categoryNames[c]
	return ok
}

// DisplayName returns the label shown on person cards.
func (c Category) DisplayName() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return string(c)
}

// ID is an opaque record identifier. Documents may carry it as a JSON number
// or string; the original form is kept so it round-trips unchanged.
type ID struct {
	value   string
	numeric bool
}

func StringID(s string) ID { return ID{value: s} }

func IntID(n int64) ID { return ID{value: strconv.FormatInt(n, 10), numeric: true} }

func (id ID) String() string { return id.value }

func (id ID) IsZero() bool { return id.value == "" }

func (id ID) MarshalJSON() ([]byte, error) {
	if id.numeric {
		return []byte(id.value), nil
	}
	return json.Marshal(id.value)
}

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = StringID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*id = ID{value: n.String(), numeric: true}
	return nil
}

// Age is a non-negative integer that may arrive as a JSON string. Values
// that cannot be coerced decode as 0 so one bad entry never fails a document.
type Age int

func (a *Age) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*a = 0
	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			slog.Warn("unreadable age, using 0", "value", string(data))
			return nil
		}
		n, err := ParseAge(s)
		if err != nil {
			slog.Warn("unparseable age, using 0", "value", s)
			return nil
		}
		*a = n
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err != nil || f < 0 {
		slog.Warn("invalid age, using 0", "value", string(data))
		return nil
	}
	*a = Age(int(f))
	return nil
}

// ParseAge coerces user input to an Age using its leading digits, so "12"
// and "12 years" both yield 12.
func ParseAge(s string) (Age, error) {
	s = strings.TrimSpace(s)
	end := strings.IndexFunc(s, func(r rune) bool { return !unicode.IsDigit(r) })
	if end == -1 {
		end = len(s)
	}
	if end == 0 {
		return 0, fmt.Errorf("invalid age %q", s)
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, fmt.Errorf("invalid age %q: %w", s, err)
	}
	return Age(n), nil
}

type ContactInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// PersonRecord is the in-memory application shape of a registered person.
type PersonRecord struct {
	ID                ID          `json:"id"`
	Name              string      `json:"name"`
	Age               Age         `json:"age"`
	Gender            string      `json:"gender"`
	Category          Category    `json:"category"`
	Description       string      `json:"description"`
	Location          string      `json:"location"`
	DateReported      string      `json:"dateReported"`
	PhotoURL          string      `json:"photoUrl"`
	ContactInfo       ContactInfo `json:"contactInfo"`
	AdditionalDetails string      `json:"additionalDetails"`
}

// HasEmbeddedPhoto reports whether the photo is an inline data URI.
func (p PersonRecord) HasEmbeddedPhoto() bool {
	return strings.HasPrefix(p.PhotoURL, "data:")
}

type ReportingEntity struct {
	Name          string `json:"name"`
	Type          string `json:"type"`
	ContactPerson string `json:"contactPerson"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
}

// PersonDocument is one entry of the canonical persons.json file.
type PersonDocument struct {
	ID                  ID               `json:"id"`
	Name                string           `json:"name"`
	Age                 Age              `json:"age"`
	Gender              string           `json:"gender"`
	Category            Category         `json:"category"`
	PhysicalDescription string           `json:"physicalDescription"`
	LastLocation        string           `json:"lastLocation"`
	DateReported        string           `json:"dateReported"`
	PhotoURL            string           `json:"photoUrl"`
	AdditionalDetails   string           `json:"additionalDetails"`
	ReportingEntity     *ReportingEntity `json:"reportingEntity,omitempty"`
	Status              string           `json:"status"`
}

// Document is the canonical on-disk document.
type Document struct {
	Persons []PersonDocument `json:"persons"`
}

// ToDocument maps a record to its canonical form. Embedded images collapse
// to the placeholder; relative paths pass through.
func ToDocument(p PersonRecord) PersonDocument {
	photo := p.PhotoURL
	if photo == "" || p.HasEmbeddedPhoto() {
		photo = PlaceholderPhoto
	}
	gender := p.Gender
	if gender == "" {
		gender = GenderNotSpecified
	}

	return PersonDocument{
		ID:                  p.ID,
		Name:                p.Name,
		Age:                 p.Age,
		Gender:              gender,
		Category:            p.Category,
		PhysicalDescription: p.Description,
		LastLocation:        p.Location,
		DateReported:        p.DateReported,
		PhotoURL:            photo,
		AdditionalDetails:   p.AdditionalDetails,
		ReportingEntity: &ReportingEntity{
			Name:          p.ContactInfo.Name,
			Type:          EntityTypeIndividual,
			ContactPerson: p.ContactInfo.Name,
			Email:         p.ContactInfo.Email,
			Phone:         p.ContactInfo.Phone,
		},
		Status: StatusActive,
	}
}

// FromDocument maps a canonical entry back to the application shape.
func FromDocument(d PersonDocument) PersonRecord {
	gender := d.Gender
	if gender == "" {
		gender = GenderNotSpecified
	}

	var contact ContactInfo
	if d.ReportingEntity != nil {
		contact = ContactInfo{
			Name:  d.ReportingEntity.Name,
			Email: d.ReportingEntity.Email,
			Phone: d.ReportingEntity.Phone,
		}
	}

	return PersonRecord{
		ID:                d.ID,
		Name:              d.Name,
		Age:               d.Age,
		Gender:            gender,
		Category:          d.Category,
		Description:       d.PhysicalDescription,
		Location:          d.LastLocation,
		DateReported:      d.DateReported,
		PhotoURL:          d.PhotoURL,
		ContactInfo:       contact,
		AdditionalDetails: d.AdditionalDetails,
	}
}

// NewDocument serializes a record set, preserving order.
func NewDocument(records []PersonRecord) Document {
	persons := make([]PersonDocument, 0, len(records))
	for _, r := range records {
		persons = append(persons, ToDocument(r))
	}
	return Document{Persons: persons}
}

// Records maps every document entry to its application shape.
func (d Document) Records() []PersonRecord {
	records := make([]PersonRecord, 0, len(d.Persons))
	for _, p := range d.Persons {
		records = append(records, FromDocument(p))
	}
	return records
}
