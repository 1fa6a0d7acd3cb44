package domain

// Contact is a person expenses can be shared with. Email doubles as a natural key when matching
// shared expenses.
type Contact struct {
	ID    string `json:"id"`
	Name  string `json:"name" binding:"required"`
	Email string `json:"email,omitempty" binding:"omitempty,email"`
	Phone string `json:"phone,omitempty"`
	AuditFields
}

func (c *Contact) GetID() string   { return c.ID }
func (c *Contact) SetID(id string) { c.ID = id }

func (c *Contact) Validate() error {
	return validateStruct(c)
}

func (c *Contact) Clone() Entity {
	cp := *c
	return &cp
}

// MatchesEmail compares emails case-insensitively, ignoring surrounding spaces.
func (c Contact) MatchesEmail(email string) bool {
	key := normalizeKey(email)
	return key != "" && normalizeKey(c.Email) == key
}
