package domain

// User is the profile snapshot returned by the backend on login and registration.
type User struct {
	ID          ID     `json:"id,omitempty"`
	FullName    string `json:"full_name,omitempty"`
	Email       string `json:"email,omitempty"`
	CompanyName string `json:"company_name,omitempty"`
	Role        string `json:"role,omitempty"`
}

// UserPatch is a partial profile. Nil fields are left untouched by Merge.
type UserPatch struct {
	FullName    *string `json:"full_name,omitempty"`
	Email       *string `json:"email,omitempty"`
	CompanyName *string `json:"company_name,omitempty"`
	Role        *string `json:"role,omitempty"`
}

// IsEmpty reports whether the patch specifies no field at all.
func (p UserPatch) IsEmpty() bool {
	return p.FullName == nil && p.Email == nil && p.CompanyName == nil && p.Role == nil
}

// Merge returns a copy of u with every field specified by the patch overwritten.
func (u User) Merge(patch UserPatch) User {
	if patch.FullName != nil {
		u.FullName = *patch.FullName
	}

	if patch.Email != nil {
		u.Email = *patch.Email
	}

	if patch.CompanyName != nil {
		u.CompanyName = *patch.CompanyName
	}

	if patch.Role != nil {
		u.Role = *patch.Role
	}

	return u
}
