package accounts

// Patch is an explicit partial update for an account. Each field is applied
// only when set; nil fields leave the stored value untouched.
type Patch struct {
	FullName    *string
	Username    *string
	Email       *string
	PhoneNumber *string
	RoleID      *string
	Status      *Status
	AvatarURL   *string
}

// Apply copies the set fields of the patch onto the account.
func (p Patch) Apply(a *Account) {
	if p.FullName != nil {
		a.FullName = *p.FullName
	}
	if p.Username != nil {
		a.Username = *p.Username
	}
	if p.Email != nil {
		a.Email = *p.Email
	}
	if p.PhoneNumber != nil {
		a.PhoneNumber = *p.PhoneNumber
	}
	if p.RoleID != nil {
		a.RoleID = *p.RoleID
	}
	if p.Status != nil {
		a.Status = *p.Status
	}
	if p.AvatarURL != nil {
		a.AvatarURL = *p.AvatarURL
	}
}
