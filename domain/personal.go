package domain

type UnvalidatedPersonalInfo struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
}

type PersonalInfo struct {
	p UnvalidatedPersonalInfo
}

func (p PersonalInfo) FirstName() string { return p.p.FirstName }
func (p PersonalInfo) LastName() string  { return p.p.LastName }
func (p PersonalInfo) Email() string     { return p.p.Email }
func (p PersonalInfo) Phone() string     { return p.p.Phone }

func (p PersonalInfo) Unvalidated() UnvalidatedPersonalInfo { return p.p }

func (p PersonalInfo) Equal(other PersonalInfo) bool { return p.p == other.p }
