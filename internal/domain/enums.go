package domain

// Role 律师在系统中的角色
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleLawyer Role = "lawyer"
	RoleGuest  Role = "guest"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleLawyer, RoleGuest:
		return true
	}
	return false
}

type Specialization string

const (
	SpecCriminalLaw    Specialization = "Criminal Law"
	SpecCivilLaw       Specialization = "Civil Law"
	SpecFamilyLaw      Specialization = "Family Law"
	SpecCorporateLaw   Specialization = "Corporate Law"
	SpecImmigrationLaw Specialization = "Immigration Law"
	SpecRealEstateLaw  Specialization = "Real Estate Law"
	SpecOther          Specialization = "Other"
)

func (s Specialization) Valid() bool {
	switch s {
	case SpecCriminalLaw, SpecCivilLaw, SpecFamilyLaw, SpecCorporateLaw,
		SpecImmigrationLaw, SpecRealEstateLaw, SpecOther:
		return true
	}
	return false
}

// CaseStatus 案件状态；unassigned 表示律师或法院被删除后引用已清空
type CaseStatus string

const (
	StatusPending    CaseStatus = "pending"
	StatusDisposed   CaseStatus = "disposed"
	StatusUnassigned CaseStatus = "unassigned"
)

func (s CaseStatus) Valid() bool {
	switch s {
	case StatusPending, StatusDisposed, StatusUnassigned:
		return true
	}
	return false
}

// 账号来源
const (
	ProviderCredentials = "credentials"
	ProviderGoogle      = "google"
)
