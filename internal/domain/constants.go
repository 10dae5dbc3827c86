package domain

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

const (
	ReportTypeRedFlag      = "red-flag"
	ReportTypeIntervention = "intervention"
)

const (
	StatusPending            = "pending"
	StatusUnderInvestigation = "under-investigation"
	StatusResolved           = "resolved"
	StatusRejected           = "rejected"
)

const (
	EvidenceTypeImage = "image"
	EvidenceTypeVideo = "video"
)

// Evidence upload limits
const (
	MaxEvidenceFiles    = 5
	MaxEvidenceFileSize = 50 << 20 // 50MB per file
)

func ValidReportType(t string) bool {
	return t == ReportTypeRedFlag || t == ReportTypeIntervention
}

func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusUnderInvestigation, StatusResolved, StatusRejected:
		return true
	}
	return false
}
