package models

import "time"

// AuditAction constants represent actions to be logged.
const (
	AuditActionLogin              = "LOGIN"
	AuditActionLogout             = "LOGOUT"
	AuditActionRegister           = "REGISTER"
	AuditActionPasswordChange     = "PASSWORD_CHANGE"
	AuditActionUserCreate         = "USER_CREATE"
	AuditActionUserUpdate         = "USER_UPDATE"
	AuditActionUserDelete         = "USER_DELETE"
	AuditActionCreate             = "CREATE"
	AuditActionUpdate             = "UPDATE"
	AuditActionDelete             = "DELETE"
	AuditActionStatusChange       = "STATUS_CHANGE"
	AuditActionSettingsUpdate     = "SETTINGS_UPDATE"
	AuditActionRosterExport       = "ROSTER_EXPORT"
	AuditActionPaymentApplied     = "PAYMENT_APPLIED"
	AuditActionRelationshipReview = "RELATIONSHIP_REVIEW"
)

// AuditLog represents an audit trail record.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	UserID     *string   `db:"user_id" json:"userId,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resourceId,omitempty"`
	OldValues  []byte    `db:"old_values" json:"oldValues,omitempty"`
	NewValues  []byte    `db:"new_values" json:"newValues,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ipAddress"`
	UserAgent  string    `db:"user_agent" json:"userAgent"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

// RequestMeta identifies the client behind an audited change.
type RequestMeta struct {
	IP        string
	UserAgent string
}
