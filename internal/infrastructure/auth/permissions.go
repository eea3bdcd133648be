package auth

// Permissions carried in the access token's permissions claim
const (
	PermArticleCreate       = "article:create"
	PermArticleRead         = "article:read"
	PermStockMove           = "stock:move"
	PermCountSessionCreate  = "count_session:create"
	PermCountSessionRead    = "count_session:read"
	PermCountSessionAdvance = "count_session:advance"
	PermCountSessionApprove = "count_session:approve"
	PermCountSessionDelete  = "count_session:delete"
	PermCountLineRecord     = "count_line:record"
)

// AllPermissions lists every permission the service checks
func AllPermissions() []string {
	return []string{
		PermArticleCreate,
		PermArticleRead,
		PermStockMove,
		PermCountSessionCreate,
		PermCountSessionRead,
		PermCountSessionAdvance,
		PermCountSessionApprove,
		PermCountSessionDelete,
		PermCountLineRecord,
	}
}
