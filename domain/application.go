package domain

// Application is the applicant record a task follows up on. It is owned by
// another part of the product and only read here.
type Application struct {
	ID       string `json:"id"`
	TenantID string `json:"tenant_id"`
}
