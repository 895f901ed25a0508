package domain

// Queue is a tenant's agent queue. The engine only references queues as
// transfer targets; queue administration is outside its scope.
type Queue struct {
	ID        int64  `json:"id"`
	CompanyID int64  `json:"companyId"`
	Name      string `json:"name"`
	Color     string `json:"color"`
}
