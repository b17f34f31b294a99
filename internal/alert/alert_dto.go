package alert

const dateLayout = "2006-01-02"

type CreateAlertRequest struct {
	Title      string `json:"title" binding:"required,max=200"`
	Message    string `json:"message" binding:"required"`
	EmployeeID string `json:"employee_id" binding:"required"`
	Date       string `json:"date"`
}

type ListQuery struct {
	EmployeeID string `form:"employee_id" binding:"omitempty,uuid"`
}

type AlertResponse struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Message    string `json:"message"`
	EmployeeID string `json:"employee_id"`
	Date       string `json:"date"`
}

func mapToResponse(a Alert) AlertResponse {
	return AlertResponse{
		ID:         a.ID.String(),
		Title:      a.Title,
		Message:    a.Message,
		EmployeeID: a.EmployeeID,
		Date:       a.AlertDate.Format(dateLayout),
	}
}
