package performance

const dateLayout = "2006-01-02"

type CreateReviewRequest struct {
	EmployeeID string `json:"employee_id" binding:"required,uuid"`
	Rating     int    `json:"rating" binding:"required,min=1,max=5"`
	Feedback   string `json:"feedback" binding:"max=4000"`
	ReviewDate string `json:"review_date" binding:"required"`
}

type UpdateReviewRequest struct {
	Rating     int    `json:"rating" binding:"required,min=1,max=5"`
	Feedback   string `json:"feedback" binding:"max=4000"`
	ReviewDate string `json:"review_date" binding:"required"`
}

type ListQuery struct {
	EmployeeID string `form:"employee_id" binding:"omitempty,uuid"`
}

type ReviewResponse struct {
	ID           string  `json:"id"`
	EmployeeID   string  `json:"employee_id"`
	EmployeeName string  `json:"employee_name,omitempty"`
	Rating       int     `json:"rating"`
	Feedback     string  `json:"feedback"`
	ReviewDate   string  `json:"review_date"`
	ReviewerID   *string `json:"reviewer_id,omitempty"`
}

func mapToResponse(r Review) ReviewResponse {
	resp := ReviewResponse{
		ID:         r.ID.String(),
		EmployeeID: r.EmployeeID.String(),
		Rating:     r.Rating,
		Feedback:   r.Feedback,
		ReviewDate: r.ReviewDate.Format(dateLayout),
	}
	if r.Employee != nil {
		resp.EmployeeName = r.Employee.Name
	}
	if r.ReviewerID != nil {
		v := r.ReviewerID.String()
		resp.ReviewerID = &v
	}
	return resp
}
