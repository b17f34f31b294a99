package employee

import "github.com/shopspring/decimal"

const dateLayout = "2006-01-02"

type CreateEmployeeRequest struct {
	Name        string           `json:"name" binding:"required,max=100"`
	Email       string           `json:"email" binding:"required,email,max=100"`
	Password    string           `json:"password" binding:"required,min=6"`
	Role        string           `json:"role" binding:"required,oneof=employee manager developer designer hr"`
	JoiningDate string           `json:"joining_date" binding:"required"`
	BaseSalary  *decimal.Decimal `json:"base_salary" binding:"required"`
}

// UpdateEmployeeRequest keeps the stored password when Password is empty.
type UpdateEmployeeRequest struct {
	Name        string           `json:"name" binding:"required,max=100"`
	Email       string           `json:"email" binding:"required,email,max=100"`
	Password    string           `json:"password" binding:"omitempty,min=6"`
	Role        string           `json:"role" binding:"required,oneof=employee manager developer designer hr"`
	JoiningDate string           `json:"joining_date" binding:"required"`
	BaseSalary  *decimal.Decimal `json:"base_salary" binding:"required"`
}

type EmployeeResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	JoiningDate string `json:"joining_date"`
	BaseSalary  string `json:"base_salary"`
}

type EmployeeOptionResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

func mapToResponse(empl Employee) EmployeeResponse {
	return EmployeeResponse{
		ID:          empl.ID.String(),
		Name:        empl.Name,
		Email:       empl.Email,
		Role:        empl.Role,
		JoiningDate: empl.JoiningDate.Format(dateLayout),
		BaseSalary:  empl.BaseSalary.StringFixed(2),
	}
}

func mapToListResponse(emps []Employee) []EmployeeResponse {
	res := make([]EmployeeResponse, len(emps))
	for i, e := range emps {
		res[i] = mapToResponse(e)
	}
	return res
}

func mapToOptionResponse(emps []Employee) []EmployeeOptionResponse {
	res := make([]EmployeeOptionResponse, len(emps))
	for i, e := range emps {
		res[i] = EmployeeOptionResponse{ID: e.ID.String(), Name: e.Name, Role: e.Role}
	}
	return res
}
