package attendance

import "time"

const dateLayout = "2006-01-02"

const warningSyntheticCheckIn = "No check-in was recorded today; check-in and check-out were both set to now"

type CreateAttendanceRequest struct {
	EmployeeID    string     `json:"employee_id" binding:"required,uuid"`
	Date          string     `json:"date" binding:"required"`
	Status        string     `json:"status" binding:"required,oneof=present absent late"`
	OvertimeHours int        `json:"overtime_hours" binding:"min=0"`
	CheckInTime   *time.Time `json:"check_in_time"`
	CheckOutTime  *time.Time `json:"check_out_time"`
}

type UpdateAttendanceRequest struct {
	Status        string     `json:"status" binding:"required,oneof=present absent late"`
	OvertimeHours int        `json:"overtime_hours" binding:"min=0"`
	CheckInTime   *time.Time `json:"check_in_time"`
	CheckOutTime  *time.Time `json:"check_out_time"`
}

type ListQuery struct {
	EmployeeID string `form:"employee_id" binding:"omitempty,uuid"`
	From       string `form:"from"`
	To         string `form:"to"`
}

type AttendanceResponse struct {
	ID            string  `json:"id"`
	EmployeeID    string  `json:"employee_id"`
	EmployeeName  string  `json:"employee_name,omitempty"`
	Date          string  `json:"date"`
	Status        string  `json:"status"`
	OvertimeHours int     `json:"overtime_hours"`
	CheckInTime   *string `json:"check_in_time,omitempty"`
	CheckOutTime  *string `json:"check_out_time,omitempty"`
}

type CheckOutResponse struct {
	AttendanceResponse
	Warning string `json:"warning,omitempty"`
}

func mapToResponse(a Attendance) AttendanceResponse {
	resp := AttendanceResponse{
		ID:            a.ID.String(),
		EmployeeID:    a.EmployeeID.String(),
		Date:          a.AttendanceDate.Format(dateLayout),
		Status:        a.Status,
		OvertimeHours: a.OvertimeHours,
		CheckInTime:   formatTime(a.CheckInTime),
		CheckOutTime:  formatTime(a.CheckOutTime),
	}
	if a.Employee != nil {
		resp.EmployeeName = a.Employee.Name
	}
	return resp
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	v := t.Format(time.RFC3339)
	return &v
}
