package events_test

import (
	"testing"

	"go-ems/internal/events"

	"github.com/stretchr/testify/assert"
)

func TestRecordChangedEvent_AffectsSalary(t *testing.T) {
	assert.True(t, events.RecordChangedEvent{Entity: events.EntityAttendance, EmployeeID: "e1"}.AffectsSalary())
	assert.True(t, events.RecordChangedEvent{Entity: events.EntityLeave, EmployeeID: "e1"}.AffectsSalary())
	assert.True(t, events.RecordChangedEvent{Entity: events.EntityEmployee, EmployeeID: "e1"}.AffectsSalary())
	assert.False(t, events.RecordChangedEvent{Entity: events.EntityAlert, EmployeeID: "e1"}.AffectsSalary())
	assert.False(t, events.RecordChangedEvent{Entity: events.EntityAttendance}.AffectsSalary())
}
