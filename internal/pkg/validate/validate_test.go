package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type sample struct {
	Name     string `validate:"required"`
	Type     string `validate:"required,notiftype"`
	Priority string `validate:"omitempty,priority"`
}

func TestStruct_Valid(t *testing.T) {
	assert.NoError(t, Struct(sample{Name: "x", Type: "Task", Priority: "Urgent"}))
	assert.NoError(t, Struct(sample{Name: "x", Type: "Other"}))
}

func TestStruct_ReportsEveryField(t *testing.T) {
	err := Struct(sample{Type: "Chat", Priority: "Critical"})
	assert.ErrorContains(t, err, "field 'Name' failed 'required'")
	assert.ErrorContains(t, err, "field 'Type' failed 'notiftype'")
	assert.ErrorContains(t, err, "field 'Priority' failed 'priority'")
}
