package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSameID(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{"equal", "abc", "abc", true},
		{"surrounding whitespace", " abc ", "abc", true},
		{"case differs", "abc", "ABC", false},
		{"both empty", "", "", false},
		{"blank", "  ", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SameID(tt.a, tt.b))
		})
	}
}

func TestProject_IsCreatorAndSupervisor(t *testing.T) {
	sup := "Lect1"
	p := &Project{CreatorID: "u1", SupervisorID: &sup}

	assert.True(t, p.IsCreator(" u1"))
	assert.False(t, p.IsCreator("U1"))
	assert.True(t, p.IsSupervisor("Lect1"))
	assert.False(t, p.IsSupervisor("lect1"))
	assert.False(t, (&Project{CreatorID: "u1"}).IsSupervisor("u1"))
}
