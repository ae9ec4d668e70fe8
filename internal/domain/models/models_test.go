package models

import "testing"

func TestEnumValidators(t *testing.T) {
	tests := []struct {
		name  string
		valid func(string) bool
		in    string
		want  bool
	}{
		{"project active", IsValidProjectStatus, ProjectActive, true},
		{"project on hold", IsValidProjectStatus, "On Hold", true},
		{"project case sensitive", IsValidProjectStatus, "active", false},
		{"project unknown", IsValidProjectStatus, "Archived", false},
		{"project empty", IsValidProjectStatus, "", false},

		{"member admin", IsValidMemberRole, MemberRoleAdmin, true},
		{"member legacy user", IsValidMemberRole, MemberRoleUser, true},
		{"member owner", IsValidMemberRole, "Owner", false},

		{"task in progress", IsValidTaskStatus, "In Progress", true},
		{"task done", IsValidTaskStatus, "Done", false},

		{"priority high", IsValidTaskPriority, PriorityHigh, true},
		{"priority urgent", IsValidTaskPriority, "Urgent", false},
		{"priority empty", IsValidTaskPriority, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.valid(tt.in); got != tt.want {
				t.Errorf("got %v for %q, want %v", got, tt.in, tt.want)
			}
		})
	}
}
