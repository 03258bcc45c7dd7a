package model

import "time"

// Project statuses.
const (
	ProjectPlanning   = "planning"
	ProjectInProgress = "in-progress"
	ProjectTesting    = "testing"
	ProjectCompleted  = "completed"
	ProjectOnHold     = "on-hold"
)

// Project priorities.
const (
	PriorityLow      = "low"
	PriorityMedium   = "medium"
	PriorityHigh     = "high"
	PriorityCritical = "critical"
)

// Team roles. A lead has the owner's administrative rights except deletion.
const (
	TeamRoleLead      = "lead"
	TeamRoleDeveloper = "developer"
	TeamRoleTester    = "tester"
	TeamRoleDesigner  = "designer"
)

// Milestone statuses.
const (
	MilestonePending   = "pending"
	MilestoneCompleted = "completed"
	MilestoneOverdue   = "overdue"
)

func ValidProjectStatus(s string) bool {
	switch s {
	case ProjectPlanning, ProjectInProgress, ProjectTesting, ProjectCompleted, ProjectOnHold:
		return true
	}
	return false
}

func ValidProjectPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

func ValidTeamRole(r string) bool {
	switch r {
	case TeamRoleLead, TeamRoleDeveloper, TeamRoleTester, TeamRoleDesigner:
		return true
	}
	return false
}

type Project struct {
	ID          int64        `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Status      string       `json:"status"`
	Priority    string       `json:"priority"`
	StartDate   time.Time    `json:"start_date"`
	EndDate     *time.Time   `json:"end_date,omitempty"`
	OwnerID     int64        `json:"owner_id"`
	Team        []TeamMember `json:"team"`
	Tags        []string     `json:"tags"`
	Progress    int          `json:"progress"`
	Budget      Budget       `json:"budget"`
	Milestones  []Milestone  `json:"milestones"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// TeamMember is keyed by UserID; a project holds at most one entry per user.
type TeamMember struct {
	UserID   int64     `json:"user_id"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

type Budget struct {
	Allocated float64 `json:"allocated"`
	Spent     float64 `json:"spent"`
}

// Remaining is the unspent part of the allocation.
func (b Budget) Remaining() float64 {
	return b.Allocated - b.Spent
}

type Milestone struct {
	ID          int64      `json:"id"`
	ProjectID   int64      `json:"project_id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Status      string     `json:"status"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Member returns the team entry for userID.
func (p *Project) Member(userID int64) (TeamMember, bool) {
	for _, m := range p.Team {
		if m.UserID == userID {
			return m, true
		}
	}
	return TeamMember{}, false
}

// DurationDays is the planned length in whole days, or 0 without an end date.
func (p *Project) DurationDays() int {
	if p.EndDate == nil {
		return 0
	}
	hours := p.EndDate.Sub(p.StartDate).Hours()
	days := int(hours / 24)
	if float64(days*24) < hours {
		days++
	}
	return days
}
