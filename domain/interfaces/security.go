package interfaces

import (
	"browser_agent/domain/entities"
	"context"
)

// RiskAssessor defines the interface for flagging actions before they run
type RiskAssessor interface {
	// Assess rates an action. label is the summary text of the targeted element.
	Assess(ctx context.Context, action entities.Action, pageURL string, label string) entities.RiskLevel
}
