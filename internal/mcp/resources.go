package mcp

import (
	"context"
	"encoding/json"

	"github.com/claude/ascend/internal/models"
	"github.com/mark3labs/mcp-go/mcp"
)

const recentWorkoutDays = 14

func (h *handlers) recentWorkouts(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	profile, err := h.ds.Profile(ctx)
	if err != nil {
		return nil, err
	}

	end := today(h.now())
	start := models.NewDate(end.AddDate(0, 0, -recentWorkoutDays))
	workouts := filterWorkouts(profile.Workouts, workoutFilter{start: start, end: end})

	data, err := json.Marshal(workouts)
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
