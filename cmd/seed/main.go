// Package main provides a tool to seed the database with demo board data.
//
// This creates a demo workspace with boards, columns, tasks, tags, comments,
// and tracked time to exercise the full API surface during development.
//
// Usage:
//
//	DATA_PATH=~/FlowDeck/data go run ./cmd/seed
//	DATA_PATH=~/FlowDeck/data go run ./cmd/seed --workspace ws_demo
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/flowdeckapp/flowdeck-server/internal/domain"
	"github.com/flowdeckapp/flowdeck-server/internal/id"
	"github.com/flowdeckapp/flowdeck-server/internal/store"
	"github.com/flowdeckapp/flowdeck-server/internal/tags"
)

var workspaceID = flag.String("workspace", "ws_demo", "Workspace to seed boards into")

// demoMembers are the members added to every seeded board.
var demoMembers = []domain.Member{
	{ID: "member_alex", DisplayName: "Alex Rivera", Role: "owner", AvatarColor: "#7c3aed"},
	{ID: "member_jordan", DisplayName: "Jordan Chen", Role: "member", AvatarColor: "#0ea5e9"},
	{ID: "member_sam", DisplayName: "Sam Taylor", Role: "member", AvatarColor: "#f59e0b"},
}

// demoBoards describe what gets created, column by column.
var demoBoards = []struct {
	title       string
	description string
	columns     []string
	taskTitles  []string
	tagNames    []string
}{
	{
		title:       "Website Relaunch",
		description: "Marketing site rebuild for the Q4 launch",
		columns:     []string{"To Do", "In Progress", "Review", "Done"},
		taskTitles: []string{
			"Draft new landing page copy",
			"Design pricing page",
			"Migrate blog posts",
			"Set up analytics events",
			"Accessibility audit",
			"Load test the CDN config",
		},
		tagNames: []string{"design", "content", "infra"},
	},
	{
		title:       "Client Onboarding",
		description: "Billable onboarding work for Acme Corp",
		columns:     []string{"Backlog", "Doing", "Done"},
		taskTitles: []string{
			"Kickoff workshop",
			"Integration spike",
			"Data import scripts",
			"Training session",
		},
		tagNames: []string{"billable", "urgent"},
	},
}

func main() {
	flag.Parse()

	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			log.Fatalf("Failed to resolve home directory: %v", err)
		}
		dataPath = filepath.Join(home, "FlowDeck", "data")
	}
	dbPath := filepath.Join(dataPath, "db")

	fmt.Printf("Opening board store at: %s\n", dbPath)

	s, err := store.New(dbPath, nil, store.NewNoopEmitter())
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	now := time.Now()

	for _, spec := range demoBoards {
		board := &domain.Board{
			WorkspaceID: *workspaceID,
			Title:       spec.title,
			Description: spec.description,
			Members:     demoMembers,
		}
		board.ID = id.MustGenerate("board")

		if err := s.CreateBoard(ctx, board); err != nil {
			log.Fatalf("Failed to create board %q: %v", spec.title, err)
		}
		fmt.Printf("\nCreated board: %s (%s)\n", board.Title, board.ID)

		columns := make([]*domain.Column, 0, len(spec.columns))
		for i, title := range spec.columns {
			column := &domain.Column{
				BoardID:     board.ID,
				WorkspaceID: board.WorkspaceID,
				Title:       title,
				Order:       i,
			}
			column.ID = id.MustGenerate("col")
			if err := s.CreateColumn(ctx, column); err != nil {
				log.Fatalf("Failed to create column %q: %v", title, err)
			}
			columns = append(columns, column)
		}
		fmt.Printf("  Created %d columns\n", len(columns))

		var boardTags []domain.Tag
		var seeded []*domain.Task
		tasksCreated := 0

		for _, title := range spec.taskTitles {
			column := columns[rng.Intn(len(columns))]
			author := demoMembers[rng.Intn(len(demoMembers))]

			task := &domain.Task{
				BoardID:      board.ID,
				WorkspaceID:  board.WorkspaceID,
				ColumnID:     column.ID,
				Title:        title,
				Priority:     randomPriority(rng),
				Tags:         []domain.Tag{},
				Checklist:    []domain.ChecklistItem{},
				Comments:     []domain.Comment{},
				TimeTracking: domain.NewTimeTracking(),
				CreatedBy:    author.ID,
			}
			task.ID = id.MustGenerate("task")

			// Tag via the registry so colors converge board-wide.
			tagName := spec.tagNames[rng.Intn(len(spec.tagNames))]
			tagged, err := tags.Add(task.Tags, boardTags, tagName)
			if err == nil {
				task.Tags = tagged
			}

			// Roughly half the tasks get an assignee and a comment.
			if rng.Intn(2) == 0 {
				assignee := demoMembers[rng.Intn(len(demoMembers))]
				task.AssignedMemberIDs = []string{assignee.ID}
				task.Comments = append(task.Comments,
					domain.NewComment(id.MustGenerate("cmt"), assignee.ID, "Picking this one up."))
			}

			// A third of the tasks carry tracked time for billing demos.
			if rng.Intn(3) == 0 {
				seconds := int64((1 + rng.Intn(6)) * 1800) // 30m steps up to 3h
				start := now.Add(-time.Duration(seconds) * time.Second)
				task.TimeTracking.TotalSeconds = seconds
				task.TimeTracking.HourlyRate = 60
				task.TimeTracking.Rounding = domain.RoundingUp
				task.TimeTracking.Entries = []domain.TimeEntry{{
					ID:        id.MustGenerate("entry"),
					StartTime: start,
					EndTime:   now,
					Duration:  seconds,
				}}
			}

			task.Activity = []domain.ActivityEntry{
				domain.NewActivityEntry(id.MustGenerate("act"), author.ID,
					domain.ActivityTaskCreated, fmt.Sprintf("created task %q", title)),
			}

			if err := s.CreateTask(ctx, task); err != nil {
				log.Printf("Failed to create task %q: %v", title, err)
				continue
			}
			seeded = append(seeded, task)
			boardTags = tags.Collect(seeded)
			tasksCreated++
		}

		fmt.Printf("  Created %d tasks\n", tasksCreated)
	}

	fmt.Println("\nSeeding complete!")
}

// randomPriority weights toward medium, matching real board distributions.
func randomPriority(rng *rand.Rand) domain.Priority {
	switch rng.Intn(6) {
	case 0, 1:
		return domain.PriorityHigh
	case 2:
		return domain.PriorityLow
	default:
		return domain.PriorityMedium
	}
}
