// Package main dumps a summary of a FlowDeck board store for debugging.
//
// Usage:
//
//	DATA_PATH=~/FlowDeck/data go run ./cmd/dbinspect
package main

import (
	"encoding/json/v2"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/flowdeckapp/flowdeck-server/internal/domain"
)

func main() {
	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			log.Fatalf("Failed to resolve home directory: %v", err)
		}
		dataPath = filepath.Join(home, "FlowDeck", "data")
	}
	dbPath := filepath.Join(dataPath, "db")

	opts := badger.DefaultOptions(dbPath).
		WithReadOnly(true).
		WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	fmt.Println("=== Board Store Inspection ===")
	fmt.Println()

	boardCount := 0
	columnCount := 0
	taskCount := 0
	tasksWithTime := 0
	runningTimers := 0
	totalSeconds := int64(0)

	err = db.View(func(txn *badger.Txn) error {
		if err := forEachPrimary(txn, "board:", func(val []byte) error {
			var board domain.Board
			if err := json.Unmarshal(val, &board); err != nil {
				return err
			}
			boardCount++
			if boardCount <= 5 {
				fmt.Printf("Board: %s\n", board.Title)
				fmt.Printf("  ID: %s\n", board.ID)
				fmt.Printf("  Workspace: %s\n", board.WorkspaceID)
				fmt.Printf("  Members: %d\n", len(board.Members))
				fmt.Printf("  Version: %d\n", board.Version)
				fmt.Println()
			}
			return nil
		}); err != nil {
			return err
		}

		if err := forEachPrimary(txn, "column:", func(val []byte) error {
			columnCount++
			return nil
		}); err != nil {
			return err
		}

		return forEachPrimary(txn, "task:", func(val []byte) error {
			var task domain.Task
			if err := json.Unmarshal(val, &task); err != nil {
				return err
			}
			taskCount++
			if task.TimeTracking != nil {
				if task.TimeTracking.TotalSeconds > 0 {
					tasksWithTime++
					totalSeconds += task.TimeTracking.TotalSeconds
				}
				if task.TimeTracking.IsRunning {
					runningTimers++
					fmt.Printf("Running timer: %s (started by %s)\n",
						task.Title, task.TimeTracking.StartedBy)
				}
			}
			return nil
		})
	})
	if err != nil {
		log.Fatalf("Error iterating database: %v", err)
	}

	fmt.Println("=== Summary ===")
	fmt.Printf("Boards: %d\n", boardCount)
	fmt.Printf("Columns: %d\n", columnCount)
	fmt.Printf("Tasks: %d\n", taskCount)
	fmt.Printf("Tasks with tracked time: %d\n", tasksWithTime)
	fmt.Printf("Running timers: %d\n", runningTimers)
	fmt.Printf("Total tracked: %.1f hours\n", float64(totalSeconds)/3600)
}

// forEachPrimary walks primary entity values under prefix, skipping index keys.
func forEachPrimary(txn *badger.Txn, prefix string, fn func(val []byte) error) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(prefix)

	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
		key := string(it.Item().Key())
		if strings.HasPrefix(key[len(prefix):], "idx:") {
			continue
		}
		if err := it.Item().Value(fn); err != nil {
			log.Printf("Error reading %s: %v", key, err)
		}
	}
	return nil
}
