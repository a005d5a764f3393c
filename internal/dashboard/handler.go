package dashboard

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/mschirtzinger/learntrack/internal/plan"
	"github.com/mschirtzinger/learntrack/internal/tracker"
)

// Handler turns plan and sync events into dashboard messages. It
// bridges between whatever mutates the plan and the WebSocket server.
type Handler struct {
	server  *Server
	tracker *tracker.Tracker
	logger  *log.Logger
}

// NewHandler creates an event handler connected to a dashboard server.
func NewHandler(server *Server, tr *tracker.Tracker, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{server: server, tracker: tr, logger: logger}
}

// OnTaskToggled handles task completion changes.
func (h *Handler) OnTaskToggled(taskID string, completed bool) {
	h.logger.Printf("Task toggled: %s completed=%v", taskID, completed)

	h.broadcastProgress(ProgressUpdateData{
		TaskID:    taskID,
		Action:    "toggled",
		Completed: completed,
	})
	h.broadcastStats()
}

// OnTaskAdded handles new tasks, whether typed in or generated.
func (h *Handler) OnTaskAdded(phaseID string, task plan.Task) {
	h.logger.Printf("Task added: %s (%s) in %s", task.ID, task.Title, phaseID)

	h.broadcastProgress(ProgressUpdateData{
		TaskID:  task.ID,
		PhaseID: phaseID,
		Action:  "added",
		Title:   task.Title,
	})
	h.broadcastStats()
}

// OnTaskUpdated handles task edits.
func (h *Handler) OnTaskUpdated(taskID string) {
	h.broadcastProgress(ProgressUpdateData{TaskID: taskID, Action: "updated"})
}

// OnTaskDeleted handles task removals.
func (h *Handler) OnTaskDeleted(taskID string) {
	h.logger.Printf("Task deleted: %s", taskID)

	h.broadcastProgress(ProgressUpdateData{TaskID: taskID, Action: "deleted"})
	h.broadcastStats()
}

// OnPhaseAdded handles new phases.
func (h *Handler) OnPhaseAdded(phase plan.Phase) {
	h.logger.Printf("Phase added: %s (%s)", phase.ID, phase.Name)

	h.broadcastProgress(ProgressUpdateData{PhaseID: phase.ID, Action: "added", Title: phase.Name})
	h.broadcastStats()
}

// OnExperimentChanged handles experiment log changes.
func (h *Handler) OnExperimentChanged(id, action, name string) {
	h.logger.Printf("Experiment %s: %s", action, id)

	data, err := json.Marshal(ExperimentUpdateData{ExperimentID: id, Action: action, Name: name})
	if err != nil {
		h.logger.Printf("Failed to marshal experiment data: %v", err)
		return
	}
	h.server.Broadcast(Message{
		Type:      MessageTypeExperimentUpdate,
		Timestamp: time.Now(),
		Data:      data,
	})
	h.broadcastStats()
}

// OnProgressChanged handles whole-document progress changes, such as a
// file edit picked up by the sync daemon's watcher.
func (h *Handler) OnProgressChanged() {
	h.logger.Println("Progress document changed")

	h.broadcastProgress(ProgressUpdateData{Action: "changed"})
	h.broadcastStats()
}

// OnExperimentsChanged handles whole-document experiment log changes.
func (h *Handler) OnExperimentsChanged() {
	h.logger.Println("Experiment log changed")

	data, err := json.Marshal(ExperimentUpdateData{Action: "changed"})
	if err != nil {
		h.logger.Printf("Failed to marshal experiment data: %v", err)
		return
	}
	h.server.Broadcast(Message{
		Type:      MessageTypeExperimentUpdate,
		Timestamp: time.Now(),
		Data:      data,
	})
	h.broadcastStats()
}

// OnSyncStateChanged handles online/offline transitions and pending
// set changes.
func (h *Handler) OnSyncStateChanged(online bool, pending []string) {
	h.logger.Printf("Sync state: online=%v pending=%v", online, pending)

	data, err := json.Marshal(SyncStateData{Online: online, Pending: pending})
	if err != nil {
		h.logger.Printf("Failed to marshal sync state: %v", err)
		return
	}
	h.server.Broadcast(Message{
		Type:      MessageTypeSyncState,
		Timestamp: time.Now(),
		Data:      data,
	})
}

func (h *Handler) broadcastProgress(update ProgressUpdateData) {
	data, err := json.Marshal(update)
	if err != nil {
		h.logger.Printf("Failed to marshal progress data: %v", err)
		return
	}
	h.server.Broadcast(Message{
		Type:      MessageTypeProgressUpdate,
		Timestamp: time.Now(),
		Data:      data,
	})
}

func (h *Handler) broadcastStats() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stats, err := h.server.currentStats(ctx)
	if err != nil {
		h.logger.Printf("Failed to compute stats: %v", err)
		return
	}
	data, err := json.Marshal(stats)
	if err != nil {
		h.logger.Printf("Failed to marshal stats: %v", err)
		return
	}
	h.server.Broadcast(Message{
		Type:      MessageTypeStats,
		Timestamp: time.Now(),
		Data:      data,
	})
}
