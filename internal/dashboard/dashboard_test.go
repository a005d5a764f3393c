package dashboard

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/mschirtzinger/learntrack/internal/plan"
	"github.com/mschirtzinger/learntrack/internal/syncer"
	"github.com/mschirtzinger/learntrack/internal/tracker"
)

// memStore satisfies tracker.Store in memory.
type memStore struct {
	phases      []plan.Phase
	hasPhases   bool
	experiments []plan.Experiment
}

func (m *memStore) LoadProgress(ctx context.Context) ([]plan.Phase, bool, error) {
	return m.phases, m.hasPhases, nil
}

func (m *memStore) SaveProgress(ctx context.Context, phases []plan.Phase) error {
	m.phases = phases
	m.hasPhases = true
	return nil
}

func (m *memStore) LoadExperiments(ctx context.Context) ([]plan.Experiment, bool, error) {
	return m.experiments, len(m.experiments) > 0, nil
}

func (m *memStore) SaveExperiments(ctx context.Context, exps []plan.Experiment) error {
	m.experiments = exps
	return nil
}

func setupServer(t *testing.T) *Server {
	t.Helper()

	logger := log.New(io.Discard, "", 0)
	tr := tracker.New(&memStore{}, logger)
	server := NewServer(tr, Config{
		Addr: "localhost:0", // random available port
		Status: func() syncer.Status {
			return syncer.Status{Online: true}
		},
		Logger: logger,
	})

	if err := server.Start(); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}
	t.Cleanup(func() { _ = server.Stop() })

	time.Sleep(100 * time.Millisecond)
	return server
}

func TestServerStartStop(t *testing.T) {
	server := setupServer(t)

	if server.Addr() == "" {
		t.Fatal("Server address is empty")
	}
}

func TestWebSocketConnection(t *testing.T) {
	server := setupServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws://" + server.Addr() + "/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect WebSocket: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	time.Sleep(50 * time.Millisecond)
	if count := server.ClientCount(); count != 1 {
		t.Errorf("Expected 1 client, got %d", count)
	}

	// The welcome message is a stats snapshot.
	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("Failed to read welcome message: %v", err)
	}

	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("Failed to unmarshal message: %v", err)
	}
	if msg.Type != MessageTypeStats {
		t.Errorf("Expected welcome message type %s, got %s", MessageTypeStats, msg.Type)
	}

	var stats StatsData
	if err := json.Unmarshal(msg.Data, &stats); err != nil {
		t.Fatalf("Failed to unmarshal stats: %v", err)
	}
	if stats.TotalTasks != 12 {
		t.Errorf("Expected 12 total tasks in welcome stats, got %d", stats.TotalTasks)
	}
}

func TestBroadcastReachesClient(t *testing.T) {
	server := setupServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws://"+server.Addr()+"/ws", nil)
	if err != nil {
		t.Fatalf("Failed to connect WebSocket: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	// Skip the welcome message.
	if _, _, err := conn.Read(ctx); err != nil {
		t.Fatalf("Failed to read welcome message: %v", err)
	}

	update, _ := json.Marshal(ProgressUpdateData{TaskID: "env-1", Action: "toggled", Completed: true})
	server.Broadcast(Message{Type: MessageTypeProgressUpdate, Data: update})

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("Failed to read broadcast: %v", err)
	}

	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("Failed to unmarshal message: %v", err)
	}
	if msg.Type != MessageTypeProgressUpdate {
		t.Errorf("Expected %s, got %s", MessageTypeProgressUpdate, msg.Type)
	}
	if msg.Timestamp.IsZero() {
		t.Error("Expected broadcast timestamp to be filled in")
	}

	var got ProgressUpdateData
	if err := json.Unmarshal(msg.Data, &got); err != nil {
		t.Fatalf("Failed to unmarshal progress data: %v", err)
	}
	if got.TaskID != "env-1" || !got.Completed {
		t.Errorf("Unexpected progress data: %+v", got)
	}
}

func TestProgressEndpoint(t *testing.T) {
	server := setupServer(t)

	resp, err := http.Get("http://" + server.Addr() + "/api/progress")
	if err != nil {
		t.Fatalf("Failed to fetch progress: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	var summary tracker.Summary
	if err := json.NewDecoder(resp.Body).Decode(&summary); err != nil {
		t.Fatalf("Failed to decode summary: %v", err)
	}
	if len(summary.Phases) != 4 {
		t.Errorf("Expected 4 seeded phases, got %d", len(summary.Phases))
	}
	if summary.TotalTasks != 12 {
		t.Errorf("Expected 12 total tasks, got %d", summary.TotalTasks)
	}
}

func TestHealthIncludesSyncState(t *testing.T) {
	server := setupServer(t)

	resp, err := http.Get("http://" + server.Addr() + "/health")
	if err != nil {
		t.Fatalf("Failed to fetch health: %v", err)
	}
	defer resp.Body.Close()

	var health struct {
		Status string        `json:"status"`
		Sync   SyncStateData `json:"sync"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		t.Fatalf("Failed to decode health: %v", err)
	}
	if health.Status != "ok" {
		t.Errorf("Expected status ok, got %q", health.Status)
	}
	if !health.Sync.Online {
		t.Error("Expected sync online in health response")
	}
}

func TestHandlerBroadcastsStatsAfterToggle(t *testing.T) {
	server := setupServer(t)
	logger := log.New(io.Discard, "", 0)
	handler := NewHandler(server, server.tracker, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws://"+server.Addr()+"/ws", nil)
	if err != nil {
		t.Fatalf("Failed to connect WebSocket: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	if _, _, err := conn.Read(ctx); err != nil {
		t.Fatalf("Failed to read welcome message: %v", err)
	}

	if _, err := server.tracker.ToggleTask(ctx, "env-1"); err != nil {
		t.Fatalf("ToggleTask failed: %v", err)
	}
	handler.OnTaskToggled("env-1", true)

	// First the progress update, then the refreshed stats.
	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("Failed to read progress update: %v", err)
	}
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("Failed to unmarshal message: %v", err)
	}
	if msg.Type != MessageTypeProgressUpdate {
		t.Fatalf("Expected progress update, got %s", msg.Type)
	}

	_, data, err = conn.Read(ctx)
	if err != nil {
		t.Fatalf("Failed to read stats: %v", err)
	}
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("Failed to unmarshal message: %v", err)
	}
	if msg.Type != MessageTypeStats {
		t.Fatalf("Expected stats, got %s", msg.Type)
	}

	var stats StatsData
	if err := json.Unmarshal(msg.Data, &stats); err != nil {
		t.Fatalf("Failed to unmarshal stats: %v", err)
	}
	if stats.CompletedTasks != 1 {
		t.Errorf("Expected 1 completed task, got %d", stats.CompletedTasks)
	}
}

func TestHandlerBroadcastsDocumentChanges(t *testing.T) {
	server := setupServer(t)
	logger := log.New(io.Discard, "", 0)
	handler := NewHandler(server, server.tracker, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws://"+server.Addr()+"/ws", nil)
	if err != nil {
		t.Fatalf("Failed to connect WebSocket: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	if _, _, err := conn.Read(ctx); err != nil {
		t.Fatalf("Failed to read welcome message: %v", err)
	}

	// A watcher-driven change carries no task id, just the document
	// kind. Clients still need the update plus refreshed stats.
	handler.OnProgressChanged()
	handler.OnExperimentsChanged()

	read := func() Message {
		t.Helper()
		_, data, err := conn.Read(ctx)
		if err != nil {
			t.Fatalf("Failed to read message: %v", err)
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("Failed to unmarshal message: %v", err)
		}
		return msg
	}

	msg := read()
	if msg.Type != MessageTypeProgressUpdate {
		t.Fatalf("Expected progress update, got %s", msg.Type)
	}
	var progress ProgressUpdateData
	if err := json.Unmarshal(msg.Data, &progress); err != nil {
		t.Fatalf("Failed to unmarshal progress data: %v", err)
	}
	if progress.Action != "changed" || progress.TaskID != "" {
		t.Errorf("Expected document-level change, got %+v", progress)
	}
	if msg := read(); msg.Type != MessageTypeStats {
		t.Fatalf("Expected stats after progress change, got %s", msg.Type)
	}

	msg = read()
	if msg.Type != MessageTypeExperimentUpdate {
		t.Fatalf("Expected experiment update, got %s", msg.Type)
	}
	var exp ExperimentUpdateData
	if err := json.Unmarshal(msg.Data, &exp); err != nil {
		t.Fatalf("Failed to unmarshal experiment data: %v", err)
	}
	if exp.Action != "changed" || exp.ExperimentID != "" {
		t.Errorf("Expected document-level change, got %+v", exp)
	}
	if msg := read(); msg.Type != MessageTypeStats {
		t.Fatalf("Expected stats after experiment change, got %s", msg.Type)
	}
}
