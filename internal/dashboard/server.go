// Package dashboard serves a live view of the study plan. Connected
// WebSocket clients receive progress, experiment and sync-state
// updates as they happen; plain JSON endpoints expose the current
// documents for anything that prefers polling.
package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/mschirtzinger/learntrack/internal/syncer"
	"github.com/mschirtzinger/learntrack/internal/tracker"
)

// MessageType defines the type of dashboard message
type MessageType string

const (
	// MessageTypeProgressUpdate indicates a task or phase changed
	MessageTypeProgressUpdate MessageType = "progress_update"

	// MessageTypeExperimentUpdate indicates the experiment log changed
	MessageTypeExperimentUpdate MessageType = "experiment_update"

	// MessageTypeSyncState indicates the sync status changed
	MessageTypeSyncState MessageType = "sync_state"

	// MessageTypeStats indicates updated progress statistics
	MessageTypeStats MessageType = "stats"
)

// Message represents a dashboard broadcast message
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// ProgressUpdateData describes a single plan change
type ProgressUpdateData struct {
	TaskID    string `json:"task_id,omitempty"`
	PhaseID   string `json:"phase_id,omitempty"`
	Action    string `json:"action"` // toggled, updated, added, deleted, changed
	Title     string `json:"title,omitempty"`
	Completed bool   `json:"completed,omitempty"`
}

// ExperimentUpdateData describes an experiment log change. ExperimentID
// is empty for whole-document changes.
type ExperimentUpdateData struct {
	ExperimentID string `json:"experiment_id,omitempty"`
	Action       string `json:"action"` // added, updated, deleted, changed
	Name         string `json:"name,omitempty"`
}

// SyncStateData mirrors the coordinator status
type SyncStateData struct {
	Online  bool     `json:"online"`
	Pending []string `json:"pending"`
}

// StatsData contains derived progress statistics
type StatsData struct {
	CompletedTasks int     `json:"completed_tasks"`
	TotalTasks     int     `json:"total_tasks"`
	Percent        float64 `json:"percent"`
	CurrentPhase   string  `json:"current_phase"`
	Experiments    int     `json:"experiments"`
}

// Server manages WebSocket connections and the JSON API
type Server struct {
	addr     string
	listener net.Listener
	server   *http.Server

	tracker *tracker.Tracker
	status  func() syncer.Status

	clients   map[*websocket.Conn]bool
	clientsMu sync.RWMutex

	broadcast chan Message

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	logger *log.Logger
}

// Config holds server configuration
type Config struct {
	// Addr to listen on (default: localhost:8080)
	Addr string

	// Status reports the current sync state; nil disables the
	// sync section of /health.
	Status func() syncer.Status

	// Logger for server activity (default: stderr logger)
	Logger *log.Logger
}

// NewServer creates a dashboard server over tr.
func NewServer(tr *tracker.Tracker, config Config) *Server {
	if config.Addr == "" {
		config.Addr = "localhost:8080"
	}
	if config.Logger == nil {
		config.Logger = log.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Server{
		addr:      config.Addr,
		tracker:   tr,
		status:    config.Status,
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan Message, 100),
		ctx:       ctx,
		cancel:    cancel,
		logger:    config.Logger,
	}
}

// Start begins the HTTP server and WebSocket handler
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	s.listener = ln

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/api/progress", s.handleProgress)
	mux.HandleFunc("/api/experiments", s.handleExperiments)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/", s.handleRoot)

	s.server = &http.Server{
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	s.wg.Add(1)
	go s.broadcastLoop()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.logger.Printf("Dashboard listening on %s", s.listener.Addr())
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Printf("Server error: %v", err)
		}
	}()

	return nil
}

// Stop gracefully shuts down the server
func (s *Server) Stop() error {
	s.logger.Println("Stopping dashboard")

	s.cancel()

	s.clientsMu.Lock()
	for conn := range s.clients {
		_ = conn.Close(websocket.StatusGoingAway, "Server shutting down")
		delete(s.clients, conn)
	}
	s.clientsMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	s.wg.Wait()

	s.logger.Println("Dashboard stopped")
	return nil
}

// Broadcast sends a message to all connected clients
func (s *Server) Broadcast(msg Message) {
	select {
	case s.broadcast <- msg:
	case <-s.ctx.Done():
		return
	default:
		s.logger.Println("Warning: broadcast channel full, dropping message")
	}
}

func (s *Server) broadcastLoop() {
	defer s.wg.Done()

	for {
		select {
		case <-s.ctx.Done():
			return

		case msg := <-s.broadcast:
			if msg.Timestamp.IsZero() {
				msg.Timestamp = time.Now()
			}

			data, err := json.Marshal(msg)
			if err != nil {
				s.logger.Printf("Failed to marshal message: %v", err)
				continue
			}

			s.clientsMu.RLock()
			clients := make([]*websocket.Conn, 0, len(s.clients))
			for conn := range s.clients {
				clients = append(clients, conn)
			}
			s.clientsMu.RUnlock()

			// Send outside the read lock so a slow client cannot
			// block new broadcasts.
			for _, conn := range clients {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				err := conn.Write(ctx, websocket.MessageText, data)
				cancel()

				if err != nil {
					s.logger.Printf("Failed to send to client: %v", err)
					s.removeClient(conn)
				}
			}
		}
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		s.logger.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	s.clientsMu.Lock()
	s.clients[conn] = true
	clientCount := len(s.clients)
	s.clientsMu.Unlock()

	s.logger.Printf("Client connected (total: %d)", clientCount)

	// New clients start from the current snapshot.
	if stats, err := s.currentStats(r.Context()); err == nil {
		data, _ := json.Marshal(stats)
		welcome := Message{Type: MessageTypeStats, Timestamp: time.Now(), Data: data}
		raw, _ := json.Marshal(welcome)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = conn.Write(ctx, websocket.MessageText, raw)
		cancel()
	}

	go s.readLoop(conn)
}

// readLoop keeps the connection alive and notices client disconnects.
func (s *Server) readLoop(conn *websocket.Conn) {
	defer s.removeClient(conn)

	for {
		_, _, err := conn.Read(s.ctx)
		if err != nil {
			return
		}
	}
}

func (s *Server) removeClient(conn *websocket.Conn) {
	s.clientsMu.Lock()
	if _, exists := s.clients[conn]; exists {
		delete(s.clients, conn)
		clientCount := len(s.clients)
		s.clientsMu.Unlock()

		_ = conn.Close(websocket.StatusNormalClosure, "")
		s.logger.Printf("Client disconnected (total: %d)", clientCount)
	} else {
		s.clientsMu.Unlock()
	}
}

func (s *Server) currentStats(ctx context.Context) (StatsData, error) {
	summary, err := s.tracker.Progress(ctx)
	if err != nil {
		return StatsData{}, err
	}
	exps, err := s.tracker.Experiments(ctx)
	if err != nil {
		return StatsData{}, err
	}
	return StatsData{
		CompletedTasks: summary.CompletedTasks,
		TotalTasks:     summary.TotalTasks,
		Percent:        summary.Percent,
		CurrentPhase:   summary.CurrentPhase,
		Experiments:    len(exps),
	}, nil
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	summary, err := s.tracker.Progress(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(summary)
}

func (s *Server) handleExperiments(w http.ResponseWriter, r *http.Request) {
	exps, err := s.tracker.Experiments(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(exps)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.clientsMu.RLock()
	clientCount := len(s.clients)
	s.clientsMu.RUnlock()

	health := map[string]any{
		"status":  "ok",
		"clients": clientCount,
	}
	if s.status != nil {
		status := s.status()
		pending := make([]string, 0, len(status.Pending))
		for _, kind := range status.Pending {
			pending = append(pending, string(kind))
		}
		health["sync"] = SyncStateData{Online: status.Online, Pending: pending}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(health)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	_, _ = fmt.Fprintf(w, `<!DOCTYPE html>
<html>
<head>
    <title>LearnTrack Dashboard</title>
</head>
<body>
    <h1>LearnTrack Dashboard</h1>
    <p>WebSocket endpoint: <code>ws://%s/ws</code></p>
    <p>Progress: <a href="/api/progress">/api/progress</a></p>
    <p>Experiments: <a href="/api/experiments">/api/experiments</a></p>
    <p>Health check: <a href="/health">/health</a></p>
</body>
</html>`, r.Host)
}

// Addr returns the server's listening address
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// ClientCount returns the current number of connected clients
func (s *Server) ClientCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}
