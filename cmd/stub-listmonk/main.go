package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
)

func main() {
	log.Println("╔════════════════════════════════════════════════════════════╗")
	log.Println("║  WARNING: This is a STUB listmonk API for local testing.  ║")
	log.Println("║  State is held in memory and lost on restart.             ║")
	log.Println("║  No emails are ever delivered.                            ║")
	log.Println("╚════════════════════════════════════════════════════════════╝")
	log.Println("")
	log.Println("Starting stub listmonk API...")

	username := os.Getenv("LISTMONK_USERNAME")
	if username == "" {
		username = "listmonk"
	}
	password := os.Getenv("LISTMONK_PASSWORD")
	if password == "" {
		password = "listmonk"
	}

	st := newStore()

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		data(w, http.StatusOK, map[string]string{"status": "healthy", "service": "stub-listmonk"})
	})

	r.Route("/api", func(r chi.Router) {
		// The subscription form endpoint is the only unauthenticated one.
		r.Post("/public/subscription", st.publicSubscribe)

		r.Group(func(r chi.Router) {
			r.Use(basicAuth(username, password))
			r.Post("/subscribers", st.createSubscriber)
			r.Get("/subscribers", st.querySubscribers)
			r.Put("/subscribers/lists", st.updateSubscriberLists)
			r.Delete("/subscribers/{id}", st.deleteSubscriber)
			r.Get("/lists/{id}", st.getList)
			r.Post("/tx", st.sendTransactional)
		})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "9000"
	}

	server := &http.Server{
		Addr:         "0.0.0.0:" + port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("Stub listmonk listening on :%s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down stub listmonk...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	log.Println("Server stopped")
}

func basicAuth(username, password string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, p, ok := r.BasicAuth()
			if !ok || u != username || p != password {
				fail(w, http.StatusUnauthorized, "invalid or missing credentials")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// data writes a response in listmonk's {"data": ...} envelope.
func data(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]any{"data": v}); err != nil {
		log.Printf("[stub] encode error: %v", err)
	}
}

// fail writes listmonk's {"message": ...} error envelope.
func fail(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{"message": message}); err != nil {
		log.Printf("[stub] encode error: %v", err)
	}
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		fail(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return false
	}
	return true
}

type subscriber struct {
	ID     int       `json:"id"`
	UUID   string    `json:"uuid"`
	Email  string    `json:"email"`
	Name   string    `json:"name"`
	Status string    `json:"status"`
	Lists  []listRef `json:"lists"`
}

type listRef struct {
	ID   int    `json:"id"`
	UUID string `json:"uuid"`
	Name string `json:"name"`
}

type txRecord struct {
	SubscriberEmail string            `json:"subscriber_email"`
	TemplateID      int               `json:"template_id"`
	Data            map[string]string `json:"data"`
}

type store struct {
	mu          sync.Mutex
	nextID      int
	subscribers map[int]*subscriber
	lists       map[int]listRef
	txLog       []txRecord
}

func newStore() *store {
	st := &store{
		nextID:      1,
		subscribers: make(map[int]*subscriber),
		lists:       make(map[int]listRef),
	}
	// A few lists to play with out of the box.
	for id, name := range map[int]string{1: "Default", 2: "Newsletter", 3: "Announcements"} {
		st.lists[id] = listRef{ID: id, UUID: uuid.NewString(), Name: name}
	}
	return st
}

func (st *store) findByEmail(email string) []*subscriber {
	var matches []*subscriber
	for _, sub := range st.subscribers {
		if strings.EqualFold(sub.Email, email) {
			matches = append(matches, sub)
		}
	}
	return matches
}

func (st *store) createSubscriber(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email  string `json:"email"`
		Name   string `json:"name"`
		Status string `json:"status"`
		Lists  []int  `json:"lists"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.Email == "" {
		fail(w, http.StatusBadRequest, "invalid email")
		return
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	if len(st.findByEmail(req.Email)) > 0 {
		fail(w, http.StatusConflict, "E-mail already exists.")
		return
	}

	sub := &subscriber{
		ID:     st.nextID,
		UUID:   uuid.NewString(),
		Email:  req.Email,
		Name:   req.Name,
		Status: req.Status,
	}
	st.nextID++
	for _, id := range req.Lists {
		if l, ok := st.lists[id]; ok {
			sub.Lists = append(sub.Lists, l)
		}
	}
	st.subscribers[sub.ID] = sub
	data(w, http.StatusOK, sub)
}

// emailQuery matches the only query form the stub understands:
// subscribers.email = '<email>' (with SQL-style doubled quotes inside).
var emailQuery = regexp.MustCompile(`^subscribers\.email\s*=\s*'(.*)'$`)

func (st *store) querySubscribers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	if perPage < 1 {
		perPage = 20
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	var results []*subscriber
	switch {
	case q.Get("query") != "":
		m := emailQuery.FindStringSubmatch(q.Get("query"))
		if m == nil {
			fail(w, http.StatusBadRequest, "unsupported query")
			return
		}
		email := strings.ReplaceAll(m[1], "''", "'")
		results = st.findByEmail(email)
	case q.Get("list_id") != "":
		listID, err := strconv.Atoi(q.Get("list_id"))
		if err != nil {
			fail(w, http.StatusBadRequest, "invalid list_id")
			return
		}
		for _, sub := range st.subscribers {
			for _, l := range sub.Lists {
				if l.ID == listID {
					results = append(results, sub)
					break
				}
			}
		}
	default:
		for _, sub := range st.subscribers {
			results = append(results, sub)
		}
	}

	total := len(results)
	start := (page - 1) * perPage
	if start > total {
		start = total
	}
	end := start + perPage
	if end > total {
		end = total
	}
	pageResults := results[start:end]
	if pageResults == nil {
		pageResults = []*subscriber{}
	}

	data(w, http.StatusOK, map[string]any{
		"results":  pageResults,
		"total":    total,
		"per_page": perPage,
		"page":     page,
	})
}

func (st *store) getList(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		fail(w, http.StatusBadRequest, "invalid list id")
		return
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	l, ok := st.lists[id]
	if !ok {
		fail(w, http.StatusNotFound, fmt.Sprintf("list %d not found", id))
		return
	}
	data(w, http.StatusOK, l)
}

func (st *store) publicSubscribe(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email     string   `json:"email"`
		ListUUIDs []string `json:"list_uuids"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.Email == "" {
		fail(w, http.StatusBadRequest, "invalid email")
		return
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	var sub *subscriber
	if matches := st.findByEmail(req.Email); len(matches) > 0 {
		sub = matches[0]
	} else {
		sub = &subscriber{ID: st.nextID, UUID: uuid.NewString(), Email: req.Email, Status: "enabled"}
		st.nextID++
		st.subscribers[sub.ID] = sub
	}

	for _, lu := range req.ListUUIDs {
		for _, l := range st.lists {
			if l.UUID != lu {
				continue
			}
			already := false
			for _, existing := range sub.Lists {
				if existing.ID == l.ID {
					already = true
					break
				}
			}
			if !already {
				sub.Lists = append(sub.Lists, l)
			}
		}
	}
	data(w, http.StatusOK, true)
}

func (st *store) updateSubscriberLists(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDs           []int  `json:"ids"`
		Action        string `json:"action"`
		TargetListIDs []int  `json:"target_list_ids"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.Action != "add" && req.Action != "remove" && req.Action != "unsubscribe" {
		fail(w, http.StatusBadRequest, "invalid action")
		return
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	for _, id := range req.IDs {
		sub, ok := st.subscribers[id]
		if !ok {
			continue
		}
		switch req.Action {
		case "add":
			for _, listID := range req.TargetListIDs {
				l, ok := st.lists[listID]
				if !ok {
					continue
				}
				already := false
				for _, existing := range sub.Lists {
					if existing.ID == l.ID {
						already = true
						break
					}
				}
				if !already {
					sub.Lists = append(sub.Lists, l)
				}
			}
		case "remove", "unsubscribe":
			var kept []listRef
			for _, existing := range sub.Lists {
				drop := false
				for _, listID := range req.TargetListIDs {
					if existing.ID == listID {
						drop = true
						break
					}
				}
				if !drop {
					kept = append(kept, existing)
				}
			}
			sub.Lists = kept
		}
	}
	data(w, http.StatusOK, true)
}

func (st *store) deleteSubscriber(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		fail(w, http.StatusBadRequest, "invalid subscriber id")
		return
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	if _, ok := st.subscribers[id]; !ok {
		fail(w, http.StatusNotFound, fmt.Sprintf("subscriber %d not found", id))
		return
	}
	delete(st.subscribers, id)
	data(w, http.StatusOK, true)
}

func (st *store) sendTransactional(w http.ResponseWriter, r *http.Request) {
	var req txRecord
	if !decode(w, r, &req) {
		return
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	if len(st.findByEmail(req.SubscriberEmail)) == 0 {
		fail(w, http.StatusBadRequest, "subscriber not found")
		return
	}
	st.txLog = append(st.txLog, req)
	log.Printf("[stub] tx send: template=%d recipient=%s", req.TemplateID, req.SubscriberEmail)
	data(w, http.StatusOK, true)
}
