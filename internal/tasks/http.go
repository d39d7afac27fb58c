package tasks

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

const maxBodyBytes = 1 << 20

type errResponse struct {
	Error   string       `json:"error"`
	Details []FieldError `json:"details,omitempty"`
}

type successResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

type RouteOptions struct {
	// EnableSeed mounts POST /tasks/seed.
	EnableSeed bool
	Logger     *slog.Logger
}

func RegisterRoutes(r chi.Router, svc *Service, opts RouteOptions) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r.Get("/tasks", listTasks(svc, logger))
	r.Post("/tasks", createTask(svc, logger))
	r.Get("/tasks/export", exportTasks(NewExporter(svc), logger))
	if opts.EnableSeed {
		r.Post("/tasks/seed", seedTasks(svc, logger))
	}
	r.Patch("/tasks/{id}", updateTask(svc, logger))
	r.Delete("/tasks/{id}", deleteTask(svc, logger))
}

func listTasks(svc *Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tasks, err := svc.List(r.Context())
		if err != nil {
			writeError(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, tasks)
	}
}

func createTask(svc *Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in createTaskInput
		body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
		if err := decodeValidated(body, createTaskSchema, &in, "text", "Task text must be a string"); err != nil {
			writeError(w, r, logger, err)
			return
		}

		if _, err := svc.Create(r.Context(), in.Text); err != nil {
			writeError(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, successResponse{Success: true})
	}
}

func updateTask(svc *Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := ParseID(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, r, logger, err)
			return
		}

		var in updateTaskInput
		body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
		if err := decodeValidated(body, updateTaskSchema, &in, "completed", "completed must be a boolean"); err != nil {
			writeError(w, r, logger, err)
			return
		}

		if err := svc.SetCompleted(r.Context(), id, in.Completed); err != nil {
			writeError(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, successResponse{Success: true})
	}
}

func deleteTask(svc *Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := ParseID(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, r, logger, err)
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			writeError(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, successResponse{Success: true})
	}
}

func seedTasks(svc *Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Reset(r.Context()); err != nil {
			logFault(r, logger, err)
			writeJSON(w, http.StatusInternalServerError, successResponse{Success: false, Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, successResponse{
			Success: true,
			Message: "Database seeded with 5 sample tasks!",
		})
	}
}

func exportTasks(ex *Exporter, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doc, err := ex.Export(r.Context(), r.URL.Query().Get("format"))
		if err != nil {
			writeError(w, r, logger, err)
			return
		}
		w.Header().Set("Content-Type", doc.ContentType)
		w.Header().Set("Content-Disposition", `attachment; filename="tasks.`+doc.Ext+`"`)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(doc.Body)
	}
}

// writeError maps service errors to status codes. Anything unrecognised is
// a store fault and its message goes back to the caller.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, errResponse{Error: ve.Message, Details: ve.Details})
	case errors.Is(err, ErrInvalidID):
		writeJSON(w, http.StatusBadRequest, errResponse{Error: msgInvalidID})
	case errors.Is(err, ErrUnknownFormat):
		writeJSON(w, http.StatusBadRequest, errResponse{Error: err.Error()})
	default:
		logFault(r, logger, err)
		writeJSON(w, http.StatusInternalServerError, errResponse{Error: err.Error()})
	}
}

func logFault(r *http.Request, logger *slog.Logger, err error) {
	logger.ErrorContext(r.Context(), "task_store_fault",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("req_id", chimw.GetReqID(r.Context())),
		slog.String("error", err.Error()),
	)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
