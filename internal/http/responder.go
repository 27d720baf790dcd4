package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/personal-calendar/internal/application"
)

var (
	errBadRequestBody     = errors.New("無効なリクエスト形式です。")
	errInvalidEventID     = errors.New("無効な予定 ID です。")
	errInvalidMonth       = errors.New("月は YYYY-MM 形式で指定してください。")
	errInvalidDate        = errors.New("日付は YYYY-MM-DD 形式で指定してください。")
	errMissingCredentials = errors.New("認証情報を指定してください。")
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if payload == nil || status == http.StatusNoContent {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

// writeError reports a request problem detected by the handler itself. The
// error text is shown to the user, so handler errors are written in Japanese.
func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	body := errorResponse{Message: statusMessage(status)}
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			body.Message = msg
		}
		r.loggerFor(ctx).WarnContext(ctx, "request rejected", "status", status, "error", err)
	}
	r.writeJSON(ctx, w, status, body)
}

func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	status, body := serviceErrorResponse(err)
	if status == http.StatusInternalServerError {
		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "status", status, "error", err)
	}
	r.writeJSON(ctx, w, status, body)
}

func serviceErrorResponse(err error) (int, errorResponse) {
	var (
		vErr *application.ValidationError
		cErr *application.ConflictError
	)
	switch {
	case errors.As(err, &cErr):
		return http.StatusConflict, errorResponse{
			ErrorCode:      conflictCode,
			Message:        "同じ時刻に別の予定があります。",
			ConflictingIDs: append([]string(nil), cErr.ConflictingIDs...),
		}
	case errors.Is(err, application.ErrConflict):
		return http.StatusConflict, errorResponse{ErrorCode: conflictCode, Message: statusMessage(http.StatusConflict)}
	case errors.Is(err, application.ErrNotFound):
		return http.StatusNotFound, errorResponse{Message: "指定された予定が見つかりません。"}
	case errors.As(err, &vErr):
		return http.StatusUnprocessableEntity, errorResponse{
			Message: statusMessage(http.StatusUnprocessableEntity),
			Errors:  localizeFieldErrors(vErr.FieldErrors),
		}
	default:
		return http.StatusInternalServerError, errorResponse{Message: statusMessage(http.StatusInternalServerError)}
	}
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

const conflictCode = "EVENT_CONFLICT"

var statusMessages = map[int]string{
	http.StatusBadRequest:          "リクエスト内容が正しくありません。",
	http.StatusUnauthorized:        "認証が必要です。",
	http.StatusNotFound:            "指定されたリソースが見つかりません。",
	http.StatusMethodNotAllowed:    "このメソッドは利用できません。",
	http.StatusConflict:            "要求はリソースの現在の状態と競合しています。",
	http.StatusUnprocessableEntity: "入力内容に誤りがあります。",
	http.StatusServiceUnavailable:  "サービスを利用できません。",
}

func statusMessage(status int) string {
	if msg, ok := statusMessages[status]; ok {
		return msg
	}
	return "サーバー内部でエラーが発生しました。"
}

// fieldMessages translates the validation messages produced by the
// application layer. Unknown messages are passed through.
var fieldMessages = map[string]string{
	"title is required":  "タイトルは必須です。",
	"time must be HH:MM": "時刻は HH:MM 形式で指定してください。",
	"date is required":   "日付は必須です。",
	"id is required":     "ID は必須です。",
	"id already exists":  "同じ ID の予定が既に存在します。",

	"customInterval must be at least 1": "繰り返し間隔は 1 以上で指定してください。",

	"repeat must be one of none, daily, weekly, monthly, custom": "繰り返しは none, daily, weekly, monthly, custom のいずれかを指定してください。",
}

func localizeFieldErrors(fields map[string]string) map[string]string {
	if len(fields) == 0 {
		return nil
	}
	out := make(map[string]string, len(fields))
	for field, msg := range fields {
		switch translated, ok := fieldMessages[msg]; {
		case ok:
			out[field] = translated
		case strings.HasPrefix(msg, "weekday "):
			out[field] = "曜日は 0 (日曜) から 6 (土曜) で指定してください。"
		default:
			out[field] = msg
		}
	}
	return out
}

type errorResponse struct {
	ErrorCode      string            `json:"error_code,omitempty"`
	Message        string            `json:"message"`
	Errors         map[string]string `json:"errors,omitempty"`
	ConflictingIDs []string          `json:"conflicting_ids,omitempty"`
}
