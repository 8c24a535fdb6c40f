package telegram

import (
	"crypto/subtle"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/uthef/QrBot/core/logger"

	tele "gopkg.in/telebot.v4"
)

const (
	secretHeader   = "X-Telegram-Bot-Api-Secret-Token"
	maxUpdateBytes = 1 << 20
)

// WebhookHandler serves POST /bot/{token} for every bot in reg.
// When secret is non-empty requests must carry it in the secret header.
func WebhookHandler(reg *Registry, secret string) http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/bot/{token}", func(w http.ResponseWriter, req *http.Request) {
		ctx := req.Context()
		bot, ok := reg.Get(mux.Vars(req)["token"])
		if !ok {
			logger.Warn(ctx, "webhook", "webhook.unknown_bot", slog.String("status", "reject"))
			http.NotFound(w, req)
			return
		}
		if secret != "" && subtle.ConstantTimeCompare([]byte(req.Header.Get(secretHeader)), []byte(secret)) != 1 {
			logger.Warn(ctx, "webhook", "webhook.bad_secret",
				slog.String("status", "reject"),
				slog.String("bot", bot.Name),
			)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var upd tele.Update
		if err := json.NewDecoder(io.LimitReader(req.Body, maxUpdateBytes)).Decode(&upd); err != nil {
			logger.Warn(ctx, "webhook", "webhook.bad_body",
				slog.String("status", "fail"),
				slog.String("bot", bot.Name),
				slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			)
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		bot.API.ProcessUpdate(upd)
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodPost)

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	return r
}
