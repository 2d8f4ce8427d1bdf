package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/thanmawoo39-creator/agart-pos-sub003/api/responses"
	"github.com/thanmawoo39-creator/agart-pos-sub003/pkg/config"
	"github.com/thanmawoo39-creator/agart-pos-sub003/pkg/db"
	pkgerrors "github.com/thanmawoo39-creator/agart-pos-sub003/pkg/errors"
	"github.com/thanmawoo39-creator/agart-pos-sub003/pkg/logger"
	pkgredis "github.com/thanmawoo39-creator/agart-pos-sub003/pkg/redis"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Agart-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP pkgredis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Agart-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		if dbP != nil {
			if err := dbP.Ping(ctx); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "database unavailable"))
				return
			}
		}
		if redisP != nil {
			if err := redisP.Ping(ctx); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis unavailable"))
				return
			}
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
